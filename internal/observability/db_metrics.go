package observability

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rinniizz/crudapi/internal/models"
)

// ObserveDB times fn under the logical operation name op. A nil receiver
// just runs fn.
func (p *Prom) ObserveDB(op string, fn func() error) error {
	if p == nil {
		return fn()
	}

	start := time.Now()
	err := fn()

	status := "ok"
	if err != nil {
		status = "error"
		p.DbErrorsTotal.WithLabelValues(op, classifyDBErr(err)).Inc()
	}
	p.DbQueryDuration.WithLabelValues(op, status).Observe(time.Since(start).Seconds())
	return err
}

// RecordPoolStats copies a pool snapshot into the pool gauges
func (p *Prom) RecordPoolStats(s *pgxpool.Stat) {
	if p == nil || s == nil {
		return
	}
	p.PoolTotalConns.Set(float64(s.TotalConns()))
	p.PoolIdleConns.Set(float64(s.IdleConns()))
	p.PoolAcquiredConns.Set(float64(s.AcquiredConns()))
	p.PoolMaxConns.Set(float64(s.MaxConns()))
	p.PoolEmptyAcquires.Set(float64(s.EmptyAcquireCount()))
}

func classifyDBErr(err error) string {
	var appErr *models.AppError
	if errors.As(err, &appErr) && appErr.Kind != models.KindInternal {
		return "domain"
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return "unique_violation"
		case "23514":
			return "check_violation"
		case "40001":
			return "serialization_failure"
		case "40P01":
			return "deadlock"
		case "57014":
			return "query_canceled"
		default:
			return "pg_" + pgErr.Code
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline"):
		return "timeout"
	case strings.Contains(msg, "connection"):
		return "connection"
	default:
		return "unknown"
	}
}
