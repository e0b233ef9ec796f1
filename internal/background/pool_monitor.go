package background

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DefaultPoolStatsInterval is used when a non-positive interval is given
const DefaultPoolStatsInterval = 30 * time.Second

// PoolStatsSource exposes a snapshot of the connection pool
type PoolStatsSource interface {
	Stats() *pgxpool.Stat
}

// PoolStatsRecorder receives each snapshot, typically to export it as metrics
type PoolStatsRecorder interface {
	RecordPoolStats(s *pgxpool.Stat)
}

// PoolMonitor periodically samples connection pool statistics
type PoolMonitor struct {
	source   PoolStatsSource
	recorder PoolStatsRecorder
	logger   *slog.Logger
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewPoolMonitor creates a new pool monitor
func NewPoolMonitor(
	source PoolStatsSource,
	recorder PoolStatsRecorder,
	logger *slog.Logger,
	interval time.Duration,
) *PoolMonitor {
	if interval <= 0 {
		interval = DefaultPoolStatsInterval
	}
	return &PoolMonitor{
		source:   source,
		recorder: recorder,
		logger:   logger,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start samples immediately and then on every tick until Stop is called or
// ctx is cancelled. It blocks; run it in its own goroutine.
func (pm *PoolMonitor) Start(ctx context.Context) {
	ticker := time.NewTicker(pm.interval)
	defer ticker.Stop()

	pm.sample(ctx)

	for {
		select {
		case <-ticker.C:
			pm.sample(ctx)
		case <-pm.stopCh:
			pm.logger.Info("pool monitor stopped")
			return
		case <-ctx.Done():
			pm.logger.Info("pool monitor context cancelled")
			return
		}
	}
}

func (pm *PoolMonitor) sample(ctx context.Context) {
	stat := pm.source.Stats()
	if stat == nil {
		return
	}

	pm.recorder.RecordPoolStats(stat)

	attrs := []any{
		slog.Int("total_conns", int(stat.TotalConns())),
		slog.Int("idle_conns", int(stat.IdleConns())),
		slog.Int("acquired_conns", int(stat.AcquiredConns())),
		slog.Int("max_conns", int(stat.MaxConns())),
	}
	if stat.MaxConns() > 0 && stat.AcquiredConns() >= stat.MaxConns() {
		pm.logger.WarnContext(ctx, "connection pool saturated", attrs...)
		return
	}
	pm.logger.DebugContext(ctx, "connection pool stats", attrs...)
}

// Stop signals the pool monitor to stop. Safe to call more than once.
func (pm *PoolMonitor) Stop() {
	pm.stopOnce.Do(func() { close(pm.stopCh) })
}
