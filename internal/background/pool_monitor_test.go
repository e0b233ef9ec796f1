package background

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
)

type countingSource struct {
	calls atomic.Int32
}

// Stats returns nil: a real snapshot needs a live pool
func (s *countingSource) Stats() *pgxpool.Stat {
	s.calls.Add(1)
	return nil
}

type countingRecorder struct {
	calls atomic.Int32
}

func (r *countingRecorder) RecordPoolStats(*pgxpool.Stat) {
	r.calls.Add(1)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPoolMonitor_SamplesImmediatelyAndOnTick(t *testing.T) {
	source := &countingSource{}
	recorder := &countingRecorder{}
	pm := NewPoolMonitor(source, recorder, discardLogger(), 10*time.Millisecond)

	done := make(chan struct{})
	go func() {
		pm.Start(context.Background())
		close(done)
	}()

	assert.Eventually(t, func() bool { return source.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)

	pm.Stop()
	pm.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("pool monitor did not stop")
	}

	// nil snapshots are never forwarded
	assert.Equal(t, int32(0), recorder.calls.Load())
}

func TestPoolMonitor_StopsOnContextCancel(t *testing.T) {
	pm := NewPoolMonitor(&countingSource{}, &countingRecorder{}, discardLogger(), time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		pm.Start(ctx)
		close(done)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("pool monitor did not stop on cancel")
	}
}

func TestPoolMonitor_NonPositiveIntervalUsesDefault(t *testing.T) {
	for _, interval := range []time.Duration{0, -time.Second} {
		pm := NewPoolMonitor(&countingSource{}, &countingRecorder{}, discardLogger(), interval)
		assert.Equal(t, DefaultPoolStatsInterval, pm.interval)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			pm.Start(ctx)
			close(done)
		}()
		cancel()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("pool monitor did not stop on cancel")
		}
	}
}
