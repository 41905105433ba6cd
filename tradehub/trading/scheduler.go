package trading

import (
	"context"
	"sync"
	"time"

	"log/slog"
)

const defaultSweepBatch = 200

// Sweeper periodically expires overdue active trades. It is the only
// system-driven caller of the lifecycle; everything else is request-driven.
type Sweeper struct {
	manager  *Manager
	interval time.Duration
	batch    int

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

func NewSweeper(manager *Manager, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Sweeper{
		manager:  manager,
		interval: interval,
		batch:    defaultSweepBatch,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the sweep loop. An immediate first sweep catches trades
// that went overdue while the process was down.
func (s *Sweeper) Start(ctx context.Context) {
	go s.run(ctx)
}

func (s *Sweeper) run(ctx context.Context) {
	defer close(s.done)

	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep(ctx)
		case <-s.stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	start := time.Now()
	expired, err := s.manager.SweepExpired(ctx, s.batch)
	if err != nil {
		slog.Error("Expiry sweep failed",
			slog.String("type", "sys"),
			slog.Int("expired", expired),
			slog.Any("error", err),
		)
		return
	}
	if expired > 0 {
		slog.Info("Expiry sweep finished",
			slog.String("type", "sys"),
			slog.Int("expired", expired),
			slog.Duration("took", time.Since(start)),
		)
	}
}

// Stop halts the loop and waits for an in-flight sweep to finish.
func (s *Sweeper) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
	<-s.done
}
