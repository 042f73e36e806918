package engine

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/cvt-care/support-bot/internal/session"
)

// Sweeper periodically releases staff claims that have gone idle, so a
// conversation a staff member walked away from returns to the automation.
type Sweeper struct {
	store    *session.Store
	sender   Sender
	interval time.Duration
	maxIdle  time.Duration
	logger   *zap.Logger

	now func() time.Time
}

func NewSweeper(store *session.Store, sender Sender, interval, maxIdle time.Duration, logger *zap.Logger) *Sweeper {
	return &Sweeper{
		store:    store,
		sender:   sender,
		interval: interval,
		maxIdle:  maxIdle,
		logger:   logger,
		now:      time.Now,
	}
}

// Run ticks until ctx is cancelled.
func (w *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("idle sweeper started",
		zap.Duration("interval", w.interval),
		zap.Duration("max_idle", w.maxIdle))

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("idle sweeper stopped")
			return
		case <-ticker.C:
			w.Sweep(ctx)
		}
	}
}

// Sweep reclaims every claimed session idle past the threshold. Closure
// notices go out in one goroutine per session so one slow send cannot hold
// up the rest of the sweep.
func (w *Sweeper) Sweep(ctx context.Context) {
	reclaimed := w.store.ReclaimIdle(w.now(), w.maxIdle)
	for _, s := range reclaimed {
		s := s
		w.logger.Info("idle claim reclaimed",
			zap.Int64("chat_id", int64(s.Chat)),
			zap.String("staff", s.ClaimedByName),
			zap.Time("last_activity", s.LastActivity))
		go func() {
			if err := w.sender.SendText(ctx, s.Chat, idleClosedNotice()); err != nil {
				w.logger.Error("failed to send idle closure notice",
					zap.Error(err),
					zap.Int64("chat_id", int64(s.Chat)))
			}
		}()
	}
}
