// Package sweeper implements the RetrySweeper: a timer-driven background
// loop that republishes due retries and reclaims stuck PROCESSING rows.
// It only ever touches the store and the publisher — it never invokes a
// ChannelHandler directly, fixing the teacher's scheduler which calls
// providers inline from the cron job instead of going back through the
// queue (REDESIGN FLAG 5 in SPEC_FULL.md).
package sweeper

import (
	"context"
	"errors"
	"time"

	"github.com/notifyhub/notifyhub/internal/errs"
	"github.com/notifyhub/notifyhub/internal/models"
	"github.com/notifyhub/notifyhub/internal/queue"
	"github.com/notifyhub/notifyhub/internal/store"
	"go.uber.org/zap"
)

// Sweeper periodically sweeps the store for rows that need republishing.
type Sweeper struct {
	store          store.Store
	publisher      queue.Publisher
	interval       time.Duration
	batchSize      int
	stuckThreshold time.Duration
	log            *zap.Logger
}

// New builds a Sweeper from config values.
func New(s store.Store, p queue.Publisher, interval time.Duration, batchSize int, stuckThreshold time.Duration, log *zap.Logger) *Sweeper {
	return &Sweeper{
		store:          s,
		publisher:      p,
		interval:       interval,
		batchSize:      batchSize,
		stuckThreshold: stuckThreshold,
		log:            log,
	}
}

// Run blocks, ticking every interval until ctx is cancelled.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweepOnce(ctx)
		}
	}
}

func (s *Sweeper) sweepOnce(ctx context.Context) {
	now := time.Now().UTC()

	ready, err := s.store.FindReadyForRetry(ctx, now, s.batchSize)
	if err != nil {
		s.log.Error("sweeper: find ready for retry failed", zap.Error(err))
	} else {
		for _, n := range ready {
			s.republish(ctx, n)
		}
	}

	stuck, err := s.store.FindStuckProcessing(ctx, now.Add(-s.stuckThreshold), s.batchSize)
	if err != nil {
		s.log.Error("sweeper: find stuck processing failed", zap.Error(err))
		return
	}
	for _, n := range stuck {
		n.ReclaimStuck()
		if err := s.store.Update(ctx, n); err != nil {
			if errors.Is(err, errs.ErrVersionConflict) {
				// another worker moved it on first; nothing to reclaim.
				continue
			}
			s.log.Error("sweeper: reclaim failed", zap.String("id", n.ID.String()), zap.Error(err))
			continue
		}
		s.republish(ctx, n)
	}
}

func (s *Sweeper) republish(ctx context.Context, n *models.Notification) {
	if err := s.publisher.Publish(ctx, n.Channel, n.ID); err != nil {
		s.log.Error("sweeper: republish failed", zap.String("id", n.ID.String()), zap.Error(err))
	}
}
