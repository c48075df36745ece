// Package consumer implements the ConsumerPool: one kafka-go reader per
// channel topic, fanning individual messages out to a fixed worker count.
// Acknowledgement is explicit — FetchMessage/CommitMessages, never the
// auto-committing ReadMessage the teacher's shared/messaging/kafka.go loop
// uses — so a worker crash mid-handler leaves the message uncommitted and
// it is redelivered, per SPEC_FULL.md §4.7.
package consumer

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/notifyhub/notifyhub/internal/dispatch"
	"github.com/notifyhub/notifyhub/internal/errs"
	"github.com/notifyhub/notifyhub/internal/models"
	"github.com/notifyhub/notifyhub/internal/queue"
	"github.com/notifyhub/notifyhub/internal/retry"
	"github.com/notifyhub/notifyhub/internal/store"
	"github.com/notifyhub/notifyhub/internal/user"
	kafka "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Deps bundles the collaborators a worker needs to take a notification id
// off a topic through to a terminal or rescheduled state.
type Deps struct {
	Store          store.Store
	Users          user.Repo
	Dispatcher     *dispatch.Dispatcher
	Retry          retry.Policy
	HandlerTimeout time.Duration
	Log            *zap.Logger
}

// Pool runs Workers goroutines reading Channel's topic.
type Pool struct {
	channel models.Channel
	reader  *kafka.Reader
	workers int
	deps    Deps
}

// NewPool builds a Pool for one channel's topic, using the given consumer
// group so multiple service instances share the partition set.
func NewPool(qcfg queue.Config, groupID string, channel models.Channel, workers int, deps Deps) *Pool {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: qcfg.Brokers,
		Topic:   qcfg.TopicFor(channel),
		GroupID: groupID,
	})
	return &Pool{channel: channel, reader: reader, workers: workers, deps: deps}
}

// Run starts Workers goroutines that each fetch from and commit to the
// pool's shared reader, and blocks until all of them have returned after
// ctx is cancelled. Each worker commits its own message as soon as it is
// handled, so one slow handler never blocks the others' acknowledgement.
func (p *Pool) Run(ctx context.Context) error {
	done := make(chan struct{}, p.workers)
	for i := 0; i < p.workers; i++ {
		go func() {
			p.loop(ctx)
			done <- struct{}{}
		}()
	}
	for i := 0; i < p.workers; i++ {
		<-done
	}
	return nil
}

// Close releases the underlying reader.
func (p *Pool) Close() error {
	return p.reader.Close()
}

func (p *Pool) loop(ctx context.Context) {
	for {
		msg, err := p.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			p.deps.Log.Warn("fetch failed", zap.String("channel", string(p.channel)), zap.Error(err))
			continue
		}

		if !p.handle(ctx, msg) {
			// Outcome wasn't durably persisted (store/infra hiccup): leave
			// the offset uncommitted so the message is redelivered instead
			// of silently lost.
			continue
		}

		if err := p.reader.CommitMessages(ctx, msg); err != nil {
			p.deps.Log.Error("commit failed", zap.String("channel", string(p.channel)), zap.Error(err))
		}
	}
}

// handle implements the per-message worker loop from SPEC_FULL.md §4.7:
// load, check the row is still pending (a message can be redelivered after
// a crash that happened after the DB write but before commit), dispatch,
// and persist the outcome. A version conflict on a decline write or on the
// MarkProcessing write reloads the row and starts over, up to three times;
// the outcome write after Send is made once and not retried.
// handle returns true once the message's outcome is durably reflected in
// the store (or the message was a no-op redelivery/malformed and needs no
// further work) — the only cases safe to acknowledge.
func (p *Pool) handle(ctx context.Context, msg kafka.Message) bool {
	id, err := uuid.Parse(string(msg.Value))
	if err != nil {
		p.deps.Log.Error("malformed message value, dropping", zap.ByteString("value", msg.Value))
		return true
	}

	hctx, cancel := context.WithTimeout(ctx, p.deps.HandlerTimeout)
	defer cancel()

	for attempt := 0; attempt < 3; attempt++ {
		n, err := p.deps.Store.FindByID(hctx, id)
		if err != nil {
			if errors.Is(err, errs.ErrNotFound) {
				p.deps.Log.Warn("notification not found, dropping", zap.String("id", id.String()))
				return true
			}
			p.deps.Log.Error("store lookup failed", zap.String("id", id.String()), zap.Error(err))
			return false
		}

		// A message can be redelivered (crash before commit, rebalance) for
		// a row another worker already finished. Terminal and in-flight
		// rows are skipped rather than reprocessed.
		if n.Status != models.StatusPending {
			return true
		}

		recipient, err := p.deps.Users.GetByID(hctx, n.UserID)
		if err != nil {
			n.MarkFailedPermanent("recipient not found")
			updErr := p.deps.Store.Update(hctx, n)
			if errors.Is(updErr, errs.ErrVersionConflict) {
				continue
			}
			return updErr == nil
		}

		handler, ok := p.deps.Dispatcher.Resolve(n.Channel)
		if !ok || !handler.CanHandle(hctx, n, recipient) {
			n.MarkFailedPermanent("no handler for channel")
			updErr := p.deps.Store.Update(hctx, n)
			if errors.Is(updErr, errs.ErrVersionConflict) {
				continue
			}
			return updErr == nil
		}

		n.MarkProcessing()
		if err := p.deps.Store.Update(hctx, n); err != nil {
			if errors.Is(err, errs.ErrVersionConflict) {
				continue
			}
			p.deps.Log.Error("failed to mark processing", zap.String("id", id.String()), zap.Error(err))
			return false
		}

		outcome := handler.Send(hctx, n, recipient)
		return p.applyOutcome(hctx, n, outcome)
	}
	p.deps.Log.Error("gave up after repeated version conflicts", zap.String("id", id.String()))
	return false
}

func (p *Pool) applyOutcome(ctx context.Context, n *models.Notification, outcome dispatch.Outcome) bool {
	switch outcome.Kind {
	case dispatch.Success:
		n.MarkSent(time.Now().UTC())
	case dispatch.PermanentFailure:
		n.MarkFailedPermanent(outcome.Reason)
	case dispatch.TransientFailure:
		if p.deps.Retry.Exhausted(n.RetryCount + 1) {
			n.ScheduleRetry(outcome.Reason, time.Time{}, true)
		} else {
			next := p.deps.Retry.NextRetryAt(time.Now().UTC(), n.RetryCount+1)
			n.ScheduleRetry(outcome.Reason, next, false)
		}
	}

	if err := p.deps.Store.Update(ctx, n); err != nil {
		p.deps.Log.Error("failed to persist outcome", zap.String("id", n.ID.String()), zap.Error(err))
		return false
	}
	return true
}
