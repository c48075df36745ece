// Package dispatch implements the ChannelDispatcher: an O(1) registry
// lookup from channel to the handler that knows how to deliver it.
package dispatch

import (
	"context"

	"github.com/notifyhub/notifyhub/internal/models"
)

// Outcome is the tagged result a ChannelHandler reports, replacing the
// teacher's plain `error` return so the retry policy can distinguish
// retryable from non-retryable failures.
type Outcome struct {
	Kind   OutcomeKind
	Reason string
}

// OutcomeKind tags an Outcome as success, retryable, or terminal.
type OutcomeKind int

const (
	Success OutcomeKind = iota
	TransientFailure
	PermanentFailure
)

// Handler is the ChannelHandler contract from SPEC_FULL.md §4.9.
type Handler interface {
	Channel() models.Channel
	CanHandle(ctx context.Context, n *models.Notification, recipient *models.User) bool
	Send(ctx context.Context, n *models.Notification, recipient *models.User) Outcome
}

// Dispatcher maps a channel to its registered Handler.
type Dispatcher struct {
	handlers map[models.Channel]Handler
}

// NewDispatcher builds a Dispatcher from the given handlers, keyed by each
// handler's own Channel().
func NewDispatcher(handlers ...Handler) *Dispatcher {
	d := &Dispatcher{handlers: make(map[models.Channel]Handler, len(handlers))}
	for _, h := range handlers {
		d.handlers[h.Channel()] = h
	}
	return d
}

// Resolve returns the handler registered for channel, or false if none was
// registered — adding a channel is a new Handler plus a registry entry,
// no change to the ingestion or consumer pool code.
func (d *Dispatcher) Resolve(channel models.Channel) (Handler, bool) {
	h, ok := d.handlers[channel]
	return h, ok
}
