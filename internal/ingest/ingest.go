// Package ingest implements the ingestion façade: the single entry point
// both the HTTP handler and any future producer calls to accept a
// notification, grounded in SPEC_FULL.md §4.1's seven-step flow
// (validate -> dedup -> rate-limit -> render -> persist -> publish ->
// receipt).
package ingest

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/notifyhub/notifyhub/internal/errs"
	"github.com/notifyhub/notifyhub/internal/idempotency"
	"github.com/notifyhub/notifyhub/internal/models"
	"github.com/notifyhub/notifyhub/internal/queue"
	"github.com/notifyhub/notifyhub/internal/ratelimit"
	"github.com/notifyhub/notifyhub/internal/store"
	"github.com/notifyhub/notifyhub/internal/template"
	"github.com/notifyhub/notifyhub/internal/templaterepo"
	"github.com/notifyhub/notifyhub/internal/user"
	"go.uber.org/zap"
)

// Request is a single notification submission.
type Request struct {
	UserID      uuid.UUID
	Channel     models.Channel
	Priority    models.Priority
	Subject     string
	Content     string
	TemplateRef *uuid.UUID
	Variables   map[string]string
	EventID     string
	Metadata    map[string]string
	MaxRetries  int
}

// Receipt is what the caller gets back for a successfully accepted
// submission.
type Receipt struct {
	NotificationID uuid.UUID
	Status         models.Status
}

// Service is the ingestion façade.
type Service struct {
	store       store.Store
	users       user.Repo
	templates   templaterepo.Repo
	idempotency idempotency.Gate
	limiter     ratelimit.Limiter
	publisher   queue.Publisher
	log         *zap.Logger
}

// New builds a Service from its collaborators.
func New(s store.Store, u user.Repo, t templaterepo.Repo, g idempotency.Gate, l ratelimit.Limiter, p queue.Publisher, log *zap.Logger) *Service {
	return &Service{store: s, users: u, templates: t, idempotency: g, limiter: l, publisher: p, log: log}
}

// Submit runs a single request through the full ingestion pipeline.
// Dedup is checked before rate limiting so a retried duplicate never
// consumes a slot in the user's rate-limit window.
func (s *Service) Submit(ctx context.Context, req Request) (Receipt, error) {
	if err := s.validate(ctx, req); err != nil {
		return Receipt{}, err
	}

	if req.EventID != "" {
		outcome, err := s.idempotency.Claim(ctx, req.EventID)
		if err != nil {
			return Receipt{}, fmt.Errorf("%w: %v", errs.ErrTransientInfra, err)
		}
		if outcome == idempotency.AlreadyPresent {
			return Receipt{}, errs.ErrDuplicateEvent
		}
	}

	decision, err := s.limiter.Admit(ctx, req.UserID, req.Channel)
	if err != nil {
		return Receipt{}, fmt.Errorf("%w: %v", errs.ErrTransientInfra, err)
	}
	if !decision.Admitted {
		return Receipt{}, errs.ErrRateLimited
	}

	subject, content := req.Subject, req.Content
	if req.TemplateRef != nil {
		tmpl, err := s.templates.GetByID(ctx, *req.TemplateRef)
		if err != nil {
			return Receipt{}, err
		}
		if !tmpl.Active {
			return Receipt{}, fmt.Errorf("%w: unknown template_ref", errs.ErrValidation)
		}
		rendered := template.Render(tmpl.SubjectTemplate, tmpl.BodyTemplate, req.Variables)
		subject, content = rendered.Subject, rendered.Body
	}

	n := &models.Notification{
		UserID:      req.UserID,
		Channel:     req.Channel,
		Priority:    req.Priority,
		Subject:     subject,
		Content:     content,
		TemplateRef: req.TemplateRef,
		EventID:     req.EventID,
		Metadata:    models.JSONStringMap(req.Metadata),
	}
	if req.MaxRetries > 0 {
		n.MaxRetries = req.MaxRetries
	}

	if err := s.store.Insert(ctx, n); err != nil {
		return Receipt{}, err
	}

	if err := s.publisher.Publish(ctx, n.Channel, n.ID); err != nil {
		// The row is already durably PENDING with no next_retry_at set, so
		// RetrySweeper's NULL-or-due predicate picks it up on its next pass.
		// Swallow rather than propagate: the caller already has a receipt
		// for a row that exists and will be retried.
		if s.log != nil {
			s.log.Warn("ingest: publish failed, row left for sweeper to recover",
				zap.String("id", n.ID.String()), zap.Error(err))
		}
	}

	return Receipt{NotificationID: n.ID, Status: n.Status}, nil
}

// BulkResult is the per-request outcome of a SubmitBulk call.
type BulkResult struct {
	Request Request
	Receipt Receipt
	Err     error
}

// SubmitBulk runs every request through Submit independently: one user's
// validation failure or rate-limit rejection never aborts the rest of the
// batch.
func (s *Service) SubmitBulk(ctx context.Context, reqs []Request) []BulkResult {
	out := make([]BulkResult, len(reqs))
	for i, req := range reqs {
		receipt, err := s.Submit(ctx, req)
		out[i] = BulkResult{Request: req, Receipt: receipt, Err: err}
	}
	return out
}

func (s *Service) validate(ctx context.Context, req Request) error {
	if req.UserID == uuid.Nil {
		return fmt.Errorf("%w: user_id is required", errs.ErrValidation)
	}
	if !req.Channel.IsValid() {
		return fmt.Errorf("%w: invalid channel %q", errs.ErrValidation, req.Channel)
	}
	if req.Priority != "" && !req.Priority.IsValid() {
		return fmt.Errorf("%w: invalid priority %q", errs.ErrValidation, req.Priority)
	}
	if req.TemplateRef == nil && req.Content == "" {
		return fmt.Errorf("%w: content is required when no template_ref is set", errs.ErrValidation)
	}

	if _, err := s.users.GetByID(ctx, req.UserID); err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return fmt.Errorf("%w: unknown user_id", errs.ErrValidation)
		}
		return err
	}
	return nil
}
