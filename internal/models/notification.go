// Package models holds the GORM-mapped entities shared by the store,
// dispatcher, and HTTP layers.
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Channel is one of the four supported delivery channels. Immutable on a
// notification once created.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
	ChannelPush  Channel = "push"
	ChannelInApp Channel = "in_app"
)

// IsValid reports whether c is one of the four supported channels.
func (c Channel) IsValid() bool {
	switch c {
	case ChannelEmail, ChannelSMS, ChannelPush, ChannelInApp:
		return true
	}
	return false
}

// Priority is advisory: it is stored and returned with the notification,
// and admission, queueing and dispatch do not read it, so it changes no
// ordering.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

// IsValid reports whether p is one of the four supported priorities.
func (p Priority) IsValid() bool {
	switch p {
	case PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// Status is the notification's position in the delivery state machine.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusSent       Status = "sent"
	StatusDelivered  Status = "delivered"
	StatusRead       Status = "read"
	StatusFailed     Status = "failed"
)

// Notification is the central entity: one row per accepted dispatch
// attempt. The row is the single point of truth for delivery state;
// Version guards concurrent writers (ingestion, consumer, sweeper, webhook).
type Notification struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID  uuid.UUID `gorm:"type:uuid;index;not null" json:"user_id"`
	Channel Channel   `gorm:"type:varchar(16);not null" json:"channel"`

	Priority Priority `gorm:"type:varchar(16);not null;default:medium" json:"priority"`

	Subject string `gorm:"type:text" json:"subject,omitempty"`
	Content string `gorm:"type:text;not null" json:"content"`

	Status Status `gorm:"type:varchar(16);index;not null;default:pending" json:"status"`

	RetryCount  int        `gorm:"not null;default:0" json:"retry_count"`
	MaxRetries  int        `gorm:"not null;default:3" json:"max_retries"`
	NextRetryAt *time.Time `gorm:"index" json:"next_retry_at,omitempty"`

	ErrorMessage string `gorm:"type:text" json:"error_message,omitempty"`

	TemplateRef *uuid.UUID `gorm:"type:uuid" json:"template_ref,omitempty"`

	EventID string `gorm:"type:varchar(255);index" json:"event_id,omitempty"`

	Metadata JSONStringMap `gorm:"type:jsonb" json:"metadata,omitempty"`

	CreatedAt   time.Time  `gorm:"index;not null" json:"created_at"`
	SentAt      *time.Time `json:"sent_at,omitempty"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty"`
	ReadAt      *time.Time `json:"read_at,omitempty"`
	ClickedAt   *time.Time `json:"clicked_at,omitempty"`

	// Version is the optimistic-concurrency guard: every Update conditions
	// on (id, version) and bumps version by one. gorm's plugin-free
	// optimistic locking is implemented in the store layer, not here.
	Version int `gorm:"not null;default:0" json:"version"`

	UpdatedAt time.Time `json:"updated_at"`
}

// TableName pins the table name explicitly rather than relying on the
// naming strategy's pluralization for this, the hottest table in the
// schema.
func (Notification) TableName() string { return "notifications" }

// BeforeCreate assigns an id and the creation defaults a caller didn't set.
func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	if n.Status == "" {
		n.Status = StatusPending
	}
	if n.Priority == "" {
		n.Priority = PriorityMedium
	}
	if n.MaxRetries == 0 {
		n.MaxRetries = 3
	}
	n.UpdatedAt = n.CreatedAt
	return nil
}

// IsTerminal reports whether Status is past delivery processing: SENT,
// DELIVERED, READ or FAILED.
func (n *Notification) IsTerminal() bool {
	switch n.Status {
	case StatusSent, StatusFailed, StatusDelivered, StatusRead:
		return true
	}
	return false
}

// CanRetry reports whether another retry attempt is permitted.
func (n *Notification) CanRetry() bool {
	return n.RetryCount < n.MaxRetries
}

// MarkProcessing transitions PENDING -> PROCESSING ahead of a consumer
// invoking the channel handler.
func (n *Notification) MarkProcessing() {
	n.Status = StatusProcessing
}

// MarkSent transitions PROCESSING -> SENT on handler success.
func (n *Notification) MarkSent(at time.Time) {
	n.Status = StatusSent
	n.SentAt = &at
	n.ErrorMessage = ""
}

// MarkDelivered transitions SENT -> DELIVERED on an external confirmation.
// Idempotent: calling it twice is harmless.
func (n *Notification) MarkDelivered(at time.Time) {
	if n.Status == StatusRead {
		return
	}
	n.Status = StatusDelivered
	n.DeliveredAt = &at
}

// MarkRead transitions DELIVERED -> READ on a user acknowledgement.
// Idempotent.
func (n *Notification) MarkRead(at time.Time) {
	n.Status = StatusRead
	n.ReadAt = &at
}

// MarkFailedPermanent transitions directly to FAILED without incrementing
// retry_count, for handler declines and permanent-provider failures.
func (n *Notification) MarkFailedPermanent(reason string) {
	n.Status = StatusFailed
	n.ErrorMessage = reason
}

// ScheduleRetry either reschedules to PENDING with a backoff delay, or
// exhausts into FAILED, per the retry policy in internal/retry.
func (n *Notification) ScheduleRetry(reason string, nextRetryAt time.Time, exhausted bool) {
	n.RetryCount++
	n.ErrorMessage = reason
	if exhausted {
		n.Status = StatusFailed
		n.NextRetryAt = nil
		return
	}
	n.Status = StatusPending
	n.NextRetryAt = &nextRetryAt
}

// ReclaimStuck transitions a PROCESSING row stranded past the stuck
// threshold back to PENDING without incrementing retry_count, since we
// don't know whether the handler was ever actually invoked.
func (n *Notification) ReclaimStuck() {
	n.Status = StatusPending
	n.NextRetryAt = nil
}
