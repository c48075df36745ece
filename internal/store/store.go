// Package store implements the durable NotificationStore over gorm/postgres.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/notifyhub/notifyhub/internal/errs"
	"github.com/notifyhub/notifyhub/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Store is the NotificationStore contract from SPEC_FULL.md §4.5.
type Store interface {
	Insert(ctx context.Context, n *models.Notification) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Notification, error)
	// Update performs an optimistic-concurrency conditioned write: the
	// WHERE clause includes the version the caller last read, and the
	// write bumps it by one. ErrVersionConflict is returned if no row
	// matched (another writer already moved it on).
	Update(ctx context.Context, n *models.Notification) error
	ListForUser(ctx context.Context, userID uuid.UUID, status *models.Status, offset, limit int) ([]*models.Notification, error)
	FindReadyForRetry(ctx context.Context, now time.Time, limit int) ([]*models.Notification, error)
	FindStuckProcessing(ctx context.Context, olderThan time.Time, limit int) ([]*models.Notification, error)
}

// Open connects to Postgres, applying the corrected naming strategy and
// the pool limits from config.
func Open(dsn string, maxOpen, maxIdle int, connMaxLifetime time.Duration) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		NamingStrategy: namingStrategy{},
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(maxIdle)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	return db, nil
}

// AutoMigrate creates/updates the tables this service owns.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&models.Notification{}, &models.Template{}, &models.User{})
}

type gormStore struct {
	db *gorm.DB
}

// NewGormStore builds a Store backed by the given gorm connection.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Insert(ctx context.Context, n *models.Notification) error {
	if err := s.db.WithContext(ctx).Create(n).Error; err != nil {
		return errs.ErrTransientInfra
	}
	return nil
}

func (s *gormStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Notification, error) {
	var n models.Notification
	err := s.db.WithContext(ctx).First(&n, "id = ?", id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, errs.ErrTransientInfra
	}
	return &n, nil
}

// Update conditions the write on (id, version): the row must still be at
// the version the caller read. On success it bumps UpdatedAt and Version
// on the in-memory struct so the caller can keep using it without a
// second read.
func (s *gormStore) Update(ctx context.Context, n *models.Notification) error {
	readVersion := n.Version
	now := time.Now().UTC()

	res := s.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("id = ? AND version = ?", n.ID, readVersion).
		Updates(map[string]any{
			"status":        n.Status,
			"retry_count":   n.RetryCount,
			"max_retries":   n.MaxRetries,
			"next_retry_at": n.NextRetryAt,
			"error_message": n.ErrorMessage,
			"sent_at":       n.SentAt,
			"delivered_at":  n.DeliveredAt,
			"read_at":       n.ReadAt,
			"clicked_at":    n.ClickedAt,
			"metadata":      n.Metadata,
			"updated_at":    now,
			"version":       readVersion + 1,
		})
	if res.Error != nil {
		return errs.ErrTransientInfra
	}
	if res.RowsAffected == 0 {
		return errs.ErrVersionConflict
	}
	n.Version = readVersion + 1
	n.UpdatedAt = now
	return nil
}

func (s *gormStore) ListForUser(ctx context.Context, userID uuid.UUID, status *models.Status, offset, limit int) ([]*models.Notification, error) {
	q := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit)
	if status != nil {
		q = q.Where("status = ?", *status)
	}
	var out []*models.Notification
	if err := q.Find(&out).Error; err != nil {
		return nil, errs.ErrTransientInfra
	}
	return out, nil
}

// FindReadyForRetry selects PENDING rows whose next_retry_at has elapsed
// (or was never set, meaning they're newly created and awaiting first
// pickup via the normal publish path — the sweeper only needs to recover
// rows whose publish was lost, so in practice this mainly matches
// scheduled retries).
func (s *gormStore) FindReadyForRetry(ctx context.Context, now time.Time, limit int) ([]*models.Notification, error) {
	var out []*models.Notification
	err := s.db.WithContext(ctx).
		Where("status = ?", models.StatusPending).
		Where("next_retry_at IS NULL OR next_retry_at <= ?", now).
		Order("created_at ASC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, errs.ErrTransientInfra
	}
	return out, nil
}

func (s *gormStore) FindStuckProcessing(ctx context.Context, olderThan time.Time, limit int) ([]*models.Notification, error) {
	var out []*models.Notification
	err := s.db.WithContext(ctx).
		Where("status = ?", models.StatusProcessing).
		Where("updated_at <= ?", olderThan).
		Order("updated_at ASC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, errs.ErrTransientInfra
	}
	return out, nil
}
