// Package user implements the minimal user-lookup collaborator that
// ingestion validation and channel handlers consult.
package user

import (
	"context"

	"github.com/google/uuid"
	"github.com/notifyhub/notifyhub/internal/errs"
	"github.com/notifyhub/notifyhub/internal/models"
	"gorm.io/gorm"
)

// Repo is the user lookup collaborator's contract.
type Repo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByPhone(ctx context.Context, phone string) (*models.User, error)
}

type gormRepo struct {
	db *gorm.DB
}

// NewGormRepo builds a Repo backed by the given gorm connection.
func NewGormRepo(db *gorm.DB) Repo {
	return &gormRepo{db: db}
}

func (r *gormRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u models.User
	err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, errs.ErrTransientInfra
	}
	return &u, nil
}

func (r *gormRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := r.db.WithContext(ctx).First(&u, "email = ?", email).Error
	if err == gorm.ErrRecordNotFound {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, errs.ErrTransientInfra
	}
	return &u, nil
}

func (r *gormRepo) GetByPhone(ctx context.Context, phone string) (*models.User, error) {
	var u models.User
	err := r.db.WithContext(ctx).First(&u, "phone = ?", phone).Error
	if err == gorm.ErrRecordNotFound {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, errs.ErrTransientInfra
	}
	return &u, nil
}
