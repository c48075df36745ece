// Package templaterepo implements the template CRUD collaborator surface.
package templaterepo

import (
	"context"

	"github.com/google/uuid"
	"github.com/notifyhub/notifyhub/internal/errs"
	"github.com/notifyhub/notifyhub/internal/models"
	"gorm.io/gorm"
)

// Repo is the template collaborator's contract: create/read/update and a
// soft-deactivate instead of hard delete.
type Repo interface {
	Create(ctx context.Context, t *models.Template) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Template, error)
	GetByName(ctx context.Context, name string) (*models.Template, error)
	List(ctx context.Context, offset, limit int) ([]*models.Template, error)
	Update(ctx context.Context, t *models.Template) error
	Deactivate(ctx context.Context, id uuid.UUID) error
}

type gormRepo struct {
	db *gorm.DB
}

// NewGormRepo builds a Repo backed by the given gorm connection.
func NewGormRepo(db *gorm.DB) Repo {
	return &gormRepo{db: db}
}

func (r *gormRepo) Create(ctx context.Context, t *models.Template) error {
	t.Variables = t.ExtractVariables()
	// gorm substitutes the column default (true) for a zero-valued Active on
	// insert, so an explicitly inactive template is switched off afterwards.
	active := t.Active
	if err := r.db.WithContext(ctx).Create(t).Error; err != nil {
		return errs.ErrTransientInfra
	}
	if !active {
		if err := r.db.WithContext(ctx).Model(t).Update("active", false).Error; err != nil {
			return errs.ErrTransientInfra
		}
		t.Active = false
	}
	return nil
}

func (r *gormRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Template, error) {
	var t models.Template
	err := r.db.WithContext(ctx).First(&t, "id = ?", id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, errs.ErrTransientInfra
	}
	t.Variables = t.ExtractVariables()
	return &t, nil
}

func (r *gormRepo) GetByName(ctx context.Context, name string) (*models.Template, error) {
	var t models.Template
	err := r.db.WithContext(ctx).First(&t, "name = ? AND active = ?", name, true).Error
	if err == gorm.ErrRecordNotFound {
		return nil, errs.ErrNotFound
	}
	if err != nil {
		return nil, errs.ErrTransientInfra
	}
	t.Variables = t.ExtractVariables()
	return &t, nil
}

func (r *gormRepo) List(ctx context.Context, offset, limit int) ([]*models.Template, error) {
	var out []*models.Template
	err := r.db.WithContext(ctx).Order("name ASC").Offset(offset).Limit(limit).Find(&out).Error
	if err != nil {
		return nil, errs.ErrTransientInfra
	}
	return out, nil
}

func (r *gormRepo) Update(ctx context.Context, t *models.Template) error {
	readVersion := t.Version
	res := r.db.WithContext(ctx).Model(&models.Template{}).
		Where("id = ? AND version = ?", t.ID, readVersion).
		Updates(map[string]any{
			"subject_template": t.SubjectTemplate,
			"body_template":    t.BodyTemplate,
			"active":           t.Active,
			"version":          readVersion + 1,
		})
	if res.Error != nil {
		return errs.ErrTransientInfra
	}
	if res.RowsAffected == 0 {
		return errs.ErrVersionConflict
	}
	t.Version = readVersion + 1
	return nil
}

func (r *gormRepo) Deactivate(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Model(&models.Template{}).Where("id = ?", id).Update("active", false)
	if res.Error != nil {
		return errs.ErrTransientInfra
	}
	if res.RowsAffected == 0 {
		return errs.ErrNotFound
	}
	return nil
}
