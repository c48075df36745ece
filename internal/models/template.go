package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Template is read-only from the core ingestion path's point of view; it
// is managed through the template CRUD collaborator surface. Placeholders
// use the {{name}} syntax TemplateRenderer understands.
type Template struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name            string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"name"`
	Channel         Channel   `gorm:"type:varchar(16);not null" json:"channel"`
	SubjectTemplate string    `gorm:"type:text" json:"subject_template,omitempty"`
	BodyTemplate    string    `gorm:"type:text;not null" json:"body_template"`
	Active          bool      `gorm:"not null;default:true" json:"active"`
	Variables       []string  `gorm:"-" json:"variables,omitempty"`
	Version         int       `gorm:"not null;default:0" json:"version"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (Template) TableName() string { return "templates" }

func (t *Template) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	now := time.Now().UTC()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	t.UpdatedAt = now
	return nil
}

// ExtractVariables scans {{name}} placeholders out of both template
// strings. Variables is not persisted; the template repo fills it from this
// on Create and on every GetByID/GetByName.
func (t *Template) ExtractVariables() []string {
	seen := map[string]bool{}
	var out []string
	for _, text := range []string{t.SubjectTemplate, t.BodyTemplate} {
		for {
			start := strings.Index(text, "{{")
			if start == -1 {
				break
			}
			end := strings.Index(text[start:], "}}")
			if end == -1 {
				break
			}
			name := strings.TrimSpace(text[start+2 : start+end])
			if name != "" && !seen[name] {
				seen[name] = true
				out = append(out, name)
			}
			text = text[start+end+2:]
		}
	}
	return out
}
