package models

import "github.com/google/uuid"

// User is the minimal collaborator shape channel handlers consult to
// decide whether they canHandle a notification. Authentication, profile
// data, and preference management live outside the core's scope; this is
// only the subset ingestion and dispatch ever touch.
type User struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email       string    `gorm:"type:varchar(255);index" json:"email,omitempty"`
	Phone       string    `gorm:"type:varchar(32);index" json:"phone,omitempty"`
	DeviceToken string    `gorm:"type:varchar(512)" json:"device_token,omitempty"`
	Platform    string    `gorm:"type:varchar(16)" json:"platform,omitempty"`
}

func (User) TableName() string { return "users" }
