package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Template is a named receipt layout. System templates have no owner.
type Template struct {
	ID           uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	Name         string     `gorm:"size:100;not null" json:"name"`
	Description  string     `gorm:"type:text" json:"description"`
	PreviewImage string     `gorm:"size:500" json:"preview_image"`
	IsSystem     bool       `gorm:"not null;index" json:"is_system"`
	UserID       *uuid.UUID `gorm:"type:uuid;index" json:"user_id"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`

	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// BeforeCreate generates a UUID before creating a new template
func (t *Template) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the Template model
func (Template) TableName() string {
	return "templates"
}

// OwnedBy reports whether userID owns the template
func (t *Template) OwnedBy(userID uuid.UUID) bool {
	return t.UserID != nil && *t.UserID == userID
}
