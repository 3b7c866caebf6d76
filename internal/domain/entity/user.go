package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents an account that can own a business
type User struct {
	ID              uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	FirstName       string     `gorm:"size:150" json:"first_name"`
	LastName        string     `gorm:"size:150" json:"last_name"`
	Email           string     `gorm:"size:254;unique;not null" json:"email"`
	Password        string     `gorm:"size:255;not null" json:"-"`
	IsStaff         bool       `gorm:"not null" json:"is_staff"`
	IsActive        bool       `gorm:"not null" json:"is_active"`
	DefaultCurrency string     `gorm:"size:3;not null" json:"default_currency"`
	LastLoginAt     *time.Time `json:"last_login_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// BeforeCreate generates a UUID before creating a new user
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.DefaultCurrency == "" {
		u.DefaultCurrency = DefaultCurrency
	}
	return nil
}

// TableName returns the table name for the User model
func (User) TableName() string {
	return "users"
}

// FullName joins first and last name, falling back to the email
func (u *User) FullName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Email
	}
	return name
}
