package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/sangkips/receipts-api/internal/domain/enum"
	"github.com/sangkips/receipts-api/pkg/apperror"
)

// DefaultCurrency is used when a user or business does not pick one
const DefaultCurrency = "USD"

// Business is the receipt-issuing profile of a user. A user owns at most one.
type Business struct {
	ID                 uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	OwnerID            uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex" json:"owner_id"`
	Name               string          `gorm:"size:255;not null" json:"name"`
	Description        string          `gorm:"type:text" json:"description"`
	AddressOne         string          `gorm:"size:255" json:"address_one"`
	AddressTwo         string          `gorm:"size:255" json:"address_two"`
	Phone              string          `gorm:"size:20" json:"phone"`
	Email              string          `gorm:"size:254" json:"email"`
	RegistrationNumber string          `gorm:"size:100" json:"registration_number"`
	LogoURL            string          `gorm:"size:500" json:"logo_url"`
	Currency           string          `gorm:"size:3;not null" json:"currency"`
	TaxRate            decimal.Decimal `gorm:"type:numeric(5,4);not null" json:"tax_rate"`
	TaxEnabled         bool            `gorm:"not null" json:"tax_enabled"`
	SelectedTemplateID *uuid.UUID      `gorm:"type:uuid;index" json:"selected_template_id"`
	OnboardingComplete bool            `gorm:"not null" json:"onboarding_complete"`
	Motto              string          `gorm:"size:255" json:"motto"`
	SignatureURL       string          `gorm:"size:500" json:"signature_url"`
	ServerID           *int64          `gorm:"uniqueIndex" json:"server_id"`
	SyncStatus         enum.SyncStatus `gorm:"size:20;not null;index" json:"sync_status"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`

	// Relationships
	Owner            *User     `gorm:"foreignKey:OwnerID;constraint:OnDelete:CASCADE" json:"-"`
	SelectedTemplate *Template `gorm:"foreignKey:SelectedTemplateID;constraint:OnDelete:SET NULL" json:"-"`
}

// BeforeCreate generates a UUID before creating a new business
func (b *Business) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if b.Currency == "" {
		b.Currency = DefaultCurrency
	}
	if b.SyncStatus == "" {
		b.SyncStatus = enum.SyncStatusPending
	}
	return nil
}

// TableName returns the table name for the Business model
func (Business) TableName() string {
	return "businesses"
}

// BusinessPatch carries the fields submitted for a business create or update.
// Nil fields are left untouched.
type BusinessPatch struct {
	Name               *string
	Description        *string
	AddressOne         *string
	AddressTwo         *string
	Phone              *string
	Email              *string
	RegistrationNumber *string
	LogoURL            *string
	Currency           *string
	TaxRate            *decimal.Decimal
	TaxEnabled         *bool
	SelectedTemplateID *uuid.UUID
	OnboardingComplete *bool
	Motto              *string
	SignatureURL       *string
}

// ApplyPatch returns a copy of b with the patch applied. A synced business
// whose sync-relevant fields changed is demoted to pending.
func (b Business) ApplyPatch(p BusinessPatch) Business {
	next := b
	setString(&next.Name, p.Name)
	setString(&next.Description, p.Description)
	setString(&next.AddressOne, p.AddressOne)
	setString(&next.AddressTwo, p.AddressTwo)
	setString(&next.Phone, p.Phone)
	setString(&next.Email, p.Email)
	setString(&next.RegistrationNumber, p.RegistrationNumber)
	setString(&next.LogoURL, p.LogoURL)
	setString(&next.Currency, p.Currency)
	setString(&next.Motto, p.Motto)
	setString(&next.SignatureURL, p.SignatureURL)
	if p.TaxRate != nil {
		next.TaxRate = *p.TaxRate
	}
	if p.TaxEnabled != nil {
		next.TaxEnabled = *p.TaxEnabled
	}
	if p.SelectedTemplateID != nil {
		id := *p.SelectedTemplateID
		next.SelectedTemplateID = &id
	}
	if p.OnboardingComplete != nil {
		next.OnboardingComplete = *p.OnboardingComplete
	}

	if b.SyncStatus == enum.SyncStatusSynced && b.syncFieldsDiffer(next) {
		next.SyncStatus = enum.SyncStatusPending
	}
	return next
}

func (b Business) syncFieldsDiffer(o Business) bool {
	return b.Name != o.Name ||
		b.AddressOne != o.AddressOne ||
		b.AddressTwo != o.AddressTwo ||
		b.Phone != o.Phone ||
		b.Email != o.Email ||
		b.Currency != o.Currency ||
		b.TaxEnabled != o.TaxEnabled ||
		!b.TaxRate.Equal(o.TaxRate)
}

// TransitionTo moves the business to status, recording serverID when given
func (b Business) TransitionTo(status enum.SyncStatus, serverID *int64) (Business, error) {
	next := b
	if err := checkTransition(b.SyncStatus, status, b.ServerID, serverID); err != nil {
		return b, err
	}
	if serverID != nil {
		id := *serverID
		next.ServerID = &id
	}
	next.SyncStatus = status
	return next, nil
}

func checkTransition(from, to enum.SyncStatus, current, submitted *int64) error {
	if !to.IsValid() {
		return apperror.NewValidationError("Invalid sync status", apperror.FieldError{
			Field:   "sync_status",
			Message: "unknown sync status " + to.String(),
		})
	}
	if !from.CanTransitionTo(to) {
		return apperror.NewValidationError("Invalid sync status transition", apperror.FieldError{
			Field:   "sync_status",
			Message: "cannot transition from " + from.String() + " to " + to.String(),
		})
	}
	if to == enum.SyncStatusSynced && current == nil && submitted == nil {
		return apperror.NewMissingServerIDError()
	}
	return nil
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}
