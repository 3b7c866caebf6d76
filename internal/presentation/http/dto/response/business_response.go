package response

import (
	"time"

	"github.com/google/uuid"

	"github.com/sangkips/receipts-api/internal/domain/entity"
	"github.com/sangkips/receipts-api/internal/domain/enum"
)

// BusinessResponse is the public shape of a business profile
type BusinessResponse struct {
	ID                 uuid.UUID       `json:"id"`
	OwnerID            uuid.UUID       `json:"owner_id"`
	Name               string          `json:"name"`
	Description        string          `json:"description"`
	AddressOne         string          `json:"address_one"`
	AddressTwo         string          `json:"address_two"`
	Phone              string          `json:"phone"`
	Email              string          `json:"email"`
	RegistrationNumber string          `json:"registration_number"`
	LogoURL            string          `json:"logo_url"`
	Currency           string          `json:"currency"`
	TaxRate            string          `json:"tax_rate"`
	TaxEnabled         bool            `json:"tax_enabled"`
	SelectedTemplateID *uuid.UUID      `json:"selected_template_id"`
	OnboardingComplete bool            `json:"onboarding_complete"`
	Motto              string          `json:"motto"`
	SignatureURL       string          `json:"signature_url"`
	ServerID           *int64          `json:"server_id"`
	SyncStatus         enum.SyncStatus `json:"sync_status"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// NewBusinessResponse converts a business
func NewBusinessResponse(b *entity.Business) BusinessResponse {
	return BusinessResponse{
		ID:                 b.ID,
		OwnerID:            b.OwnerID,
		Name:               b.Name,
		Description:        b.Description,
		AddressOne:         b.AddressOne,
		AddressTwo:         b.AddressTwo,
		Phone:              b.Phone,
		Email:              b.Email,
		RegistrationNumber: b.RegistrationNumber,
		LogoURL:            b.LogoURL,
		Currency:           b.Currency,
		TaxRate:            b.TaxRate.StringFixed(4),
		TaxEnabled:         b.TaxEnabled,
		SelectedTemplateID: b.SelectedTemplateID,
		OnboardingComplete: b.OnboardingComplete,
		Motto:              b.Motto,
		SignatureURL:       b.SignatureURL,
		ServerID:           b.ServerID,
		SyncStatus:         b.SyncStatus,
		CreatedAt:          b.CreatedAt,
		UpdatedAt:          b.UpdatedAt,
	}
}

// UserResponse is the public shape of an account
type UserResponse struct {
	ID              uuid.UUID  `json:"id"`
	FirstName       string     `json:"first_name"`
	LastName        string     `json:"last_name"`
	Email           string     `json:"email"`
	IsStaff         bool       `json:"is_staff"`
	DefaultCurrency string     `json:"default_currency"`
	LastLoginAt     *time.Time `json:"last_login_at,omitempty"`
}

// NewUserResponse converts a user
func NewUserResponse(u *entity.User) UserResponse {
	return UserResponse{
		ID:              u.ID,
		FirstName:       u.FirstName,
		LastName:        u.LastName,
		Email:           u.Email,
		IsStaff:         u.IsStaff,
		DefaultCurrency: u.DefaultCurrency,
		LastLoginAt:     u.LastLoginAt,
	}
}

// AuthResponse carries the account and its access token
type AuthResponse struct {
	User        UserResponse `json:"user"`
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
}
