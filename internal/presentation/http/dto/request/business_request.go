package request

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sangkips/receipts-api/internal/domain/entity"
)

// BusinessRequest is a business create or partial update. Omitted fields are
// left untouched.
type BusinessRequest struct {
	Name               *string          `json:"name" binding:"omitempty,max=255"`
	Description        *string          `json:"description"`
	AddressOne         *string          `json:"address_one" binding:"omitempty,max=255"`
	AddressTwo         *string          `json:"address_two" binding:"omitempty,max=255"`
	Phone              *string          `json:"phone" binding:"omitempty,max=20"`
	Email              *string          `json:"email" binding:"omitempty,max=254"`
	RegistrationNumber *string          `json:"registration_number" binding:"omitempty,max=100"`
	LogoURL            *string          `json:"logo_url" binding:"omitempty,max=500"`
	Currency           *string          `json:"currency"`
	TaxRate            *decimal.Decimal `json:"tax_rate"`
	TaxEnabled         *bool            `json:"tax_enabled"`
	SelectedTemplateID *uuid.UUID       `json:"selected_template_id"`
	OnboardingComplete *bool            `json:"onboarding_complete"`
	Motto              *string          `json:"motto" binding:"omitempty,max=255"`
	SignatureURL       *string          `json:"signature_url" binding:"omitempty,max=500"`
}

// Patch converts the request into a business patch
func (r BusinessRequest) Patch() entity.BusinessPatch {
	return entity.BusinessPatch{
		Name:               trimmed(r.Name),
		Description:        r.Description,
		AddressOne:         trimmed(r.AddressOne),
		AddressTwo:         trimmed(r.AddressTwo),
		Phone:              trimmed(r.Phone),
		Email:              trimmed(r.Email),
		RegistrationNumber: trimmed(r.RegistrationNumber),
		LogoURL:            trimmed(r.LogoURL),
		Currency:           trimmed(r.Currency),
		TaxRate:            r.TaxRate,
		TaxEnabled:         r.TaxEnabled,
		SelectedTemplateID: r.SelectedTemplateID,
		OnboardingComplete: r.OnboardingComplete,
		Motto:              r.Motto,
		SignatureURL:       trimmed(r.SignatureURL),
	}
}

// CreateTemplateRequest creates a user template
type CreateTemplateRequest struct {
	Name         string `json:"name" binding:"required,max=100"`
	Description  string `json:"description"`
	PreviewImage string `json:"preview_image" binding:"omitempty,max=500"`
}
