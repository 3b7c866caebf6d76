package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sangkips/receipts-api/internal/domain/entity"
	"github.com/sangkips/receipts-api/internal/domain/enum"
	"github.com/sangkips/receipts-api/internal/domain/repository"
	"github.com/sangkips/receipts-api/pkg/apperror"
	"github.com/sangkips/receipts-api/pkg/pagination"
)

const invalidBusiness = "Invalid business profile"

// BusinessService handles the business profile of a user
type BusinessService struct {
	businesses repository.BusinessRepository
	users      repository.UserRepository
	templates  repository.TemplateRepository
	validate   *validator.Validate
}

// NewBusinessService creates a new business service
func NewBusinessService(
	businesses repository.BusinessRepository,
	users repository.UserRepository,
	templates repository.TemplateRepository,
) *BusinessService {
	return &BusinessService{
		businesses: businesses,
		users:      users,
		templates:  templates,
		validate:   newStructValidator(),
	}
}

// Get returns the caller's business
func (s *BusinessService) Get(ctx context.Context, p Principal) (*entity.Business, error) {
	business, err := s.businesses.GetByOwner(ctx, p.UserID)
	if err != nil {
		return nil, apperror.NewPersistenceError(err)
	}
	if business == nil {
		return nil, apperror.NewNotFoundError("Business")
	}
	return business, nil
}

// List returns every business for staff, otherwise the caller's own
func (s *BusinessService) List(ctx context.Context, p Principal, params *pagination.PaginationParams) ([]entity.Business, *pagination.Pagination, error) {
	params.Validate()

	if p.IsStaff {
		businesses, total, err := s.businesses.ListAll(ctx, params)
		if err != nil {
			return nil, nil, apperror.NewPersistenceError(err)
		}
		return businesses, pagination.NewPagination(params.Page, params.PerPage, total), nil
	}

	business, err := s.businesses.GetByOwner(ctx, p.UserID)
	if err != nil {
		return nil, nil, apperror.NewPersistenceError(err)
	}
	businesses := []entity.Business{}
	if business != nil {
		businesses = append(businesses, *business)
	}
	return businesses, pagination.NewPagination(1, params.PerPage, int64(len(businesses))), nil
}

// Create registers the caller's business. A user owns at most one.
func (s *BusinessService) Create(ctx context.Context, p Principal, patch entity.BusinessPatch) (*entity.Business, error) {
	existing, err := s.businesses.GetByOwner(ctx, p.UserID)
	if err != nil {
		return nil, apperror.NewPersistenceError(err)
	}
	if existing != nil {
		return nil, apperror.NewConflictError("You already have a business registered")
	}

	if patch.Currency == nil {
		user, err := s.users.GetByID(ctx, p.UserID)
		if err != nil {
			return nil, apperror.NewPersistenceError(err)
		}
		if user != nil && user.DefaultCurrency != "" {
			currency := user.DefaultCurrency
			patch.Currency = &currency
		}
	}

	patch, fields := s.normalize(patch)
	base := entity.Business{OwnerID: p.UserID, Currency: entity.DefaultCurrency, SyncStatus: enum.SyncStatusPending}
	business := base.ApplyPatch(patch)
	if err := s.check(ctx, p, business, fields); err != nil {
		return nil, err
	}

	if err := s.businesses.Create(ctx, &business); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, apperror.NewConflictError("You already have a business registered")
		}
		return nil, apperror.NewPersistenceError(err)
	}
	return &business, nil
}

// Update applies a partial edit to the caller's business
func (s *BusinessService) Update(ctx context.Context, p Principal, patch entity.BusinessPatch) (*entity.Business, error) {
	existing, err := s.Get(ctx, p)
	if err != nil {
		return nil, err
	}

	patch, fields := s.normalize(patch)
	business := existing.ApplyPatch(patch)
	if err := s.check(ctx, p, business, fields); err != nil {
		return nil, err
	}

	if err := s.businesses.Update(ctx, &business); err != nil {
		return nil, apperror.NewPersistenceError(err)
	}
	return &business, nil
}

// TransitionSyncStatus moves the caller's business along the sync state machine
func (s *BusinessService) TransitionSyncStatus(ctx context.Context, p Principal, id uuid.UUID, status enum.SyncStatus, serverID *int64) (*entity.Business, error) {
	business, err := s.businesses.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.NewPersistenceError(err)
	}
	if business == nil || business.OwnerID != p.UserID {
		return nil, apperror.NewNotFoundError("Business")
	}

	next, err := business.TransitionTo(status, serverID)
	if err != nil {
		return nil, err
	}
	if err := s.businesses.Update(ctx, &next); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, apperror.NewConflictError("Server id is already assigned to another record")
		}
		return nil, apperror.NewPersistenceError(err)
	}
	return &next, nil
}

// normalize canonicalizes submitted values and reports the malformed ones
func (s *BusinessService) normalize(patch entity.BusinessPatch) (entity.BusinessPatch, []apperror.FieldError) {
	var fields []apperror.FieldError

	if patch.Currency != nil {
		currency := strings.ToUpper(strings.TrimSpace(*patch.Currency))
		if len(currency) != 3 || strings.IndexFunc(currency, func(r rune) bool { return r < 'A' || r > 'Z' }) >= 0 {
			fields = append(fields, apperror.FieldError{Field: "currency", Message: "Currency code must be 3 characters (ISO 4217)"})
		}
		patch.Currency = &currency
	}
	if patch.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*patch.Email))
		if email != "" && s.validate.Var(email, "email") != nil {
			fields = append(fields, apperror.FieldError{Field: "email", Message: "Enter a valid email address."})
		}
		patch.Email = &email
	}
	if patch.Phone != nil {
		if msg := checkPhone(*patch.Phone); msg != "" {
			fields = append(fields, apperror.FieldError{Field: "phone", Message: msg})
		}
	}
	fields = append(fields, checkTaxRate("tax_rate", patch.TaxRate, false)...)
	return patch, fields
}

// check validates the merged business
func (s *BusinessService) check(ctx context.Context, p Principal, b entity.Business, fields []apperror.FieldError) error {
	if strings.TrimSpace(b.Name) == "" {
		fields = append(fields, required("name"))
	}
	if b.TaxEnabled && !b.TaxRate.GreaterThan(decimal.Zero) {
		fields = append(fields, apperror.FieldError{Field: "tax_rate", Message: "Tax rate must be > 0 when tax is enabled"})
	}
	if b.OnboardingComplete {
		var missing []string
		for field, empty := range map[string]bool{
			"name":                 b.Name == "",
			"phone":                b.Phone == "",
			"email":                b.Email == "",
			"address_one":          b.AddressOne == "",
			"selected_template_id": b.SelectedTemplateID == nil,
		} {
			if empty {
				missing = append(missing, field)
			}
		}
		if len(missing) > 0 {
			sort.Strings(missing)
			fields = append(fields, apperror.FieldError{
				Field:   "onboarding_complete",
				Message: "Cannot complete onboarding. Missing required fields: " + strings.Join(missing, ", "),
			})
		}
	}
	if len(fields) > 0 {
		return apperror.NewValidationError(invalidBusiness, fields...)
	}

	if b.SelectedTemplateID != nil {
		tmpl, err := s.templates.GetVisible(ctx, *b.SelectedTemplateID, p.UserID)
		if err != nil {
			return apperror.NewPersistenceError(err)
		}
		if tmpl == nil {
			return apperror.NewValidationError(invalidBusiness, apperror.FieldError{
				Field:   "selected_template_id",
				Message: "template does not exist",
			})
		}
	}
	return nil
}

// checkPhone accepts digits with common formatting characters
func checkPhone(phone string) string {
	if strings.TrimSpace(phone) == "" {
		return "Phone number is required"
	}
	digits := 0
	for _, r := range phone {
		switch {
		case unicode.IsDigit(r):
			digits++
		case strings.ContainsRune("+-() ", r):
		default:
			return "Phone number must contain only digits and common formatting characters"
		}
	}
	if digits < 7 || digits > 15 {
		return "Phone number must be between 7 and 15 digits"
	}
	return ""
}
