package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/sangkips/receipts-api/internal/domain/entity"
	"github.com/sangkips/receipts-api/internal/domain/repository"
	"github.com/sangkips/receipts-api/pkg/apperror"
)

// TemplateService handles receipt layouts
type TemplateService struct {
	templates repository.TemplateRepository
}

// NewTemplateService creates a new template service
func NewTemplateService(templates repository.TemplateRepository) *TemplateService {
	return &TemplateService{templates: templates}
}

// CreateTemplateInput represents input for creating a user template
type CreateTemplateInput struct {
	Name         string
	Description  string
	PreviewImage string
}

// List returns the system templates and the caller's own
func (s *TemplateService) List(ctx context.Context, p Principal) ([]entity.Template, error) {
	templates, err := s.templates.ListVisible(ctx, p.UserID)
	if err != nil {
		return nil, apperror.NewPersistenceError(err)
	}
	return templates, nil
}

// Create stores a template owned by the caller
func (s *TemplateService) Create(ctx context.Context, p Principal, input CreateTemplateInput) (*entity.Template, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperror.NewValidationError("Invalid template", required("name"))
	}

	owner := p.UserID
	tmpl := &entity.Template{
		Name:         name,
		Description:  input.Description,
		PreviewImage: input.PreviewImage,
		UserID:       &owner,
	}
	if err := s.templates.Create(ctx, tmpl); err != nil {
		return nil, apperror.NewPersistenceError(err)
	}
	return tmpl, nil
}

// Delete removes a template owned by the caller. Receipts and businesses
// referencing it lose the reference.
func (s *TemplateService) Delete(ctx context.Context, p Principal, id uuid.UUID) error {
	tmpl, err := s.templates.GetVisible(ctx, id, p.UserID)
	if err != nil {
		return apperror.NewPersistenceError(err)
	}
	if tmpl == nil || !tmpl.OwnedBy(p.UserID) {
		return apperror.NewNotFoundError("Template")
	}
	if err := s.templates.Delete(ctx, id); err != nil {
		return apperror.NewPersistenceError(err)
	}
	return nil
}
