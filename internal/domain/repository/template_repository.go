package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/receipts-api/internal/domain/entity"
)

// TemplateRepository defines the interface for receipt template operations
type TemplateRepository interface {
	Create(ctx context.Context, template *entity.Template) error

	// GetVisible retrieves a template if it is a system template or owned by userID
	GetVisible(ctx context.Context, id, userID uuid.UUID) (*entity.Template, error)

	// ListVisible lists system templates and the ones owned by userID
	ListVisible(ctx context.Context, userID uuid.UUID) ([]entity.Template, error)

	// Delete removes a template and clears every reference to it
	Delete(ctx context.Context, id uuid.UUID) error

	// CountSystem returns the number of system templates
	CountSystem(ctx context.Context) (int64, error)
}
