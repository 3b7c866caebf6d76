package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sangkips/receipts-api/internal/domain/entity"
	"github.com/sangkips/receipts-api/pkg/pagination"
)

// BusinessRepository defines the interface for business data operations
type BusinessRepository interface {
	// Create creates a new business
	Create(ctx context.Context, business *entity.Business) error

	// GetByID retrieves a business by ID regardless of owner
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Business, error)

	// GetByOwner retrieves the business owned by a user
	GetByOwner(ctx context.Context, ownerID uuid.UUID) (*entity.Business, error)

	// Update saves every field of an existing business
	Update(ctx context.Context, business *entity.Business) error

	// ListAll retrieves all businesses (for staff use)
	ListAll(ctx context.Context, params *pagination.PaginationParams) ([]entity.Business, int64, error)
}
