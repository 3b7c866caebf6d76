package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sangkips/receipts-api/internal/domain/entity"
	domainRepo "github.com/sangkips/receipts-api/internal/domain/repository"
	"github.com/sangkips/receipts-api/pkg/pagination"
)

type businessRepository struct {
	db *gorm.DB
}

// NewBusinessRepository creates a new business repository
func NewBusinessRepository(db *gorm.DB) domainRepo.BusinessRepository {
	return &businessRepository{db: db}
}

func (r *businessRepository) Create(ctx context.Context, business *entity.Business) error {
	err := conn(ctx, r.db).Omit(clause.Associations).Create(business).Error
	return translateWriteError(err)
}

func (r *businessRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Business, error) {
	var business entity.Business
	err := conn(ctx, r.db).First(&business, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &business, err
}

func (r *businessRepository) GetByOwner(ctx context.Context, ownerID uuid.UUID) (*entity.Business, error) {
	var business entity.Business
	err := conn(ctx, r.db).First(&business, "owner_id = ?", ownerID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &business, err
}

func (r *businessRepository) Update(ctx context.Context, business *entity.Business) error {
	err := conn(ctx, r.db).Omit(clause.Associations).Save(business).Error
	return translateWriteError(err)
}

func (r *businessRepository) ListAll(ctx context.Context, params *pagination.PaginationParams) ([]entity.Business, int64, error) {
	var businesses []entity.Business
	var total int64

	query := conn(ctx, r.db).Model(&entity.Business{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	params.Validate()
	err := query.Offset(params.Offset()).Limit(params.PerPage).
		Order("created_at DESC").
		Find(&businesses).Error

	return businesses, total, err
}
