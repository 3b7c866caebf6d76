package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sangkips/receipts-api/internal/domain/entity"
	domainRepo "github.com/sangkips/receipts-api/internal/domain/repository"
)

type templateRepository struct {
	db *gorm.DB
}

// NewTemplateRepository creates a new template repository
func NewTemplateRepository(db *gorm.DB) domainRepo.TemplateRepository {
	return &templateRepository{db: db}
}

func (r *templateRepository) Create(ctx context.Context, template *entity.Template) error {
	return conn(ctx, r.db).Create(template).Error
}

func (r *templateRepository) GetVisible(ctx context.Context, id, userID uuid.UUID) (*entity.Template, error) {
	var template entity.Template
	err := conn(ctx, r.db).
		Where("is_system = ? OR user_id = ?", true, userID).
		First(&template, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &template, err
}

func (r *templateRepository) ListVisible(ctx context.Context, userID uuid.UUID) ([]entity.Template, error) {
	var templates []entity.Template
	err := conn(ctx, r.db).
		Where("is_system = ? OR user_id = ?", true, userID).
		Order("is_system DESC").
		Order("name ASC").
		Find(&templates).Error
	return templates, err
}

// Delete nulls out receipt and business references before removing the
// template, all in one transaction
func (r *templateRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return conn(ctx, r.db).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&entity.Receipt{}).
			Where("template_id = ?", id).
			UpdateColumn("template_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Model(&entity.Business{}).
			Where("selected_template_id = ?", id).
			UpdateColumn("selected_template_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&entity.Template{}, "id = ?", id).Error
	})
}

func (r *templateRepository) CountSystem(ctx context.Context) (int64, error) {
	var count int64
	err := conn(ctx, r.db).Model(&entity.Template{}).Where("is_system = ?", true).Count(&count).Error
	return count, err
}
