package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sangkips/receipts-api/internal/domain/entity"
	domainRepo "github.com/sangkips/receipts-api/internal/domain/repository"
)

type idempotencyRepository struct {
	db *gorm.DB
}

// NewIdempotencyRepository creates a new idempotency repository
func NewIdempotencyRepository(db *gorm.DB) domainRepo.IdempotencyRepository {
	return &idempotencyRepository{db: db}
}

func (r *idempotencyRepository) GetByKey(ctx context.Context, key string, userID uuid.UUID) (*entity.IdempotencyKey, error) {
	var ikey entity.IdempotencyKey
	err := conn(ctx, r.db).
		Where("key = ? AND user_id = ?", key, userID).
		First(&ikey).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &ikey, err
}

// Create stores the key. A concurrent request that stored the same key first
// wins while its row is live; an expired row under the same key is replaced.
func (r *idempotencyRepository) Create(ctx context.Context, ikey *entity.IdempotencyKey) error {
	now := ikey.CreatedAt
	if now.IsZero() {
		now = r.db.NowFunc()
		ikey.CreatedAt = now
	}

	err := conn(ctx, r.db).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "key"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"id", "endpoint", "request_hash", "response_code", "response_body", "created_at", "expires_at",
			}),
			Where: clause.Where{Exprs: []clause.Expression{
				clause.Expr{SQL: "idempotency_keys.expires_at < ?", Vars: []interface{}{now}},
			}},
		}).
		Create(ikey).Error
	return translateWriteError(err)
}

func (r *idempotencyRepository) DeleteExpired(ctx context.Context, before time.Time) error {
	return conn(ctx, r.db).
		Where("expires_at < ?", before).
		Delete(&entity.IdempotencyKey{}).Error
}
