package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sangkips/receipts-api/internal/domain/entity"
	"github.com/sangkips/receipts-api/internal/domain/enum"
	domainRepo "github.com/sangkips/receipts-api/internal/domain/repository"
	"github.com/sangkips/receipts-api/pkg/pagination"
)

type receiptRepository struct {
	db *gorm.DB
}

// NewReceiptRepository creates a new receipt repository
func NewReceiptRepository(db *gorm.DB) domainRepo.ReceiptRepository {
	return &receiptRepository{db: db}
}

func (r *receiptRepository) FindByID(ctx context.Context, scope domainRepo.ReceiptScope, id uuid.UUID) (*entity.Receipt, error) {
	var receipt entity.Receipt
	err := conn(ctx, r.db).
		Scopes(ReceiptScope(scope)).
		Preload("Items", orderedItems).
		First(&receipt, "receipts.id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &receipt, err
}

func (r *receiptRepository) FindForBusiness(ctx context.Context, businessID, id uuid.UUID) (*entity.Receipt, error) {
	var receipt entity.Receipt
	err := conn(ctx, r.db).
		Preload("Items", orderedItems).
		Where("business_id = ?", businessID).
		First(&receipt, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &receipt, err
}

func (r *receiptRepository) ExistsByID(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := conn(ctx, r.db).Model(&entity.Receipt{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// ListByOwner returns receipts newest first, continuing after cursor
func (r *receiptRepository) ListByOwner(ctx context.Context, scope domainRepo.ReceiptScope, cursor *pagination.Cursor, limit int) ([]entity.Receipt, error) {
	var receipts []entity.Receipt

	query := conn(ctx, r.db).Model(&entity.Receipt{}).Scopes(ReceiptScope(scope))
	if cursor != nil {
		query = query.Where(
			"receipts.created_at < ? OR (receipts.created_at = ? AND receipts.id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	err := query.
		Order("receipts.created_at DESC").
		Order("receipts.id DESC").
		Limit(limit + 1).
		Find(&receipts).Error
	return receipts, err
}

func (r *receiptRepository) ListSince(ctx context.Context, ownerID uuid.UUID, watermark time.Time) ([]entity.Receipt, error) {
	var receipts []entity.Receipt
	err := conn(ctx, r.db).
		Scopes(ReceiptScope(domainRepo.ReceiptScope{OwnerID: ownerID, IncludeDeleted: true})).
		Preload("Items", orderedItems).
		Where("receipts.updated_at > ?", watermark.UTC()).
		Order("receipts.updated_at ASC").
		Find(&receipts).Error
	return receipts, err
}

func (r *receiptRepository) NumberTaken(ctx context.Context, businessID uuid.UUID, number string, excludeID uuid.UUID) (bool, error) {
	var count int64
	query := conn(ctx, r.db).Model(&entity.Receipt{}).
		Where("business_id = ? AND receipt_number = ?", businessID, number)
	if excludeID != uuid.Nil {
		query = query.Where("id <> ?", excludeID)
	}
	err := query.Count(&count).Error
	return count > 0, err
}

func (r *receiptRepository) LatestNumber(ctx context.Context, businessID uuid.UUID) (string, error) {
	var receipt entity.Receipt
	err := conn(ctx, r.db).
		Select("receipt_number").
		Where("business_id = ?", businessID).
		Order("created_at DESC").
		Order("receipt_number DESC").
		First(&receipt).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	return receipt.ReceiptNumber, err
}

func (r *receiptRepository) Create(ctx context.Context, receipt *entity.Receipt) error {
	err := conn(ctx, r.db).Omit(clause.Associations).Create(receipt).Error
	return translateWriteError(err)
}

func (r *receiptRepository) Update(ctx context.Context, receipt *entity.Receipt) error {
	err := conn(ctx, r.db).Omit(clause.Associations).Save(receipt).Error
	return translateWriteError(err)
}

func (r *receiptRepository) ReplaceItems(ctx context.Context, receiptID uuid.UUID, items []entity.ReceiptItem) error {
	db := conn(ctx, r.db)
	if err := db.Where("receipt_id = ?", receiptID).Delete(&entity.ReceiptItem{}).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		items[i].ReceiptID = receiptID
		items[i].Order = i
	}
	return db.Create(&items).Error
}

func (r *receiptRepository) CountByStatus(ctx context.Context, ownerID uuid.UUID) (domainRepo.StatusCounts, error) {
	var rows []struct {
		SyncStatus enum.SyncStatus
		Total      int64
	}
	err := conn(ctx, r.db).Model(&entity.Receipt{}).
		Scopes(OwnedBy(ownerID)).
		Select("receipts.sync_status AS sync_status, COUNT(*) AS total").
		Group("receipts.sync_status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(domainRepo.StatusCounts, len(enum.AllSyncStatuses))
	for _, status := range enum.AllSyncStatuses {
		counts[status] = 0
	}
	for _, row := range rows {
		counts[row.SyncStatus] = row.Total
	}
	return counts, nil
}

func (r *receiptRepository) LastUpdatedAt(ctx context.Context, ownerID uuid.UUID) (*time.Time, error) {
	var receipt entity.Receipt
	err := conn(ctx, r.db).
		Scopes(OwnedBy(ownerID)).
		Select("receipts.updated_at").
		Order("receipts.updated_at DESC").
		First(&receipt).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &receipt.UpdatedAt, nil
}
