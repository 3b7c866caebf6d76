package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sangkips/receipts-api/internal/domain/entity"
	"github.com/sangkips/receipts-api/internal/domain/enum"
	"github.com/sangkips/receipts-api/pkg/pagination"
)

// ErrDuplicateReceiptNumber is returned when the (business, receipt_number)
// unique index rejects a write
var ErrDuplicateReceiptNumber = errors.New("duplicate receipt number")

// ErrDuplicateKey is returned for any other unique constraint violation
var ErrDuplicateKey = errors.New("duplicate key")

// ErrDuplicateID is returned when an insert collides on the primary key. It
// matches ErrDuplicateKey too.
var ErrDuplicateID = fmt.Errorf("duplicate id: %w", ErrDuplicateKey)

// ReceiptScope selects which receipts a read may see
type ReceiptScope struct {
	// OwnerID restricts rows to receipts whose business belongs to this user
	OwnerID uuid.UUID
	// AllOwners drops the owner filter (staff observability reads)
	AllOwners bool
	// IncludeDeleted keeps soft-deleted receipts
	IncludeDeleted bool
}

// OwnerScope returns the default scope for a user: own receipts, not deleted
func OwnerScope(ownerID uuid.UUID) ReceiptScope {
	return ReceiptScope{OwnerID: ownerID}
}

// StatusCounts holds the number of receipts per sync status
type StatusCounts map[enum.SyncStatus]int64

// ReceiptRepository defines the interface for receipt aggregate persistence.
// Every read takes its filters explicitly.
type ReceiptRepository interface {
	// FindByID retrieves a receipt with its items within scope
	FindByID(ctx context.Context, scope ReceiptScope, id uuid.UUID) (*entity.Receipt, error)

	// FindForBusiness retrieves a receipt of the business, soft-deleted included
	FindForBusiness(ctx context.Context, businessID, id uuid.UUID) (*entity.Receipt, error)

	// ExistsByID reports whether any receipt uses id, regardless of owner
	ExistsByID(ctx context.Context, id uuid.UUID) (bool, error)

	// ListByOwner returns a page ordered by creation time, newest first.
	// It fetches limit+1 rows so callers can detect another page.
	ListByOwner(ctx context.Context, scope ReceiptScope, cursor *pagination.Cursor, limit int) ([]entity.Receipt, error)

	// ListSince returns receipts updated strictly after watermark, deleted included
	ListSince(ctx context.Context, ownerID uuid.UUID, watermark time.Time) ([]entity.Receipt, error)

	// NumberTaken reports whether the business already uses number on a receipt other than excludeID
	NumberTaken(ctx context.Context, businessID uuid.UUID, number string, excludeID uuid.UUID) (bool, error)

	// LatestNumber returns the receipt number of the newest receipt of the business
	LatestNumber(ctx context.Context, businessID uuid.UUID) (string, error)

	// Create inserts the receipt fields without items
	Create(ctx context.Context, receipt *entity.Receipt) error

	// Update saves every field of the receipt without items
	Update(ctx context.Context, receipt *entity.Receipt) error

	// ReplaceItems deletes all items of the receipt then inserts items in order
	ReplaceItems(ctx context.Context, receiptID uuid.UUID, items []entity.ReceiptItem) error

	// CountByStatus counts the owner's receipts per sync status, deleted included
	CountByStatus(ctx context.Context, ownerID uuid.UUID) (StatusCounts, error)

	// LastUpdatedAt returns the newest updated_at among the owner's receipts
	LastUpdatedAt(ctx context.Context, ownerID uuid.UUID) (*time.Time, error)
}
