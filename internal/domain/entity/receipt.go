package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/sangkips/receipts-api/internal/domain/enum"
	"github.com/sangkips/receipts-api/pkg/apperror"
)

// Receipt is the aggregate root of the sync protocol. Its ID is assigned by
// the client and doubles as the sync idempotency key.
type Receipt struct {
	ID            uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	BusinessID    uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_receipts_business_receipt_number,priority:1" json:"business_id"`
	TemplateID    *uuid.UUID      `gorm:"type:uuid;index" json:"template_id"`
	ReceiptNumber string          `gorm:"size:50;not null;uniqueIndex:idx_receipts_business_receipt_number,priority:2" json:"receipt_number"`
	ReceiptDate   time.Time       `gorm:"not null;index" json:"receipt_date"`
	CustomerName  string          `gorm:"size:255;not null" json:"customer_name"`
	CustomerPhone string          `gorm:"size:20" json:"customer_phone"`
	CustomerEmail string          `gorm:"size:254" json:"customer_email"`
	Subtotal      decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"subtotal"`
	TaxRate       decimal.Decimal `gorm:"type:numeric(5,4);not null" json:"tax_rate"`
	TaxAmount     decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"tax_amount"`
	Discount      decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"discount"`
	GrandTotal    decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"grand_total"`
	Notes         string          `gorm:"type:text" json:"notes"`
	IsPaid        bool            `gorm:"not null" json:"is_paid"`
	PaidAt        *time.Time      `json:"paid_at"`
	SyncStatus    enum.SyncStatus `gorm:"size:20;not null;index" json:"sync_status"`
	ServerID      *int64          `gorm:"uniqueIndex" json:"server_id"`
	CreatedAt     time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"index" json:"updated_at"`
	DeletedAt     *time.Time      `gorm:"index" json:"deleted_at"`

	// Relationships
	Business *Business     `gorm:"foreignKey:BusinessID;constraint:OnDelete:CASCADE" json:"-"`
	Template *Template     `gorm:"foreignKey:TemplateID;constraint:OnDelete:SET NULL" json:"-"`
	Items    []ReceiptItem `gorm:"foreignKey:ReceiptID;constraint:OnDelete:CASCADE" json:"items"`
}

// BeforeCreate fills the id when the client did not supply one
func (r *Receipt) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.SyncStatus == "" {
		r.SyncStatus = enum.SyncStatusPending
	}
	return nil
}

// TableName returns the table name for the Receipt model
func (Receipt) TableName() string {
	return "receipts"
}

// ReceiptItem is a line on a receipt. Items have no identity outside their
// receipt and are replaced as a whole on every write.
type ReceiptItem struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	ReceiptID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"receipt_id"`
	Description string          `gorm:"size:255;not null" json:"description"`
	Quantity    decimal.Decimal `gorm:"type:numeric(10,3);not null" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"unit_price"`
	Total       decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total"`
	Order       int             `gorm:"column:order;not null" json:"order"`
}

// BeforeCreate generates a UUID before creating a new item
func (i *ReceiptItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// TableName returns the table name for the ReceiptItem model
func (ReceiptItem) TableName() string {
	return "receipt_items"
}

// IsDeleted reports whether the receipt was soft-deleted
func (r Receipt) IsDeleted() bool {
	return r.DeletedAt != nil
}

// MarkAsPaid returns the receipt flagged as paid at now
func (r Receipt) MarkAsPaid(now time.Time) Receipt {
	next := r
	next.IsPaid = true
	paidAt := now
	next.PaidAt = &paidAt
	next.UpdatedAt = now
	return next
}

// SoftDelete returns the receipt marked deleted at now. Deleted is terminal.
func (r Receipt) SoftDelete(now time.Time) (Receipt, error) {
	if r.IsDeleted() || r.SyncStatus == enum.SyncStatusDeleted {
		return r, apperror.NewValidationError("Receipt is already deleted", apperror.FieldError{
			Field:   "sync_status",
			Message: "deleted receipts cannot change",
		})
	}
	next := r
	deletedAt := now
	next.DeletedAt = &deletedAt
	next.SyncStatus = enum.SyncStatusDeleted
	next.UpdatedAt = now
	return next, nil
}

// TransitionTo moves the receipt to status following the sync state machine.
// Entering synced requires a server id, either already stored or submitted.
func (r Receipt) TransitionTo(status enum.SyncStatus, serverID *int64) (Receipt, error) {
	if err := checkTransition(r.SyncStatus, status, r.ServerID, serverID); err != nil {
		return r, err
	}
	next := r
	if serverID != nil {
		id := *serverID
		next.ServerID = &id
	}
	next.SyncStatus = status
	return next, nil
}

// Acknowledge marks the receipt synced after a client round trip. It does not
// require a server id but still refuses to revive a deleted receipt.
func (r Receipt) Acknowledge() (Receipt, error) {
	if r.IsDeleted() || r.SyncStatus.IsTerminal() {
		return r, apperror.NewValidationError("Receipt is deleted", apperror.FieldError{
			Field:   "sync_status",
			Message: "deleted receipts cannot be synced",
		})
	}
	next := r
	next.SyncStatus = enum.SyncStatusSynced
	return next, nil
}

// DemoteIfEdited returns r demoted to pending when prev was synced and any
// field mirrored by the external authority differs between the two.
func (r Receipt) DemoteIfEdited(prev Receipt) Receipt {
	if prev.SyncStatus != enum.SyncStatusSynced || !prev.trackedFieldsDiffer(r) {
		return r
	}
	next := r
	next.SyncStatus = enum.SyncStatusPending
	return next
}

func (r Receipt) trackedFieldsDiffer(o Receipt) bool {
	return r.ReceiptNumber != o.ReceiptNumber ||
		!r.ReceiptDate.Equal(o.ReceiptDate) ||
		r.CustomerName != o.CustomerName ||
		r.CustomerPhone != o.CustomerPhone ||
		r.CustomerEmail != o.CustomerEmail ||
		!r.Subtotal.Equal(o.Subtotal) ||
		!r.TaxRate.Equal(o.TaxRate) ||
		!r.TaxAmount.Equal(o.TaxAmount) ||
		!r.Discount.Equal(o.Discount) ||
		!r.GrandTotal.Equal(o.GrandTotal)
}
