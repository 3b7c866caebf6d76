package repository

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domainRepo "github.com/sangkips/receipts-api/internal/domain/repository"
)

// ReceiptScope returns a GORM scope that applies the owner and soft-delete
// filters of scope to a receipts query.
// A zero owner without AllOwners matches nothing.
func ReceiptScope(scope domainRepo.ReceiptScope) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if !scope.AllOwners {
			if scope.OwnerID == uuid.Nil {
				// Fail-safe: no owner means no rows
				return db.Where("1 = 0")
			}
			db = OwnedBy(scope.OwnerID)(db)
		}
		if !scope.IncludeDeleted {
			db = db.Where("receipts.deleted_at IS NULL")
		}
		return db
	}
}

// OwnedBy restricts receipts to those whose business belongs to ownerID
func OwnedBy(ownerID uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		owned := db.Session(&gorm.Session{NewDB: true}).
			Table("businesses").
			Select("id").
			Where("owner_id = ?", ownerID)
		return db.Where("receipts.business_id IN (?)", owned)
	}
}

// orderedItems preloads items in display order
func orderedItems(db *gorm.DB) *gorm.DB {
	return db.Order(clause.OrderByColumn{Column: clause.Column{Name: "order"}}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}})
}
