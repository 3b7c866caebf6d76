package service

import (
	"github.com/google/uuid"

	"github.com/sangkips/receipts-api/internal/domain/repository"
)

// Principal is the authenticated caller of a service operation
type Principal struct {
	UserID  uuid.UUID
	IsStaff bool
}

// readScope lets staff see every owner's receipts. Soft-deleted rows stay hidden.
func (p Principal) readScope() repository.ReceiptScope {
	return repository.ReceiptScope{OwnerID: p.UserID, AllOwners: p.IsStaff}
}

// writeScope is always limited to the caller's own receipts
func (p Principal) writeScope() repository.ReceiptScope {
	return repository.OwnerScope(p.UserID)
}
