package request

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sangkips/receipts-api/internal/domain/entity"
)

// timestampLayouts are tried in order; layouts without a zone are UTC
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp accepts RFC 3339 or a naive date-time, which is read as UTC
func ParseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", value)
}

// Timestamp is a JSON time accepting the layouts of ParseTimestamp
type Timestamp struct {
	time.Time
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return errors.New("timestamp must be a string")
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}

// OptionalUUID tells an absent key apart from an explicit null
type OptionalUUID struct {
	Set   bool
	Value *uuid.UUID
}

func (o *OptionalUUID) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Value = nil
		return nil
	}
	var id uuid.UUID
	if err := json.Unmarshal(data, &id); err != nil {
		return err
	}
	o.Value = &id
	return nil
}

// ReceiptItemPayload is one submitted line item
type ReceiptItemPayload struct {
	Description string           `json:"description"`
	Quantity    decimal.Decimal  `json:"quantity"`
	UnitPrice   decimal.Decimal  `json:"unit_price"`
	Total       *decimal.Decimal `json:"total"`
}

// ReceiptPayload is a receipt as submitted by a client. Every field is
// optional so the same shape serves creates, partial updates and sync.
type ReceiptPayload struct {
	ID            *uuid.UUID            `json:"id"`
	Template      OptionalUUID          `json:"template"`
	ReceiptNumber *string               `json:"receipt_number"`
	ReceiptDate   *Timestamp            `json:"receipt_date"`
	CustomerName  *string               `json:"customer_name"`
	CustomerPhone *string               `json:"customer_phone"`
	CustomerEmail *string               `json:"customer_email"`
	Subtotal      *decimal.Decimal      `json:"subtotal"`
	TaxRate       *decimal.Decimal      `json:"tax_rate"`
	TaxAmount     *decimal.Decimal      `json:"tax_amount"`
	Discount      *decimal.Decimal      `json:"discount"`
	GrandTotal    *decimal.Decimal      `json:"grand_total"`
	Notes         *string               `json:"notes"`
	IsPaid        *bool                 `json:"is_paid"`
	Items         *[]ReceiptItemPayload `json:"items"`
}

// ReceiptID returns the submitted id, or uuid.Nil
func (p ReceiptPayload) ReceiptID() uuid.UUID {
	if p.ID == nil {
		return uuid.Nil
	}
	return *p.ID
}

// Patch converts the payload into the fields submitted
func (p ReceiptPayload) Patch() entity.ReceiptPatch {
	patch := entity.ReceiptPatch{
		ReceiptNumber: trimmed(p.ReceiptNumber),
		CustomerName:  trimmed(p.CustomerName),
		CustomerPhone: trimmed(p.CustomerPhone),
		CustomerEmail: trimmed(p.CustomerEmail),
		Subtotal:      p.Subtotal,
		TaxRate:       p.TaxRate,
		TaxAmount:     p.TaxAmount,
		Discount:      p.Discount,
		GrandTotal:    p.GrandTotal,
		Notes:         p.Notes,
		IsPaid:        p.IsPaid,
	}
	if p.Template.Set {
		patch.TemplateID = p.Template.Value
		patch.ClearTemplate = p.Template.Value == nil
	}
	if p.ReceiptDate != nil {
		date := p.ReceiptDate.Time
		patch.ReceiptDate = &date
	}
	if p.Items != nil {
		items := make([]entity.ReceiptItemInput, len(*p.Items))
		for i, item := range *p.Items {
			items[i] = entity.ReceiptItemInput{
				Description: strings.TrimSpace(item.Description),
				Quantity:    item.Quantity,
				UnitPrice:   item.UnitPrice,
				Total:       item.Total,
			}
		}
		patch.Items = &items
	}
	return patch
}

// PeekID extracts a receipt id from a record that failed to decode, so the
// failure can still be reported against it
func PeekID(raw json.RawMessage) uuid.UUID {
	var probe struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return uuid.Nil
	}
	id, err := uuid.Parse(probe.ID)
	if err != nil {
		return uuid.Nil
	}
	return id
}

// SyncStatusRequest is an explicit sync-status transition
type SyncStatusRequest struct {
	SyncStatus string `json:"sync_status" binding:"required"`
	ServerID   *int64 `json:"server_id" binding:"omitempty,min=1"`
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
