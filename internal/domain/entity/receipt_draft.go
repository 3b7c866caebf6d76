package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sangkips/receipts-api/internal/domain/enum"
	"github.com/sangkips/receipts-api/pkg/money"
)

// ReceiptItemInput is a submitted line item. Total is derived from quantity
// and unit price when not supplied.
type ReceiptItemInput struct {
	Description string           `json:"description" validate:"required,max=255"`
	Quantity    decimal.Decimal  `json:"quantity"`
	UnitPrice   decimal.Decimal  `json:"unit_price"`
	Total       *decimal.Decimal `json:"total"`
}

// ReceiptPatch carries the fields a client submitted. Nil means "not sent".
type ReceiptPatch struct {
	TemplateID    *uuid.UUID
	ClearTemplate bool
	ReceiptNumber *string
	ReceiptDate   *time.Time
	CustomerName  *string
	CustomerPhone *string
	CustomerEmail *string
	Subtotal      *decimal.Decimal
	TaxRate       *decimal.Decimal
	TaxAmount     *decimal.Decimal
	Discount      *decimal.Decimal
	GrandTotal    *decimal.Decimal
	Notes         *string
	IsPaid        *bool
	Items         *[]ReceiptItemInput
}

// ReceiptDraft is the merged view validated before a write: the submitted
// fields overlaid on a snapshot of the stored receipt, if any.
type ReceiptDraft struct {
	ID            uuid.UUID          `json:"id"`
	BusinessID    uuid.UUID          `json:"business"`
	TemplateID    *uuid.UUID         `json:"template"`
	ReceiptNumber string             `json:"receipt_number" validate:"required,max=50"`
	ReceiptDate   *time.Time         `json:"receipt_date"`
	CustomerName  string             `json:"customer_name" validate:"required,max=255"`
	CustomerPhone string             `json:"customer_phone" validate:"omitempty,max=20"`
	CustomerEmail string             `json:"customer_email" validate:"omitempty,email,max=254"`
	Subtotal      *decimal.Decimal   `json:"subtotal"`
	TaxRate       *decimal.Decimal   `json:"tax_rate"`
	TaxAmount     *decimal.Decimal   `json:"tax_amount"`
	Discount      *decimal.Decimal   `json:"discount"`
	GrandTotal    *decimal.Decimal   `json:"grand_total"`
	Notes         string             `json:"notes"`
	IsPaid        bool               `json:"is_paid"`
	Items         []ReceiptItemInput `json:"items" validate:"dive"`

	// Existing is the stored receipt the draft updates; nil for a create.
	Existing *Receipt `json:"-"`
}

// MergeReceipt overlays patch on existing. For a create existing is nil and
// the draft holds only what was submitted. Items absent from the patch keep
// the stored collection.
func MergeReceipt(existing *Receipt, id, businessID uuid.UUID, patch ReceiptPatch) ReceiptDraft {
	draft := ReceiptDraft{ID: id, BusinessID: businessID}

	if existing != nil {
		snapshot := *existing
		draft.Existing = &snapshot
		draft.ID = existing.ID
		draft.BusinessID = existing.BusinessID
		draft.TemplateID = existing.TemplateID
		draft.ReceiptNumber = existing.ReceiptNumber
		receiptDate := existing.ReceiptDate
		draft.ReceiptDate = &receiptDate
		draft.CustomerName = existing.CustomerName
		draft.CustomerPhone = existing.CustomerPhone
		draft.CustomerEmail = existing.CustomerEmail
		draft.Subtotal = decimalPtr(existing.Subtotal)
		draft.TaxRate = decimalPtr(existing.TaxRate)
		draft.TaxAmount = decimalPtr(existing.TaxAmount)
		draft.Discount = decimalPtr(existing.Discount)
		draft.GrandTotal = decimalPtr(existing.GrandTotal)
		draft.Notes = existing.Notes
		draft.IsPaid = existing.IsPaid
		draft.Items = ItemInputs(existing.Items)
	}

	if patch.ClearTemplate {
		draft.TemplateID = nil
	} else if patch.TemplateID != nil {
		templateID := *patch.TemplateID
		draft.TemplateID = &templateID
	}
	setString(&draft.ReceiptNumber, patch.ReceiptNumber)
	if patch.ReceiptDate != nil {
		receiptDate := patch.ReceiptDate.UTC()
		draft.ReceiptDate = &receiptDate
	}
	setString(&draft.CustomerName, patch.CustomerName)
	setString(&draft.CustomerPhone, patch.CustomerPhone)
	setString(&draft.CustomerEmail, patch.CustomerEmail)
	setDecimal(&draft.Subtotal, patch.Subtotal)
	setDecimal(&draft.TaxRate, patch.TaxRate)
	if patch.TaxAmount == nil && (patch.TaxRate != nil || patch.Subtotal != nil || patch.Items != nil) {
		// stale once its inputs change; Build recomputes it
		draft.TaxAmount = nil
	}
	setDecimal(&draft.TaxAmount, patch.TaxAmount)
	setDecimal(&draft.Discount, patch.Discount)
	setDecimal(&draft.GrandTotal, patch.GrandTotal)
	setString(&draft.Notes, patch.Notes)
	if patch.IsPaid != nil {
		draft.IsPaid = *patch.IsPaid
	}
	if patch.Items != nil {
		draft.Items = append([]ReceiptItemInput(nil), (*patch.Items)...)
	}
	return draft
}

// LineItems returns the quantity/price pairs used by the totals calculator
func (d ReceiptDraft) LineItems() []money.LineItem {
	items := make([]money.LineItem, len(d.Items))
	for i, item := range d.Items {
		items[i] = money.LineItem{Quantity: item.Quantity, UnitPrice: item.UnitPrice}
	}
	return items
}

// Build materializes the draft into a receipt. Stored metadata (creation
// time, sync state, server id, payment and deletion timestamps) carries over
// from the existing receipt. A missing tax amount is computed from the rate.
func (d ReceiptDraft) Build(now time.Time) Receipt {
	r := Receipt{
		ID:            d.ID,
		BusinessID:    d.BusinessID,
		TemplateID:    d.TemplateID,
		ReceiptNumber: d.ReceiptNumber,
		CustomerName:  d.CustomerName,
		CustomerPhone: d.CustomerPhone,
		CustomerEmail: d.CustomerEmail,
		Subtotal:      valueOrZero(d.Subtotal),
		TaxRate:       valueOrZero(d.TaxRate),
		Discount:      valueOrZero(d.Discount),
		GrandTotal:    valueOrZero(d.GrandTotal),
		Notes:         d.Notes,
		IsPaid:        d.IsPaid,
		SyncStatus:    enum.SyncStatusPending,
	}
	if d.ReceiptDate != nil {
		r.ReceiptDate = *d.ReceiptDate
	}
	if d.TaxAmount != nil {
		r.TaxAmount = *d.TaxAmount
	} else {
		r.TaxAmount = money.CalculateTotals(d.LineItems(), true, r.TaxRate, r.Discount).TaxAmount
	}

	if d.Existing != nil {
		r.CreatedAt = d.Existing.CreatedAt
		r.SyncStatus = d.Existing.SyncStatus
		r.ServerID = d.Existing.ServerID
		r.PaidAt = d.Existing.PaidAt
		r.DeletedAt = d.Existing.DeletedAt
	}
	if r.IsPaid && r.PaidAt == nil {
		paidAt := now
		r.PaidAt = &paidAt
	}
	if !r.IsPaid {
		r.PaidAt = nil
	}

	r.Items = BuildItems(r.ID, d.Items)
	return r
}

// BuildItems turns submitted items into rows in submitted order
func BuildItems(receiptID uuid.UUID, inputs []ReceiptItemInput) []ReceiptItem {
	items := make([]ReceiptItem, len(inputs))
	for i, in := range inputs {
		total := money.Round(in.Quantity.Mul(in.UnitPrice))
		if in.Total != nil {
			total = *in.Total
		}
		items[i] = ReceiptItem{
			ReceiptID:   receiptID,
			Description: in.Description,
			Quantity:    in.Quantity,
			UnitPrice:   in.UnitPrice,
			Total:       total,
			Order:       i,
		}
	}
	return items
}

// ItemInputs converts stored items back into inputs
func ItemInputs(items []ReceiptItem) []ReceiptItemInput {
	inputs := make([]ReceiptItemInput, len(items))
	for i, item := range items {
		inputs[i] = ReceiptItemInput{
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Total:       decimalPtr(item.Total),
		}
	}
	return inputs
}

func decimalPtr(d decimal.Decimal) *decimal.Decimal {
	return &d
}

func setDecimal(dst **decimal.Decimal, src *decimal.Decimal) {
	if src != nil {
		v := *src
		*dst = &v
	}
}

func valueOrZero(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}
