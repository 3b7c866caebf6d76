package response

import (
	"time"

	"github.com/google/uuid"

	"github.com/sangkips/receipts-api/internal/domain/entity"
	"github.com/sangkips/receipts-api/internal/domain/enum"
)

// ReceiptResponse is the list shape of a receipt. Decimals are rendered as
// strings at their stored precision.
type ReceiptResponse struct {
	ID            uuid.UUID       `json:"id"`
	BusinessID    uuid.UUID       `json:"business"`
	TemplateID    *uuid.UUID      `json:"template"`
	ReceiptNumber string          `json:"receipt_number"`
	ReceiptDate   time.Time       `json:"receipt_date"`
	CustomerName  string          `json:"customer_name"`
	CustomerPhone string          `json:"customer_phone"`
	CustomerEmail string          `json:"customer_email"`
	Subtotal      string          `json:"subtotal"`
	TaxRate       string          `json:"tax_rate"`
	TaxAmount     string          `json:"tax_amount"`
	Discount      string          `json:"discount"`
	GrandTotal    string          `json:"grand_total"`
	Notes         string          `json:"notes"`
	IsPaid        bool            `json:"is_paid"`
	PaidAt        *time.Time      `json:"paid_at"`
	SyncStatus    enum.SyncStatus `json:"sync_status"`
	ServerID      *int64          `json:"server_id"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	DeletedAt     *time.Time      `json:"deleted_at"`
}

// ReceiptDetailResponse adds the line items
type ReceiptDetailResponse struct {
	ReceiptResponse
	Items []ReceiptItemResponse `json:"items"`
}

// ReceiptItemResponse is one line of a receipt
type ReceiptItemResponse struct {
	ID          uuid.UUID `json:"id"`
	Description string    `json:"description"`
	Quantity    string    `json:"quantity"`
	UnitPrice   string    `json:"unit_price"`
	Total       string    `json:"total"`
	Order       int       `json:"order"`
}

// NewReceiptResponse converts a receipt to its list shape
func NewReceiptResponse(r *entity.Receipt) ReceiptResponse {
	return ReceiptResponse{
		ID:            r.ID,
		BusinessID:    r.BusinessID,
		TemplateID:    r.TemplateID,
		ReceiptNumber: r.ReceiptNumber,
		ReceiptDate:   r.ReceiptDate.UTC(),
		CustomerName:  r.CustomerName,
		CustomerPhone: r.CustomerPhone,
		CustomerEmail: r.CustomerEmail,
		Subtotal:      r.Subtotal.StringFixed(2),
		TaxRate:       r.TaxRate.StringFixed(4),
		TaxAmount:     r.TaxAmount.StringFixed(2),
		Discount:      r.Discount.StringFixed(2),
		GrandTotal:    r.GrandTotal.StringFixed(2),
		Notes:         r.Notes,
		IsPaid:        r.IsPaid,
		PaidAt:        r.PaidAt,
		SyncStatus:    r.SyncStatus,
		ServerID:      r.ServerID,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
		DeletedAt:     r.DeletedAt,
	}
}

// NewReceiptDetailResponse converts a receipt and its items
func NewReceiptDetailResponse(r *entity.Receipt) ReceiptDetailResponse {
	items := make([]ReceiptItemResponse, len(r.Items))
	for i, item := range r.Items {
		items[i] = ReceiptItemResponse{
			ID:          item.ID,
			Description: item.Description,
			Quantity:    item.Quantity.StringFixed(3),
			UnitPrice:   item.UnitPrice.StringFixed(2),
			Total:       item.Total.StringFixed(2),
			Order:       item.Order,
		}
	}
	return ReceiptDetailResponse{
		ReceiptResponse: NewReceiptResponse(r),
		Items:           items,
	}
}

// NewReceiptList converts a page of receipts
func NewReceiptList(receipts []entity.Receipt) []ReceiptResponse {
	out := make([]ReceiptResponse, len(receipts))
	for i := range receipts {
		out[i] = NewReceiptResponse(&receipts[i])
	}
	return out
}

// NewReceiptDetailList converts receipts with their items
func NewReceiptDetailList(receipts []entity.Receipt) []ReceiptDetailResponse {
	out := make([]ReceiptDetailResponse, len(receipts))
	for i := range receipts {
		out[i] = NewReceiptDetailResponse(&receipts[i])
	}
	return out
}
