package handler

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sangkips/receipts-api/internal/application/service"
	"github.com/sangkips/receipts-api/internal/domain/enum"
	"github.com/sangkips/receipts-api/internal/presentation/http/dto/request"
	"github.com/sangkips/receipts-api/internal/presentation/http/dto/response"
	"github.com/sangkips/receipts-api/pkg/apperror"
	"github.com/sangkips/receipts-api/pkg/pagination"
)

// ReceiptHandler handles receipt and sync HTTP requests
type ReceiptHandler struct {
	receiptService *service.ReceiptService
}

// NewReceiptHandler creates a new receipt handler
func NewReceiptHandler(receiptService *service.ReceiptService) *ReceiptHandler {
	return &ReceiptHandler{receiptService: receiptService}
}

// List handles listing receipts, newest first, with cursor pagination
func (h *ReceiptHandler) List(c *gin.Context) {
	p, ok := mustPrincipal(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(pagination.DefaultCursorLimit)))
	params := pagination.CursorParams{Cursor: c.Query("cursor"), Limit: limit}

	receipts, page, err := h.receiptService.List(c.Request.Context(), p, params)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithCursor(c, "Receipts retrieved successfully", response.NewReceiptList(receipts), page)
}

// Get handles fetching one receipt with its items
func (h *ReceiptHandler) Get(c *gin.Context) {
	p, ok := mustPrincipal(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	receipt, err := h.receiptService.Get(c.Request.Context(), p, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Receipt retrieved successfully", response.NewReceiptDetailResponse(receipt))
}

// Create handles a direct receipt submission
func (h *ReceiptHandler) Create(c *gin.Context) {
	p, ok := mustPrincipal(c)
	if !ok {
		return
	}
	var payload request.ReceiptPayload
	if !bindJSON(c, &payload) {
		return
	}

	receipt, err := h.receiptService.Create(c.Request.Context(), p, payload.ReceiptID(), payload.Patch())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Receipt created successfully", response.NewReceiptDetailResponse(receipt))
}

// Update handles a partial receipt edit
func (h *ReceiptHandler) Update(c *gin.Context) {
	p, ok := mustPrincipal(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var payload request.ReceiptPayload
	if !bindJSON(c, &payload) {
		return
	}

	receipt, err := h.receiptService.Update(c.Request.Context(), p, id, payload.Patch())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Receipt updated successfully", response.NewReceiptDetailResponse(receipt))
}

// Delete soft-deletes a receipt
func (h *ReceiptHandler) Delete(c *gin.Context) {
	p, ok := mustPrincipal(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.receiptService.SoftDelete(c.Request.Context(), p, id); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Receipt deleted successfully", gin.H{"status": "Receipt marked as deleted"})
}

// MarkPaid flags a receipt as paid
func (h *ReceiptHandler) MarkPaid(c *gin.Context) {
	p, ok := mustPrincipal(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	receipt, err := h.receiptService.MarkPaid(c.Request.Context(), p, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Receipt marked as paid", response.NewReceiptDetailResponse(receipt))
}

// SyncStatus moves a receipt through the sync state machine
func (h *ReceiptHandler) SyncStatus(c *gin.Context) {
	p, ok := mustPrincipal(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req request.SyncStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	receipt, err := h.receiptService.TransitionSyncStatus(c.Request.Context(), p, id, enum.SyncStatus(req.SyncStatus), req.ServerID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Sync status updated", response.NewReceiptDetailResponse(receipt))
}

// BulkSync upserts a batch of client receipts. Records that cannot be decoded
// are reported like any other per-record failure.
func (h *ReceiptHandler) BulkSync(c *gin.Context) {
	p, ok := mustPrincipal(c)
	if !ok {
		return
	}

	body, err := c.GetRawData()
	if err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}
	var raws []json.RawMessage
	if err := json.Unmarshal(body, &raws); err != nil || raws == nil {
		response.BadRequest(c, "Expected a list of receipts")
		return
	}

	records := make([]service.SyncRecord, len(raws))
	for i, raw := range raws {
		var payload request.ReceiptPayload
		if err := json.Unmarshal(raw, &payload); err != nil {
			records[i] = service.SyncRecord{
				ID:  request.PeekID(raw),
				Err: apperror.NewValidationError("Invalid receipt payload: " + err.Error()),
			}
			continue
		}
		records[i] = service.SyncRecord{ID: payload.ReceiptID(), Patch: payload.Patch()}
	}

	report, err := h.receiptService.BulkSync(c.Request.Context(), p, records)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Sync completed", report)
}

// Changes lists receipts updated after last_sync, deletions included
func (h *ReceiptHandler) Changes(c *gin.Context) {
	p, ok := mustPrincipal(c)
	if !ok {
		return
	}

	var since *time.Time
	if raw := c.Query("last_sync"); raw != "" {
		parsed, err := request.ParseTimestamp(raw)
		if err != nil {
			response.Error(c, apperror.NewValidationError("Invalid last_sync timestamp", apperror.FieldError{
				Field:    "last_sync",
				Message:  "must be an ISO-8601 timestamp",
				Received: raw,
			}))
			return
		}
		since = &parsed
	}

	receipts, err := h.receiptService.Changes(c.Request.Context(), p, since)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Changes retrieved successfully", response.NewReceiptDetailList(receipts))
}

// Summary reports sync counts for the caller
func (h *ReceiptHandler) Summary(c *gin.Context) {
	p, ok := mustPrincipal(c)
	if !ok {
		return
	}

	summary, err := h.receiptService.Summary(c.Request.Context(), p)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Sync summary retrieved successfully", summary)
}

// NextNumber suggests the next receipt number for the caller's business
func (h *ReceiptHandler) NextNumber(c *gin.Context) {
	p, ok := mustPrincipal(c)
	if !ok {
		return
	}

	number, err := h.receiptService.NextNumber(c.Request.Context(), p)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Next receipt number", gin.H{"receipt_number": number})
}
