package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sangkips/receipts-api/internal/application/service"
	"github.com/sangkips/receipts-api/internal/domain/enum"
	"github.com/sangkips/receipts-api/internal/presentation/http/dto/request"
	"github.com/sangkips/receipts-api/internal/presentation/http/dto/response"
	"github.com/sangkips/receipts-api/pkg/pagination"
)

// BusinessHandler handles business profile HTTP requests
type BusinessHandler struct {
	businessService *service.BusinessService
}

// NewBusinessHandler creates a new business handler
func NewBusinessHandler(businessService *service.BusinessService) *BusinessHandler {
	return &BusinessHandler{businessService: businessService}
}

// GetMine returns the caller's business
func (h *BusinessHandler) GetMine(c *gin.Context) {
	p, ok := mustPrincipal(c)
	if !ok {
		return
	}

	business, err := h.businessService.Get(c.Request.Context(), p)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Business retrieved successfully", response.NewBusinessResponse(business))
}

// CreateMine creates the caller's business
func (h *BusinessHandler) CreateMine(c *gin.Context) {
	p, ok := mustPrincipal(c)
	if !ok {
		return
	}
	var req request.BusinessRequest
	if !bindJSON(c, &req) {
		return
	}

	business, err := h.businessService.Create(c.Request.Context(), p, req.Patch())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Business created successfully", response.NewBusinessResponse(business))
}

// UpdateMine applies a partial update to the caller's business
func (h *BusinessHandler) UpdateMine(c *gin.Context) {
	p, ok := mustPrincipal(c)
	if !ok {
		return
	}
	var req request.BusinessRequest
	if !bindJSON(c, &req) {
		return
	}

	business, err := h.businessService.Update(c.Request.Context(), p, req.Patch())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Business updated successfully", response.NewBusinessResponse(business))
}

// List returns the caller's business, or every business for staff
func (h *BusinessHandler) List(c *gin.Context) {
	p, ok := mustPrincipal(c)
	if !ok {
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "15"))
	params := &pagination.PaginationParams{Page: page, PerPage: perPage}

	businesses, pages, err := h.businessService.List(c.Request.Context(), p, params)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]response.BusinessResponse, len(businesses))
	for i := range businesses {
		items[i] = response.NewBusinessResponse(&businesses[i])
	}
	response.SuccessWithPagination(c, 200, "Businesses retrieved successfully",
		pagination.NewPaginatedResult(items, pages))
}

// SyncStatus moves a business through the sync state machine
func (h *BusinessHandler) SyncStatus(c *gin.Context) {
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

	business, err := h.businessService.TransitionSyncStatus(c.Request.Context(), p, id, enum.SyncStatus(req.SyncStatus), req.ServerID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Sync status updated", response.NewBusinessResponse(business))
}
