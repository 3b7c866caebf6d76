package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/sangkips/receipts-api/internal/application/service"
	"github.com/sangkips/receipts-api/internal/presentation/http/dto/request"
	"github.com/sangkips/receipts-api/internal/presentation/http/dto/response"
)

// TemplateHandler handles receipt template HTTP requests
type TemplateHandler struct {
	templateService *service.TemplateService
}

// NewTemplateHandler creates a new template handler
func NewTemplateHandler(templateService *service.TemplateService) *TemplateHandler {
	return &TemplateHandler{templateService: templateService}
}

// List returns system templates and the caller's own
func (h *TemplateHandler) List(c *gin.Context) {
	p, ok := mustPrincipal(c)
	if !ok {
		return
	}

	templates, err := h.templateService.List(c.Request.Context(), p)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Templates retrieved successfully", templates)
}

// Create adds a user template
func (h *TemplateHandler) Create(c *gin.Context) {
	p, ok := mustPrincipal(c)
	if !ok {
		return
	}
	var req request.CreateTemplateRequest
	if !bindJSON(c, &req) {
		return
	}

	template, err := h.templateService.Create(c.Request.Context(), p, service.CreateTemplateInput{
		Name:         req.Name,
		Description:  req.Description,
		PreviewImage: req.PreviewImage,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, "Template created successfully", template)
}

// Delete removes a caller-owned template
func (h *TemplateHandler) Delete(c *gin.Context) {
	p, ok := mustPrincipal(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.templateService.Delete(c.Request.Context(), p, id); err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "Template deleted successfully", nil)
}
