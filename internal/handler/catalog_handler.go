package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/salonflow/platform/internal/application"
	"github.com/salonflow/platform/pkg/response"
)

// CatalogHandler serves the public catalog reads backing the booking UI.
type CatalogHandler struct {
	service *application.CatalogService
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(service *application.CatalogService) *CatalogHandler {
	return &CatalogHandler{service: service}
}

// RegisterRoutes registers catalog routes. They are public reads.
func (h *CatalogHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/branches", h.ListBranches)
	r.GET("/branches/:id/stylists", h.ListStylists)
	r.GET("/services", h.ListServices)
}

// ListBranches handles GET /api/v1/branches.
func (h *CatalogHandler) ListBranches(c *gin.Context) {
	branches, err := h.service.ListBranches(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, branches)
}

// ListStylists handles GET /api/v1/branches/:id/stylists.
func (h *CatalogHandler) ListStylists(c *gin.Context) {
	branchID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid branch ID")
		return
	}

	stylists, err := h.service.ListStylists(c.Request.Context(), branchID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, stylists)
}

// ListServices handles GET /api/v1/services.
func (h *CatalogHandler) ListServices(c *gin.Context) {
	services, err := h.service.ListServices(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, services)
}
