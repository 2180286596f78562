package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/salonflow/platform/internal/application"
	"github.com/salonflow/platform/pkg/auth"
	"github.com/salonflow/platform/pkg/middleware"
	"github.com/salonflow/platform/pkg/response"
)

// AdminHandler handles staff dashboard requests.
type AdminHandler struct {
	paymentService *application.PaymentService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(paymentService *application.PaymentService) *AdminHandler {
	return &AdminHandler{paymentService: paymentService}
}

// RegisterRoutes registers admin routes.
func (h *AdminHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	admin := r.Group("/admin")
	admin.Use(
		middleware.AuthMiddleware(jwtManager),
		middleware.RequireRole(auth.RoleBranchManager, auth.RoleAdmin),
	)
	{
		admin.GET("/payments", h.ListPayments)
		admin.GET("/stats/payments", h.PaymentStats)
	}
}

// ListPayments handles GET /api/v1/admin/payments.
func (h *AdminHandler) ListPayments(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	payments, total, err := h.paymentService.ListAllPayments(c.Request.Context(), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, payments, total, page, limit)
}

// PaymentStats handles GET /api/v1/admin/stats/payments.
func (h *AdminHandler) PaymentStats(c *gin.Context) {
	stats, err := h.paymentService.GetPaymentStats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, stats)
}
