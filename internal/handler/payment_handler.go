package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/salonflow/platform/internal/adapter"
	"github.com/salonflow/platform/internal/application"
	"github.com/salonflow/platform/internal/domain/payment"
	"github.com/salonflow/platform/pkg/auth"
	"github.com/salonflow/platform/pkg/middleware"
	"github.com/salonflow/platform/pkg/response"
)

// PaymentHandler handles HTTP requests for payment operations, including the
// inbound provider callbacks.
type PaymentHandler struct {
	service    *application.PaymentService
	reconciler *application.CallbackReconciler
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(service *application.PaymentService, reconciler *application.CallbackReconciler) *PaymentHandler {
	return &PaymentHandler{service: service, reconciler: reconciler}
}

// RegisterRoutes registers all payment routes on the given router group.
// Provider callbacks are unauthenticated; their signatures are the auth.
func (h *PaymentHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	payments := r.Group("/payments")

	payments.POST("/stripe/webhook", h.StripeWebhook)
	payments.GET("/vnpay/callback", h.VNPayCallback)

	authed := payments.Group("")
	authed.Use(middleware.AuthMiddleware(jwtManager))
	{
		authed.POST("", middleware.RequireRole(auth.RoleCustomer), h.CreatePayment)
		authed.GET("/:id", middleware.RequireStaff(), h.GetPayment)
		authed.GET("/booking/:bookingId", h.GetPaymentByBooking)
		authed.POST("/refund", middleware.RequireRole(auth.RoleBranchManager, auth.RoleAdmin), h.RefundPayment)
	}
}

// CreatePayment handles POST /api/v1/payments
func (h *PaymentHandler) CreatePayment(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req application.CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	resp, err := h.service.CreatePaymentIntent(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, resp)
}

// GetPayment handles GET /api/v1/payments/:id
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid payment ID")
		return
	}

	dto, err := h.service.GetPayment(c.Request.Context(), paymentID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto)
}

// GetPaymentByBooking handles GET /api/v1/payments/booking/:bookingId
func (h *PaymentHandler) GetPaymentByBooking(c *gin.Context) {
	bookingID, err := uuid.Parse(c.Param("bookingId"))
	if err != nil {
		response.BadRequest(c, "invalid booking ID")
		return
	}

	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	role, _ := middleware.GetRole(c)

	dto, err := h.service.GetPaymentByBooking(c.Request.Context(), userID, role, bookingID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto)
}

// RefundPayment handles POST /api/v1/payments/refund
func (h *PaymentHandler) RefundPayment(c *gin.Context) {
	var req application.RefundPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	dto, err := h.service.RefundPayment(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, dto)
}

// StripeWebhook handles POST /api/v1/payments/stripe/webhook. The raw body is
// passed through untouched so the signature check sees the exact bytes Stripe
// signed.
func (h *PaymentHandler) StripeWebhook(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<16))
	if err != nil {
		response.BadRequest(c, "could not read body")
		return
	}

	err = h.reconciler.HandleCallback(c.Request.Context(), payment.MethodStripe, adapter.CallbackRequest{
		RawBody:   body,
		Signature: c.GetHeader("Stripe-Signature"),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}

// VNPayCallback handles GET /api/v1/payments/vnpay/callback with the signed
// query string VNPay redirects through.
func (h *PaymentHandler) VNPayCallback(c *gin.Context) {
	err := h.reconciler.HandleCallback(c.Request.Context(), payment.MethodVNPay, adapter.CallbackRequest{
		Query: c.Request.URL.Query(),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"RspCode": "00", "Message": "Confirm Success"})
}
