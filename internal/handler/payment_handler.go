package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/N4thh/homi-nah/internal/domain"
	"github.com/N4thh/homi-nah/internal/dto"
	"github.com/N4thh/homi-nah/internal/middleware"
	"github.com/N4thh/homi-nah/internal/service"
	"github.com/N4thh/homi-nah/pkg/response"
)

// ErrCodeGateway marks failures reported by the payment provider
const ErrCodeGateway = "GATEWAY_ERROR"

// PaymentHandler handles payment-related HTTP requests
type PaymentHandler struct {
	paymentService service.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(paymentService service.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
	}
}

// Create handles POST /payments - starts checkout for a booking
func (h *PaymentHandler) Create(c *gin.Context) {
	userID := middleware.UserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, response.Unauthorized("Authentication required"))
		return
	}

	var req dto.CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.BadRequest("Invalid request body"))
		return
	}
	if valid, msg := req.Validate(); !valid {
		c.JSON(http.StatusBadRequest, response.BadRequest(msg))
		return
	}

	payment, err := h.paymentService.CreatePayment(c.Request.Context(), userID, &req)
	if err != nil {
		writeServiceError(c, err, "Failed to create payment")
		return
	}

	c.JSON(http.StatusCreated, response.Success(dto.FromCreatedPayment(payment)))
}

// Get handles GET /payments/:id - retrieves a payment with its checkout artifacts
func (h *PaymentHandler) Get(c *gin.Context) {
	paymentID := c.Param("id")
	if paymentID == "" {
		c.JSON(http.StatusBadRequest, response.BadRequest("Payment ID is required"))
		return
	}

	userID := middleware.UserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, response.Unauthorized("Authentication required"))
		return
	}

	payment, err := h.paymentService.GetPayment(c.Request.Context(), userID, paymentID)
	if err != nil {
		writeServiceError(c, err, "Failed to get payment")
		return
	}

	c.JSON(http.StatusOK, response.Success(dto.FromPayment(payment)))
}

// List handles GET /payments - lists the caller's payments with pagination
func (h *PaymentHandler) List(c *gin.Context) {
	userID := middleware.UserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, response.Unauthorized("Authentication required"))
		return
	}

	var filter dto.PaymentListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, response.BadRequest("Invalid query parameters"))
		return
	}
	filter.UserID = userID
	filter.Role = middleware.Role(c)

	payments, total, err := h.paymentService.ListPayments(c.Request.Context(), &filter)
	if err != nil {
		writeServiceError(c, err, "Failed to list payments")
		return
	}

	c.JSON(http.StatusOK, response.Paginated(dto.FromPayments(payments), filter.Page, filter.PerPage, total))
}

// Refresh handles POST /payments/:id/refresh - polls the gateway for the
// payment's current status and applies any change
func (h *PaymentHandler) Refresh(c *gin.Context) {
	paymentID := c.Param("id")
	if paymentID == "" {
		c.JSON(http.StatusBadRequest, response.BadRequest("Payment ID is required"))
		return
	}

	userID := middleware.UserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, response.Unauthorized("Authentication required"))
		return
	}

	payment, err := h.paymentService.RefreshPayment(c.Request.Context(), userID, paymentID)
	if err != nil {
		writeServiceError(c, err, "Failed to refresh payment")
		return
	}

	c.JSON(http.StatusOK, response.Success(dto.FromPayment(payment)))
}

// Cancel handles POST /payments/:id/cancel - cancels an active payment.
// The body is optional; it may carry a cancellation reason.
func (h *PaymentHandler) Cancel(c *gin.Context) {
	paymentID := c.Param("id")
	if paymentID == "" {
		c.JSON(http.StatusBadRequest, response.BadRequest("Payment ID is required"))
		return
	}

	userID := middleware.UserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, response.Unauthorized("Authentication required"))
		return
	}

	var req dto.CancelPaymentRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, response.BadRequest("Invalid request body"))
			return
		}
	}

	payment, err := h.paymentService.CancelPayment(c.Request.Context(), userID, paymentID, req.Reason)
	if err != nil {
		writeServiceError(c, err, "Failed to cancel payment")
		return
	}

	c.JSON(http.StatusOK, response.Success(dto.FromPayment(payment)))
}

// writeServiceError maps a payment service error onto the API envelope.
// Credential errors are checked before not-found: a booking owner without a
// usable gateway config is a request problem, not a missing resource.
func writeServiceError(c *gin.Context, err error, fallback string) {
	switch {
	case domain.IsValidationError(err):
		c.JSON(http.StatusBadRequest, response.BadRequest(err.Error()))
	case domain.IsPermissionError(err):
		c.JSON(http.StatusForbidden, response.Error(response.ErrCodeForbidden, err.Error()))
	case domain.IsCredentialError(err):
		c.JSON(http.StatusBadRequest, response.BadRequest("The booking owner has not enabled payments"))
	case domain.IsNotFoundError(err):
		c.JSON(http.StatusNotFound, response.NotFound(err.Error()))
	case domain.IsConflictError(err):
		c.JSON(http.StatusConflict, response.Error(response.ErrCodeConflict, err.Error()))
	case domain.IsGatewayError(err):
		c.JSON(http.StatusBadGateway, response.Error(ErrCodeGateway, "Payment gateway request failed"))
	default:
		c.JSON(http.StatusInternalServerError, response.InternalError(fallback))
	}
}
