package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/N4thh/homi-nah/internal/domain"
	"github.com/N4thh/homi-nah/internal/dto"
	"github.com/N4thh/homi-nah/internal/gateway"
	"github.com/N4thh/homi-nah/internal/metrics"
	"github.com/N4thh/homi-nah/internal/service"
	"github.com/N4thh/homi-nah/pkg/logger"
	"github.com/N4thh/homi-nah/pkg/response"
)

// SignatureHeader carries the HMAC digest of the webhook body
const SignatureHeader = "x-signature"

// WebhookHandler handles gateway payment callbacks. Each callback is
// verified with the checksum key of the owner whose payment it refers to,
// found through the order code.
type WebhookHandler struct {
	paymentService service.PaymentService
	resolver       service.CredentialResolver
	gateways       gateway.Factory
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(paymentService service.PaymentService, resolver service.CredentialResolver, gateways gateway.Factory) *WebhookHandler {
	return &WebhookHandler{
		paymentService: paymentService,
		resolver:       resolver,
		gateways:       gateways,
	}
}

// HandleGatewayWebhook handles POST /webhooks/gateway.
//
// The raw body is read before any decoding because the signature covers the
// payload as sent. Anything that fails before verification returns 400 and
// mutates nothing; once the event is verified, only an internal failure
// returns non-200 so the gateway keeps retrying it.
func (h *WebhookHandler) HandleGatewayWebhook(c *gin.Context) {
	log := logger.Get()
	ctx := c.Request.Context()
	start := time.Now()
	metrics.RecordWebhookReceived(ctx)

	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		metrics.RecordWebhookRejected(ctx, "unreadable_body")
		c.JSON(http.StatusBadRequest, response.BadRequest("Failed to read request body"))
		return
	}

	signature := c.GetHeader(SignatureHeader)
	if signature == "" {
		log.Warn("Webhook missing signature header")
		metrics.RecordWebhookRejected(ctx, "missing_signature")
		c.JSON(http.StatusBadRequest, response.BadRequest("Missing x-signature header"))
		return
	}

	var req dto.WebhookRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		metrics.RecordWebhookRejected(ctx, "invalid_payload")
		c.JSON(http.StatusBadRequest, response.BadRequest("Invalid webhook payload"))
		return
	}
	if req.OrderCode <= 0 {
		metrics.RecordWebhookRejected(ctx, "missing_order_code")
		c.JSON(http.StatusBadRequest, response.BadRequest("Order code is required"))
		return
	}

	payment, err := h.paymentService.GetPaymentByOrderCode(ctx, req.OrderCode)
	if err != nil {
		if errors.Is(err, domain.ErrPaymentNotFound) {
			log.Warn(fmt.Sprintf("Webhook for unknown order code: order_code=%d", req.OrderCode))
			metrics.RecordWebhookRejected(ctx, "unknown_order_code")
			c.JSON(http.StatusNotFound, response.NotFound("No payment with this order code"))
			return
		}
		log.Error(fmt.Sprintf("Webhook payment lookup failed: order_code=%d, error=%v", req.OrderCode, err))
		c.JSON(http.StatusInternalServerError, response.InternalError("Failed to load payment"))
		return
	}

	creds, err := h.resolver.Resolve(ctx, payment.OwnerID)
	if err != nil {
		if domain.IsCredentialError(err) {
			log.Warn(fmt.Sprintf("Webhook for owner without usable config: order_code=%d, owner_id=%s",
				req.OrderCode, payment.OwnerID))
			metrics.RecordWebhookRejected(ctx, "no_config")
			c.JSON(http.StatusBadRequest, response.BadRequest("Owner gateway config unavailable"))
			return
		}
		log.Error(fmt.Sprintf("Webhook credential resolution failed: order_code=%d, owner_id=%s, error=%v",
			req.OrderCode, payment.OwnerID, err))
		c.JSON(http.StatusInternalServerError, response.InternalError("Failed to resolve gateway config"))
		return
	}

	if err := h.gateways.New(creds).VerifySignature(payload, signature); err != nil {
		log.Warn(fmt.Sprintf("Webhook signature rejected: order_code=%d, owner_id=%s",
			req.OrderCode, payment.OwnerID))
		metrics.RecordWebhookRejected(ctx, "invalid_signature")
		c.JSON(http.StatusBadRequest, response.BadRequest("Invalid signature"))
		return
	}

	updated, err := h.paymentService.ApplyGatewayEvent(ctx, &service.GatewayEvent{
		OrderCode:     req.OrderCode,
		Status:        req.Status,
		TransactionID: req.TransID,
		Amount:        req.Amount,
	})
	if err != nil {
		log.Error(fmt.Sprintf("Webhook processing failed: order_code=%d, error=%v", req.OrderCode, err))
		metrics.RecordWebhookProcessed(ctx, "error", time.Since(start).Seconds())
		c.JSON(http.StatusInternalServerError, response.InternalError("Failed to apply payment update"))
		return
	}

	metrics.RecordWebhookProcessed(ctx, string(updated.Status), time.Since(start).Seconds())
	c.JSON(http.StatusOK, dto.WebhookAck{
		Success:   true,
		Message:   "Webhook processed",
		OrderCode: updated.OrderCode,
		Status:    string(updated.Status),
	})
}
