package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/N4thh/homi-nah/internal/domain"
	"github.com/N4thh/homi-nah/internal/dto"
	"github.com/N4thh/homi-nah/internal/middleware"
	"github.com/N4thh/homi-nah/internal/service"
	"github.com/N4thh/homi-nah/pkg/response"
)

// ConfigHandler handles owner gateway credential administration
type ConfigHandler struct {
	configService service.ConfigService
}

// NewConfigHandler creates a new ConfigHandler
func NewConfigHandler(configService service.ConfigService) *ConfigHandler {
	return &ConfigHandler{
		configService: configService,
	}
}

// Get handles GET /payment-config - retrieves the owner's gateway config
func (h *ConfigHandler) Get(c *gin.Context) {
	ownerID, ok := requireOwner(c)
	if !ok {
		return
	}

	config, err := h.configService.GetConfig(c.Request.Context(), ownerID)
	if err != nil {
		if errors.Is(err, domain.ErrConfigNotFound) {
			c.JSON(http.StatusNotFound, response.NotFound("Payment config not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, response.InternalError("Failed to get payment config"))
		return
	}

	c.JSON(http.StatusOK, response.Success(dto.FromConfig(config)))
}

// Upsert handles PUT /payment-config - creates the owner's config or
// replaces its credentials
func (h *ConfigHandler) Upsert(c *gin.Context) {
	ownerID, ok := requireOwner(c)
	if !ok {
		return
	}

	var req dto.UpsertConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.BadRequest("Invalid request body"))
		return
	}
	if valid, msg := req.Validate(); !valid {
		c.JSON(http.StatusBadRequest, response.BadRequest(msg))
		return
	}

	config, err := h.configService.UpsertConfig(c.Request.Context(), ownerID, &req)
	if err != nil {
		if domain.IsValidationError(err) {
			c.JSON(http.StatusBadRequest, response.BadRequest(err.Error()))
			return
		}
		c.JSON(http.StatusInternalServerError, response.InternalError("Failed to save payment config"))
		return
	}

	c.JSON(http.StatusOK, response.Success(dto.FromConfig(config)))
}

// Activate handles POST /payment-config/activate
func (h *ConfigHandler) Activate(c *gin.Context) {
	h.setActive(c, true)
}

// Deactivate handles POST /payment-config/deactivate
func (h *ConfigHandler) Deactivate(c *gin.Context) {
	h.setActive(c, false)
}

func (h *ConfigHandler) setActive(c *gin.Context, active bool) {
	ownerID, ok := requireOwner(c)
	if !ok {
		return
	}

	config, err := h.configService.SetConfigActive(c.Request.Context(), ownerID, active)
	if err != nil {
		if errors.Is(err, domain.ErrConfigNotFound) {
			c.JSON(http.StatusNotFound, response.NotFound("Payment config not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, response.InternalError("Failed to update payment config"))
		return
	}

	c.JSON(http.StatusOK, response.Success(dto.FromConfig(config)))
}

// Stats handles GET /payments/stats - reports config readiness and payment
// statistics for the owner dashboard
func (h *ConfigHandler) Stats(c *gin.Context) {
	ownerID, ok := requireOwner(c)
	if !ok {
		return
	}

	status, err := h.configService.GetOwnerPaymentStatus(c.Request.Context(), ownerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.InternalError("Failed to get payment statistics"))
		return
	}

	c.JSON(http.StatusOK, response.Success(status))
}

// requireOwner returns the authenticated owner's ID, writing the error
// response itself when the caller is unauthenticated or not an owner
func requireOwner(c *gin.Context) (string, bool) {
	userID := middleware.UserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, response.Unauthorized("Authentication required"))
		return "", false
	}
	if middleware.Role(c) != "owner" {
		c.JSON(http.StatusForbidden, response.Error(response.ErrCodeForbidden, "Owner role required"))
		return "", false
	}
	return userID, true
}
