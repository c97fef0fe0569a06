package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/lux23/settings-service/internal/services"
	"github.com/lux23/settings-service/pkg/logger"
	"github.com/lux23/settings-service/pkg/response"
)

type SettingsHandler struct {
	settingsService *services.SettingsService
	rotationService *services.RotationService
	gate            services.CredentialVerifier
}

func NewSettingsHandler(settings *services.SettingsService, rotation *services.RotationService, gate services.CredentialVerifier) *SettingsHandler {
	return &SettingsHandler{
		settingsService: settings,
		rotationService: rotation,
		gate:            gate,
	}
}

// UpdateSettingsRequest is a full replacement record plus the admin PIN.
type UpdateSettingsRequest struct {
	services.ConfigurationRecord
	Pin string `json:"pin"`
}

type VerifyPinRequest struct {
	Pin string `json:"pin"`
}

type SettingsResponse struct {
	Settings   *services.ConfigurationRecord `json:"settings"`
	ActiveLine *services.SupportLine         `json:"activeLine,omitempty"`
}

// GetSettings evaluates rotation first so the returned record reflects any
// advance that just became due.
func (h *SettingsHandler) GetSettings(c *gin.Context) {
	ctx := c.Request.Context()

	if _, err := h.rotationService.Evaluate(ctx); err != nil {
		response.Error(c, toAppError(c, err))
		return
	}

	record, err := h.settingsService.Get(ctx)
	if err != nil {
		response.Error(c, toAppError(c, err))
		return
	}

	resp := SettingsResponse{Settings: record}
	if line, ok := h.settingsService.Catalog().Active(record.Rotation.CurrentLineIndex, record.LinePhone); ok {
		resp.ActiveLine = &line
	}
	response.Success(c, resp)
}

func (h *SettingsHandler) UpdateSettings(c *gin.Context) {
	var req UpdateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	record, err := h.settingsService.Update(c.Request.Context(), req.ConfigurationRecord, req.Pin)
	if err != nil {
		response.Error(c, toAppError(c, err))
		return
	}
	response.Success(c, record)
}

func (h *SettingsHandler) VerifyPin(c *gin.Context) {
	var req VerifyPinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	if !h.gate.Verify(req.Pin) {
		logger.Warn().Str("request_id", c.GetString(logger.RequestIDKey)).Msg("[Settings] PIN verification failed")
		response.Unauthorized(c, "invalid pin")
		return
	}
	response.Success(c, gin.H{"valid": true})
}

func (h *SettingsHandler) GetSupportLines(c *gin.Context) {
	response.Success(c, h.settingsService.Catalog().Lines())
}

// toAppError maps service errors onto HTTP errors. Store failures carry no
// internal detail; the cause was logged where it happened.
func toAppError(c *gin.Context, err error) *response.AppError {
	var ve *services.ValidationError
	switch {
	case errors.As(err, &ve):
		return response.NewBadRequest(ve.Error()).WithData(gin.H{"errors": ve.Errors})
	case errors.Is(err, services.ErrUnauthorized):
		return response.NewUnauthorized("invalid pin")
	case errors.Is(err, services.ErrSettingsNotFound):
		return response.NewServerError("settings not provisioned")
	case errors.Is(err, services.ErrStoreUnavailable):
		return response.NewServiceUnavailable("service unavailable")
	default:
		logger.Error().Err(err).Str("request_id", c.GetString(logger.RequestIDKey)).Msg("unexpected service error")
		return response.NewServerError("internal server error")
	}
}
