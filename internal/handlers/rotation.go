package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/lux23/settings-service/internal/services"
	"github.com/lux23/settings-service/pkg/response"
)

type RotationHandler struct {
	rotationService *services.RotationService
}

func NewRotationHandler(rotation *services.RotationService) *RotationHandler {
	return &RotationHandler{rotationService: rotation}
}

// GetRotation runs fetch-and-maybe-rotate and reports the outcome.
func (h *RotationHandler) GetRotation(c *gin.Context) {
	status, err := h.rotationService.Evaluate(c.Request.Context())
	if err != nil {
		response.Error(c, toAppError(c, err))
		return
	}
	response.Success(c, status)
}
