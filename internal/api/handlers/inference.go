package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/your-org/phototag/internal/inference"
	"github.com/your-org/phototag/pkg/dto"
)

type InferenceHandler struct {
	engine *inference.Engine
}

func NewInferenceHandler(engine *inference.Engine) *InferenceHandler {
	return &InferenceHandler{engine: engine}
}

func (h *InferenceHandler) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.engine.Status())
}

func (h *InferenceHandler) SetDevice(c *gin.Context) {
	var req dto.SetInferenceDeviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}

	switch inference.DevicePreference(req.Device) {
	case inference.DeviceAuto, inference.DeviceCPUOnly, inference.DeviceGPUOnly:
	default:
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "unknown device preference: " + req.Device})
		return
	}

	h.engine.SetDevicePreference(inference.DevicePreference(req.Device))
	c.Status(http.StatusNoContent)
}
