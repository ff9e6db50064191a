package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"devicereg/internal/models"
	"devicereg/internal/services"
)

type DeviceHandler struct {
	service services.AccountService
}

func NewDeviceHandler(service services.AccountService) *DeviceHandler {
	return &DeviceHandler{service: service}
}

// @Summary      Register device
// @Description  Overwrites the account's device slot and increments total_devices.
// @Tags         Devices
// @Accept       json
// @Produce      json
// @Param        device  body  models.DeviceInfo  true  "Device"
// @Success      200  {object}  MessageResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /register_device [post]
func (h *DeviceHandler) Register(c *gin.Context) {
	var info models.DeviceInfo
	if err := c.ShouldBindJSON(&info); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.service.RegisterDevice(c.Request.Context(), info); err != nil {
		respondError(c, "[device][register]", err)
		return
	}
	slog.InfoContext(c.Request.Context(), "[device][register] ok", "email", info.Email, "device_id", info.DeviceID)
	c.JSON(http.StatusOK, MessageResponse{Message: "Device registered successfully"})
}
