package handlers

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"devicereg/internal/services"
)

type SelfDestructHandler struct {
	service services.AccountService
}

func NewSelfDestructHandler(service services.AccountService) *SelfDestructHandler {
	return &SelfDestructHandler{service: service}
}

type setSelfDestructRequest struct {
	Email        string `form:"email" json:"email" binding:"required"`
	DeviceID     string `form:"device_id" json:"device_id"`
	SelfDestruct *bool  `form:"self_destruct" json:"self_destruct"` // defaults to true
}

type selfDestructQuery struct {
	Email    string `form:"email" binding:"required"`
	DeviceID string `form:"device_id"`
}

type wipeRequest struct {
	Email    string `form:"email" json:"email" binding:"required"`
	DeviceID string `form:"device_id" json:"device_id" binding:"required"`
}

// @Summary      Set self-destruct flag
// @Description  Sets the flag for one device or, without device_id, for the whole account. Caller must own the account.
// @Tags         SelfDestruct
// @Security     BasicAuth
// @Produce      json
// @Param        email          query  string  true   "Account email"
// @Param        device_id      query  string  false  "Device id"
// @Param        self_destruct  query  bool    false  "New value (default true)"
// @Success      200  {object}  MessageResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /set_self_destruct [post]
func (h *SelfDestructHandler) Set(c *gin.Context) {
	registrant, ok := currentRegistrant(c)
	if !ok {
		return
	}

	var req setSelfDestructRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, err)
		return
	}
	value := true
	if req.SelfDestruct != nil {
		value = *req.SelfDestruct
	}

	if err := h.service.SetSelfDestruct(c.Request.Context(), registrant, req.Email, req.DeviceID, value); err != nil {
		slog.InfoContext(c.Request.Context(), "[self-destruct][set] rejected",
			"registrant", registrant, "email", req.Email, "device_id", req.DeviceID, "err", err)
		respondError(c, "[self-destruct][set]", err)
		return
	}

	slog.InfoContext(c.Request.Context(), "[self-destruct][set] updated",
		"registrant", registrant, "email", req.Email, "device_id", req.DeviceID, "value", value)
	if req.DeviceID != "" {
		c.JSON(http.StatusOK, MessageResponse{Message: fmt.Sprintf("Self-destruct status set to %t for device %s of %s", value, req.DeviceID, req.Email)})
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: fmt.Sprintf("Self-destruct status set to %t for all devices of %s", value, req.Email)})
}

// @Summary      Read self-destruct flag
// @Description  Open endpoint polled by device agents.
// @Tags         SelfDestruct
// @Produce      json
// @Param        email      query  string  true   "Account email"
// @Param        device_id  query  string  false  "Device id"
// @Success      200  {object}  map[string]bool
// @Failure      404  {object}  ErrorResponse
// @Router       /selfdestruct [get]
func (h *SelfDestructHandler) Get(c *gin.Context) {
	var q selfDestructQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}

	value, err := h.service.GetSelfDestruct(c.Request.Context(), q.Email, q.DeviceID)
	if err != nil {
		respondError(c, "[self-destruct][get]", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"self_destruct": value})
}

// @Summary      Trigger remote wipe
// @Description  Arms the flag for an existing (email, device) pair. Any authenticated registrant may call it.
// @Tags         SelfDestruct
// @Security     BasicAuth
// @Produce      json
// @Param        email      query  string  true  "Account email"
// @Param        device_id  query  string  true  "Device id"
// @Success      200  {object}  MessageResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /self_destruct_device [post]
func (h *SelfDestructHandler) Wipe(c *gin.Context) {
	registrant, ok := currentRegistrant(c)
	if !ok {
		return
	}

	var req wipeRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.service.TriggerWipe(c.Request.Context(), req.Email, req.DeviceID); err != nil {
		respondError(c, "[self-destruct][wipe]", err)
		return
	}

	slog.WarnContext(c.Request.Context(), "[self-destruct][wipe] signal sent",
		"registrant", registrant, "email", req.Email, "device_id", req.DeviceID)
	c.JSON(http.StatusOK, MessageResponse{Message: fmt.Sprintf("Self-destruct signal sent to device %s for %s", req.DeviceID, req.Email)})
}
