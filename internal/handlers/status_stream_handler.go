package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"devicereg/internal/realtime"
	"devicereg/internal/services"
)

const streamWriteTimeout = 5 * time.Second

// StatusStreamHandler pushes self-destruct changes to device agents over a
// websocket so they do not have to poll /selfdestruct.
type StatusStreamHandler struct {
	service  services.AccountService
	hub      *realtime.StatusHub
	upgrader websocket.Upgrader
}

func NewStatusStreamHandler(service services.AccountService, hub *realtime.StatusHub) *StatusStreamHandler {
	return &StatusStreamHandler{
		service: service,
		hub:     hub,
		upgrader: websocket.Upgrader{
			// agents are not browsers and send no Origin
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// @Summary      Stream self-destruct flag
// @Description  Websocket. Sends the current flag, then every change for the account (or one device).
// @Tags         SelfDestruct
// @Param        email      query  string  true   "Account email"
// @Param        device_id  query  string  false  "Device id"
// @Success      101  {object}  realtime.StatusEvent
// @Failure      404  {object}  ErrorResponse
// @Router       /selfdestruct/ws [get]
func (h *StatusStreamHandler) Stream(c *gin.Context) {
	var q selfDestructQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}

	q.Email = services.NormalizeEmail(q.Email)
	ctx := c.Request.Context()
	ch, cancel := h.hub.Subscribe(q.Email, 16)
	defer cancel()

	// read after subscribing so no change slips between the two
	current, err := h.service.GetSelfDestruct(ctx, q.Email, q.DeviceID)
	if err != nil {
		respondError(c, "[self-destruct][stream]", err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.DebugContext(ctx, "[self-destruct][stream] upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	_ = conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
	if err := conn.WriteJSON(realtime.StatusEvent{Email: q.Email, DeviceID: q.DeviceID, SelfDestruct: current}); err != nil {
		return
	}
	slog.InfoContext(ctx, "[self-destruct][stream] connected", "email", q.Email, "device_id", q.DeviceID)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			slog.InfoContext(ctx, "[self-destruct][stream] closed", "email", q.Email, "device_id", q.DeviceID)
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if !concerns(ev, q.DeviceID) {
				continue
			}
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		}
	}
}

// concerns reports whether an event applies to the device being streamed.
// Account-wide changes apply to every device.
func concerns(ev realtime.StatusEvent, deviceID string) bool {
	return deviceID == "" || ev.DeviceID == "" || ev.DeviceID == deviceID
}
