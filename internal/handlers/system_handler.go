package handlers

import (
	"context"
	"embed"
	"html/template"
	"net/http"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/gin-gonic/gin"
)

const registrationTemplate = "registration.html"

//go:embed templates/*.html
var templateFS embed.FS

// Templates parses the embedded HTML templates for gin's HTML renderer.
func Templates() *template.Template {
	return template.Must(template.ParseFS(templateFS, "templates/*.html"))
}

type Pinger interface {
	PingContext(ctx context.Context) error
}

type SystemHandler struct {
	db      Pinger
	metrics *metrics.Set
}

func NewSystemHandler(db Pinger, set *metrics.Set) *SystemHandler {
	return &SystemHandler{db: db, metrics: set}
}

// RegistrationForm renders the HTML registration page.
func (h *SystemHandler) RegistrationForm(c *gin.Context) {
	c.HTML(http.StatusOK, registrationTemplate, gin.H{})
}

func (h *SystemHandler) Healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := h.db.PingContext(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Metrics exposes request metrics plus Go process metrics in Prometheus text format.
func (h *SystemHandler) Metrics(c *gin.Context) {
	c.Header("Content-Type", "text/plain; version=0.0.4")
	c.Status(http.StatusOK)
	h.metrics.WritePrometheus(c.Writer)
	metrics.WriteProcessMetrics(c.Writer)
}
