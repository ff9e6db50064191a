package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"devicereg/internal/middleware"
	"devicereg/internal/services"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// errorResponses maps service errors to status and user-visible message.
var errorResponses = []struct {
	err     error
	status  int
	message string
}{
	{services.ErrInvalidRegistrant, http.StatusBadRequest, "Invalid person"},
	{services.ErrEmailTaken, http.StatusConflict, "Email already registered"},
	{services.ErrAccountNotFound, http.StatusNotFound, "Email not found"},
	{services.ErrDeviceNotFound, http.StatusNotFound, "Device not found"},
	{services.ErrUTMLinkNotFound, http.StatusNotFound, "Email not found or UTM link not set"},
	{services.ErrNoAccounts, http.StatusNotFound, "No accounts found for the given person"},
	{services.ErrInvalidCredentials, http.StatusUnauthorized, "Invalid email or password"},
	{services.ErrForbidden, http.StatusForbidden, "Unauthorized to set self-destruct status for this account"},
}

func statusFor(err error) (int, string) {
	for _, e := range errorResponses {
		if errors.Is(err, e.err) {
			return e.status, e.message
		}
	}
	if errors.Is(err, services.ErrValidation) {
		return http.StatusBadRequest, err.Error()
	}
	return http.StatusInternalServerError, "Internal server error"
}

func respondError(c *gin.Context, tag string, err error) {
	status, msg := statusFor(err)
	if status == http.StatusInternalServerError {
		slog.ErrorContext(c.Request.Context(), tag+" service error",
			"err", err, "request_id", c.GetString(middleware.RequestIDKey))
	}
	c.JSON(status, ErrorResponse{Error: msg})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
}

// currentRegistrant is set by middleware.BasicAuth; a missing value means the
// route was mounted without it.
func currentRegistrant(c *gin.Context) (string, bool) {
	id, ok := middleware.Registrant(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "no registrant in context"})
	}
	return id, ok
}
