package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"devicereg/internal/logging"
	"devicereg/internal/models"
	"devicereg/internal/services"
)

type AuthHandler struct {
	service services.AccountService
}

func NewAuthHandler(service services.AccountService) *AuthHandler {
	return &AuthHandler{service: service}
}

// @Summary      Register an account
// @Description  Creates an account owned by the given registrant ("person"). Accepts form or JSON.
// @Tags         Auth
// @Accept       x-www-form-urlencoded,json
// @Produce      json,html
// @Param        email     formData  string  true  "Email"
// @Param        password  formData  string  true  "Password"
// @Param        person    formData  string  true  "Registrant identifier"
// @Success      201  {object}  MessageResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      409  {object}  ErrorResponse
// @Router       /register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req models.RegisterRequest
	if err := c.ShouldBind(&req); err != nil {
		h.registerResult(c, http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.service.Register(c.Request.Context(), req.Email, req.Password, req.Person); err != nil {
		status, msg := statusFor(err)
		if status == http.StatusInternalServerError {
			respondError(c, "[auth][register]", err)
			return
		}
		slog.InfoContext(c.Request.Context(), "[auth][register] rejected", "email", req.Email, "person", req.Person, "reason", err)
		h.registerResult(c, status, gin.H{"error": msg})
		return
	}

	slog.InfoContext(c.Request.Context(), "[auth][register] created", "email", req.Email, "person", req.Person)
	h.registerResult(c, http.StatusCreated, gin.H{"message": "User registered successfully"})
}

// registerResult re-renders the form for browsers and answers JSON otherwise.
// The status code is the same either way.
func (h *AuthHandler) registerResult(c *gin.Context, status int, body gin.H) {
	if c.NegotiateFormat(gin.MIMEJSON, gin.MIMEHTML) == gin.MIMEHTML {
		c.HTML(status, registrationTemplate, body)
		return
	}
	c.JSON(status, body)
}

// @Summary      Check credentials
// @Description  Stateless email/password check; no session or token is issued.
// @Tags         Auth
// @Produce      json
// @Param        email     query  string  true  "Email"
// @Param        password  query  string  true  "Password"
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  ErrorResponse
// @Router       /login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	start := time.Now()

	var req models.LoginRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.service.Login(c.Request.Context(), req.Email, req.Password); err != nil {
		slog.InfoContext(c.Request.Context(), "[auth][login] failed", "email", req.Email, "err", err)
		respondError(c, "[auth][login]", err)
		return
	}

	slog.InfoContext(c.Request.Context(), "[auth][login] success", "email", req.Email, logging.Since(start))
	c.JSON(http.StatusOK, gin.H{"login_status": true, "message": "Login successful"})
}

// @Summary   Basic auth smoke test
// @Tags      Auth
// @Security  BasicAuth
// @Produce   json
// @Success   200  {object}  MessageResponse
// @Failure   401  {object}  ErrorResponse
// @Router    /protected [get]
func (h *AuthHandler) Protected(c *gin.Context) {
	if _, ok := currentRegistrant(c); !ok {
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "Access granted"})
}
