package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"devicereg/internal/services"
)

type UTMHandler struct {
	service services.AccountService
}

func NewUTMHandler(service services.AccountService) *UTMHandler {
	return &UTMHandler{service: service}
}

type setUTMRequest struct {
	Email   string `form:"email" json:"email" binding:"required"`
	UTMLink string `form:"utm_link" json:"utm_link" binding:"required"`
}

// @Summary   Set UTM link
// @Tags      UTM
// @Security  BasicAuth
// @Produce   json
// @Param     email     query  string  true  "Account email"
// @Param     utm_link  query  string  true  "Link"
// @Success   200  {object}  MessageResponse
// @Failure   404  {object}  ErrorResponse
// @Router    /set_utm_link [post]
func (h *UTMHandler) Set(c *gin.Context) {
	if _, ok := currentRegistrant(c); !ok {
		return
	}

	var req setUTMRequest
	if err := c.ShouldBind(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.service.SetUTMLink(c.Request.Context(), req.Email, req.UTMLink); err != nil {
		respondError(c, "[utm][set]", err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "UTM link set for " + req.Email})
}

// @Summary  Get UTM link
// @Tags     UTM
// @Produce  json
// @Param    email  query  string  true  "Account email"
// @Success  200  {object}  map[string]string
// @Failure  404  {object}  ErrorResponse
// @Router   /get_utm_link [get]
func (h *UTMHandler) Get(c *gin.Context) {
	email := c.Query("email")
	if email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email is required"})
		return
	}
	link, err := h.service.GetUTMLink(c.Request.Context(), email)
	if err != nil {
		respondError(c, "[utm][get]", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"utm_link": link})
}
