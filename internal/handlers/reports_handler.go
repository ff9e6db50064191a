package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"devicereg/internal/pdf"
	"devicereg/internal/services"
)

type ReportHandler struct {
	service services.AccountService
	pdfGen  pdf.Generator
}

func NewReportHandler(service services.AccountService, pdfGen pdf.Generator) *ReportHandler {
	return &ReportHandler{service: service, pdfGen: pdfGen}
}

// @Summary   List own accounts
// @Tags      Reports
// @Security  BasicAuth
// @Produce   json
// @Success   200  {object}  map[string][]models.AccountSummary
// @Failure   401  {object}  ErrorResponse
// @Failure   404  {object}  ErrorResponse
// @Router    /registered_accounts [get]
func (h *ReportHandler) RegisteredAccounts(c *gin.Context) {
	registrant, ok := currentRegistrant(c)
	if !ok {
		return
	}
	accounts, err := h.service.ListAccounts(c.Request.Context(), registrant)
	if err != nil {
		respondError(c, "[reports][accounts]", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"accounts": accounts})
}

// @Summary   Own accounts as PDF
// @Tags      Reports
// @Security  BasicAuth
// @Produce   application/pdf
// @Success   200  {file}  file
// @Failure   404  {object}  ErrorResponse
// @Router    /registered_accounts/report [get]
func (h *ReportHandler) AccountsPDF(c *gin.Context) {
	registrant, ok := currentRegistrant(c)
	if !ok {
		return
	}
	accounts, err := h.service.ListAccounts(c.Request.Context(), registrant)
	if err != nil {
		respondError(c, "[reports][pdf]", err)
		return
	}

	now := time.Now()
	var buf bytes.Buffer
	if err := h.pdfGen.AccountsReport(&buf, pdf.ReportData{
		Registrant: registrant,
		Accounts:   accounts,
		CreatedAt:  now,
	}); err != nil {
		respondError(c, "[reports][pdf]", fmt.Errorf("render pdf: %w", err))
		return
	}

	filename := fmt.Sprintf("accounts_%s_%s.pdf", registrant, now.Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}
