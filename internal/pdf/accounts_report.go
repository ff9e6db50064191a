package pdf

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"devicereg/internal/models"
)

// Generator is an interface so handlers can be tested without rendering.
type Generator interface {
	AccountsReport(w io.Writer, data ReportData) error
}

type ReportGenerator struct {
	FontPath string // optional UTF-8 TTF; core Helvetica when empty
	fontName string
}

type ReportData struct {
	Registrant string
	Accounts   []models.AccountSummary
	CreatedAt  time.Time
}

func NewReportGenerator(fontPath string) *ReportGenerator {
	g := &ReportGenerator{FontPath: fontPath, fontName: "Helvetica"}
	if fontPath != "" {
		g.fontName = "DejaVu"
	}
	return g
}

var columns = []struct {
	title string
	width float64
}{
	{"Email", 62},
	{"Self-destruct", 24},
	{"Devices", 16},
	{"Device IDs", 38},
	{"UTM link", 50},
}

func (g *ReportGenerator) AccountsReport(w io.Writer, data ReportData) error {
	if data.CreatedAt.IsZero() {
		data.CreatedAt = time.Now()
	}

	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Accounts of %s", data.Registrant), true)
	pdf.SetAuthor("devicereg", false)
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 15)
	if g.FontPath != "" {
		pdf.AddUTF8Font(g.fontName, "", g.FontPath)
		pdf.AddUTF8Font(g.fontName, "B", g.FontPath)
	}
	pdf.AddPage()

	pdf.SetFont(g.fontName, "B", 16)
	pdf.CellFormat(0, 10, "Registered accounts", "", 1, "L", false, 0, "")
	pdf.SetFont(g.fontName, "", 11)
	pdf.CellFormat(0, 6, fmt.Sprintf("Registrant: %s", data.Registrant), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Generated: %s", data.CreatedAt.Format("02.01.2006 15:04")), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont(g.fontName, "B", 10)
	pdf.SetFillColor(230, 230, 230)
	for _, c := range columns {
		pdf.CellFormat(c.width, 7, c.title, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont(g.fontName, "", 9)
	for _, a := range data.Accounts {
		flag := "no"
		if a.SelfDestruct {
			flag = "YES"
		}
		cells := []string{
			a.Email,
			flag,
			strconv.Itoa(a.TotalDevices),
			strings.Join(a.DeviceIDs, ", "),
			a.UTMLink,
		}
		for i, c := range columns {
			pdf.CellFormat(c.width, 6, truncate(pdf, cells[i], c.width-2), "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}

	pdf.Ln(3)
	pdf.SetFont(g.fontName, "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Total: %d", len(data.Accounts)), "", 1, "L", false, 0, "")

	return pdf.Output(w)
}

// truncate shortens s with an ellipsis so it fits into width mm.
func truncate(pdf *gofpdf.Fpdf, s string, width float64) string {
	if pdf.GetStringWidth(s) <= width {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && pdf.GetStringWidth(string(r)+"...") > width {
		r = r[:len(r)-1]
	}
	return string(r) + "..."
}
