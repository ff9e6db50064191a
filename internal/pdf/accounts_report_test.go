package pdf

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"devicereg/internal/models"
)

func TestAccountsReport(t *testing.T) {
	g := NewReportGenerator("")
	var buf bytes.Buffer

	err := g.AccountsReport(&buf, ReportData{
		Registrant: "person1",
		CreatedAt:  time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		Accounts: []models.AccountSummary{
			{Email: "a@example.com", RegisteredBy: "person1", DeviceIDs: []string{}},
			{Email: "b@example.com", RegisteredBy: "person1", SelfDestruct: true, TotalDevices: 3,
				DeviceIDs: []string{"dev-1"}, UTMLink: "https://example.com/landing?utm_source=newsletter&utm_medium=email&utm_campaign=spring"},
		},
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
	assert.Greater(t, buf.Len(), 500)
}
