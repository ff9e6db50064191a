package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/VictoriaMetrics/metrics"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"devicereg/internal/authz"
)

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw...)
	r.GET("/whoami", func(c *gin.Context) {
		id, _ := Registrant(c)
		c.String(http.StatusOK, id)
	})
	return r
}

func TestBasicAuth(t *testing.T) {
	reg := authz.NewRegistrants(map[string]string{"person1": "person1"})
	r := newEngine(BasicAuth(reg))

	cases := []struct {
		name       string
		user, pass string
		setAuth    bool
		wantStatus int
	}{
		{"valid", "person1", "person1", true, http.StatusOK},
		{"wrong token", "person1", "nope", true, http.StatusUnauthorized},
		{"unknown registrant", "person7", "person7", true, http.StatusUnauthorized},
		{"missing header", "", "", false, http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if tc.setAuth {
				req.SetBasicAuth(tc.user, tc.pass)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tc.wantStatus, w.Code)
			if tc.wantStatus == http.StatusOK {
				assert.Equal(t, "person1", w.Body.String())
			} else {
				assert.Contains(t, w.Header().Get("WWW-Authenticate"), "Basic")
				assert.Contains(t, w.Body.String(), "Invalid person token")
			}
		})
	}
}

func TestRequestID(t *testing.T) {
	r := newEngine(RequestID())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/whoami", nil))
	assert.Len(t, w.Header().Get(RequestIDHeader), 36)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set(RequestIDHeader, "abc")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc", w.Header().Get(RequestIDHeader))
}

func TestAccessLogAndMetrics(t *testing.T) {
	var logs bytes.Buffer
	set := metrics.NewSet()
	r := newEngine(AccessLog(slog.New(slog.NewTextHandler(&logs, nil))), Metrics(set))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/whoami", nil))
	require.Equal(t, http.StatusOK, w.Code)

	assert.Contains(t, logs.String(), "path=/whoami")
	assert.Contains(t, logs.String(), "status=200")

	var out bytes.Buffer
	set.WritePrometheus(&out)
	assert.True(t, strings.Contains(out.String(), `devicereg_http_requests_total{method="GET",path="/whoami",code="200"} 1`), out.String())
}
