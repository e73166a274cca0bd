package monitoring

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetricsMiddlewareCountsRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(MetricsMiddleware())
	r.GET("/api/ping", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	before := testutil.ToFloat64(RequestCounter.WithLabelValues("GET", "/api/ping", "204"))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/ping", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))

	assert.Equal(t, before+1, testutil.ToFloat64(RequestCounter.WithLabelValues("GET", "/api/ping", "204")))
	assert.Equal(t, 1.0, testutil.ToFloat64(RequestCounter.WithLabelValues("GET", "unmatched", "404")))
}

func TestRecordAuth(t *testing.T) {
	reason := func(err error) string { return "rejected" }

	RecordAuth("login", nil, reason)
	RecordAuth("login", errors.New("bad password"), reason)

	assert.Equal(t, 1.0, testutil.ToFloat64(AuthEvents.WithLabelValues("login", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(AuthEvents.WithLabelValues("login", "rejected")))
}
