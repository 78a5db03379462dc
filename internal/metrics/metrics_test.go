package metrics_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/esiagate/esiagate/internal/metrics"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"gotest.tools/v3/assert"
)

func TestHTTPMiddlewareUsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reg := prometheus.NewRegistry()

	router := gin.New()
	router.Use(metrics.HTTPMiddleware(reg))
	router.GET("/users/:id", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	recorder := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/users/42", nil)
	router.ServeHTTP(recorder, req)

	assert.Equal(t, http.StatusNoContent, recorder.Code)

	families, err := reg.Gather()
	assert.NilError(t, err)

	var route string
	for _, family := range families {
		if family.GetName() != "esiagate_http_requests_total" {
			continue
		}
		for _, metric := range family.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() == "route" {
					route = label.GetValue()
				}
			}
		}
	}

	assert.Equal(t, "/users/:id", route)
}

func TestHTTPMiddlewareWithoutRegistry(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(metrics.HTTPMiddleware(nil))
	router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/ping", nil))

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "pong", recorder.Body.String())
}

func TestAuthMetricsRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	authMetrics := metrics.NewAuthMetrics(reg)

	authMetrics.Record("refresh", nil)
	authMetrics.Record("refresh", errors.New("boom"))
	authMetrics.Record("refresh", errors.New("boom"))

	count, err := testutil.GatherAndCount(reg, "esiagate_auth_events_total")
	assert.NilError(t, err)
	assert.Equal(t, 2, count)

	var nilMetrics *metrics.AuthMetrics
	nilMetrics.Record("logout", nil)
}
