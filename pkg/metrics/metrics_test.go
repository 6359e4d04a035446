package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestRecorder_CountsWebhooksAndGatewayCalls(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRecorder(reg, "payport")

	r.IncWebhook("CREDIT", "processed")
	r.IncWebhook("CREDIT", "processed")
	r.IncWebhook("PAYMENT", "rejected")
	r.ObserveGatewayCall("payment", "ok", time.Now().Add(-20*time.Millisecond))

	require.Equal(t, 2.0, testutil.ToFloat64(r.webhooks.WithLabelValues("CREDIT", "processed")))
	require.Equal(t, 1.0, testutil.ToFloat64(r.webhooks.WithLabelValues("PAYMENT", "rejected")))
	require.Equal(t, 1, testutil.CollectAndCount(r.gateway))

	// registering twice reuses the collectors
	again := NewRecorder(reg, "payport")
	again.IncWebhook("CREDIT", "processed")
	require.Equal(t, 3.0, testutil.ToFloat64(r.webhooks.WithLabelValues("CREDIT", "processed")))
}

func TestRecorder_NilIsNoop(t *testing.T) {
	var r *Recorder
	require.NotPanics(t, func() {
		r.IncWebhook("PAYMENT", "processed")
		r.ObserveGatewayCall("payment", "ok", time.Now())
		r.ObserveProcess("webhook", "CREDIT", time.Now())
	})
}

func TestPrometheus_ServesMetricsOnEngine(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reg := prometheus.NewRegistry()
	p := NewPrometheus(NewPrometheusOptions{
		Registerer: reg,
		Gatherer:   reg,
		ReqCntURLLabelMappingFn: func(c *gin.Context) string {
			return c.FullPath()
		},
	})
	e := gin.New()
	p.Use(e, "")
	e.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	w := httptest.NewRecorder()
	e.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	e.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.True(t, strings.Contains(w.Body.String(), `req_total{code="200",method="GET",ref="",url="/ping"} 1`))
}
