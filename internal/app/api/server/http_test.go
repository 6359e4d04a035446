package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	cfgpkg "github.com/fatflowers/payport/pkg/config"
)

func clientIP(t *testing.T, cfg *cfgpkg.Config, remoteAddr, forwardedFor string) string {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r, err := newEngine(cfg)
	require.NoError(t, err)
	r.GET("/ip", func(c *gin.Context) { c.String(http.StatusOK, c.ClientIP()) })

	req := httptest.NewRequest(http.MethodGet, "/ip", nil)
	req.RemoteAddr = remoteAddr
	req.Header.Set("X-Forwarded-For", forwardedFor)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	return w.Body.String()
}

func TestNewEngine_TrustedProxies(t *testing.T) {
	direct := &cfgpkg.Config{}
	require.Equal(t, "198.51.100.7", clientIP(t, direct, "198.51.100.7:1234", "213.95.190.5"))

	behindProxy := &cfgpkg.Config{Server: cfgpkg.ServerConfig{TrustedProxies: []string{"10.0.0.0/8"}}}
	require.Equal(t, "213.95.190.5", clientIP(t, behindProxy, "10.1.2.3:1234", "213.95.190.5"))
	require.Equal(t, "198.51.100.7", clientIP(t, behindProxy, "198.51.100.7:1234", "213.95.190.5"))

	_, err := newEngine(&cfgpkg.Config{Server: cfgpkg.ServerConfig{TrustedProxies: []string{"not-an-ip"}}})
	require.Error(t, err)
}
