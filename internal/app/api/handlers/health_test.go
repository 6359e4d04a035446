package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/fatflowers/payport/internal/platform/db/dbtest"
	"github.com/fatflowers/payport/pkg/response"
)

func TestReadyz(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := dbtest.New(t)
	r := gin.New()
	RegisterHealthRoutes(r, db)

	w, env := perform(t, r, http.MethodGet, "/readyz", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, response.APIResponseCodeOK, env.Code)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	w, env = perform(t, r, http.MethodGet, "/readyz", nil)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	require.Equal(t, response.APIResponseCodeError, env.Code)
}
