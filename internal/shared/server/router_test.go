package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notes-upload/internal/shared/config"
	"notes-upload/internal/shared/metrics"
)

func TestHealthAndMetricsAreOpen(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := NewRouter(RouterDeps{
		Config:  config.Config{Env: "dev", CORSAllowOrigin: []string{"http://localhost:3000"}},
		Metrics: metrics.New(),
	})

	for _, path := range []string{"/api/v1/health", "/metrics"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}

func TestHealthReportsDatabase(t *testing.T) {
	gin.SetMode(gin.TestMode)
	sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	r := NewRouter(RouterDeps{Config: config.Config{Env: "dev"}, DB: sqlDB})

	mock.ExpectPing()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "up", body["db"])

	mock.ExpectPing().WillReturnError(errors.New("connection reset"))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAddr(t *testing.T) {
	assert.Equal(t, ":8080", Addr(""))
	assert.Equal(t, ":9000", Addr("9000"))
	assert.Equal(t, ":9000", Addr(":9000"))
}
