package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inboxlab/mailbridge/config"
	"github.com/inboxlab/mailbridge/internal/logger"
	"github.com/inboxlab/mailbridge/internal/tracing"
	"github.com/inboxlab/mailbridge/services"
)

func testRouter(t *testing.T) *gin.Engine {
	t.Helper()

	appLogger := logger.NewAppLogger(&logger.Config{DevMode: true})
	appLogger.InitLogger()

	cfg := &config.Config{
		AppConfig:      &config.AppConfig{APIKey: "test-key"},
		MailConfig:     &config.MailConfig{DialTimeout: time.Second, AuthTimeout: time.Second, GreetingTimeout: time.Second},
		ActivityConfig: &config.ActivityConfig{Timeout: time.Second},
		Tracing:        &tracing.JaegerConfig{},
	}
	svcs, err := services.InitServices(cfg, appLogger)
	require.NoError(t, err)

	gin.SetMode(gin.TestMode)
	router := gin.New()
	RegisterRoutes(context.Background(), router, svcs, appLogger, cfg.AppConfig.APIKey)
	return router
}

func TestHealthEndpointNeedsNoKey(t *testing.T) {
	router := testRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ok")
}

func TestProtectedRoutesRejectMissingKey(t *testing.T) {
	router := testRouter(t)

	for _, path := range []string{
		"/v1/connections/test",
		"/v1/messages/fetch",
		"/v1/messages/send",
		"/v1/messages/read",
		"/v1/folders/list",
		"/v1/settings/resolve",
		"/v1/activity/invoke",
	} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, path, strings.NewReader(`{}`)))

		assert.Equal(t, http.StatusUnauthorized, w.Code, "path %s must require an API key", path)
	}
}

func TestProtectedRouteWithKeyReachesHandler(t *testing.T) {
	router := testRouter(t)

	// An empty body passes auth and fails validation, proving the request
	// reached the handler rather than the key check.
	req := httptest.NewRequest(http.MethodPost, "/v1/messages/read", strings.NewReader(`{}`))
	req.Header.Set("X-MAILBRIDGE-API-KEY", "test-key")
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "errors")
}

func TestSettingsResolveEndToEnd(t *testing.T) {
	router := testRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/settings/resolve", strings.NewReader(`{"email":"user@gmail.com","protocol":"smtp"}`))
	req.Header.Set("X-MAILBRIDGE-API-KEY", "test-key")
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "smtp.gmail.com")
}
