package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func performWithKey(t *testing.T, key string, sendHeader bool) *httptest.ResponseRecorder {
	t.Helper()

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(APIKeyMiddleware(APIKeyConfig{HeaderName: "X-MAILBRIDGE-API-KEY", ValidAPIKey: "valid-key"}))
	router.GET("/protected", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"reached": true})
	})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if sendHeader {
		req.Header.Set("X-MAILBRIDGE-API-KEY", key)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAPIKeyMiddlewareAcceptsValidKey(t *testing.T) {
	w := performWithKey(t, "valid-key", true)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "reached")
}

func TestAPIKeyMiddlewareMissingKey(t *testing.T) {
	w := performWithKey(t, "", false)

	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Missing API key")
}

func TestAPIKeyMiddlewareInvalidKey(t *testing.T) {
	w := performWithKey(t, "wrong-key", true)

	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid API key")
}

func TestAPIKeyMiddlewareTrimsWhitespace(t *testing.T) {
	w := performWithKey(t, "  valid-key  ", true)

	assert.Equal(t, http.StatusOK, w.Code)
}
