package middleware_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docstracker/internal/auth"
	"docstracker/internal/config"
	"docstracker/internal/middleware"
)

func authEngine(t *testing.T) (*gin.Engine, *auth.TokenManager) {
	t.Helper()
	tokens, err := auth.NewTokenManager(config.AuthConfig{
		Secret:   "test-secret",
		Issuer:   "docstracker",
		Audience: "docstracker-api",
		TokenTTL: time.Hour,
	})
	require.NoError(t, err)

	log, _ := test.NewNullLogger()
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger(log))
	r.GET("/api/v1/reference", middleware.Auth(tokens), func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(middleware.ContextKeySubject))
	})
	return r, tokens
}

func TestAuth_ValidToken(t *testing.T) {
	r, tokens := authEngine(t)
	token, err := tokens.Issue("ops-scheduler", 0)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/reference", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ops-scheduler", w.Body.String())
}

func TestAuth_Rejected(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic b3BzOnB3"},
		{"invalid token", "Bearer not-a-token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := authEngine(t)
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/api/v1/reference", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			r.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			var body struct {
				Success bool `json:"success"`
				Error   struct {
					Code string `json:"code"`
				} `json:"error"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.False(t, body.Success)
			assert.Equal(t, "UNAUTHORIZED", body.Error.Code)
		})
	}
}
