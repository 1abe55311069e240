package handler_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"crewline/internal/handler"
	"crewline/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthRouter(tokens service.TokenService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/whoami", handler.AuthMiddleware(tokens), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"userId": c.GetString("userID")})
	})
	return router
}

func TestAuthMiddleware(t *testing.T) {
	tokens := service.NewTokenService("test-secret")
	router := newAuthRouter(tokens)

	token, err := tokens.Issue("emp-42", time.Hour)
	require.NoError(t, err)

	ts := []struct {
		name       string
		header     string
		wantStatus int
		wantBody   string
	}{
		{"valid token", "Bearer " + token, http.StatusOK, "emp-42"},
		{"missing header", "", http.StatusUnauthorized, "missing bearer token"},
		{"not a bearer scheme", "Basic abc123", http.StatusUnauthorized, "missing bearer token"},
		{"empty bearer token", "Bearer ", http.StatusUnauthorized, "missing bearer token"},
		{"garbage token", "Bearer not-a-jwt", http.StatusUnauthorized, "invalid token"},
	}

	for _, tt := range ts {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
		})
	}
}

func TestAuthMiddlewareRejectsExpiredToken(t *testing.T) {
	tokens := service.NewTokenService("test-secret")
	router := newAuthRouter(tokens)

	expired, err := tokens.Issue("emp-42", -time.Minute)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+expired)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
