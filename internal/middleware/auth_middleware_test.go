package middleware

import (
	"context"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anufa/anufa-backend/internal/app/model"
	"github.com/anufa/anufa-backend/pkg/util"
)

const testJWTSecret = "test-jwt-secret-for-middleware"

type fakeRevocations struct {
	ids map[string]bool
	err error
}

func (f *fakeRevocations) IsRevoked(_ context.Context, id string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	return f.ids[id], nil
}

func setupMiddlewareTest(revoked RevocationChecker) (*gin.Engine, *AuthMiddleware) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	return router, NewAuthMiddleware(testJWTSecret, revoked)
}

func generateTestTokens(t *testing.T, userID uint, role string) *util.TokenPair {
	tokens, err := util.GenerateTokenPair(userID, "test@example.com", role, testJWTSecret, 15*time.Minute, 7*24*time.Hour)
	require.NoError(t, err)
	return tokens
}

func tokenID(t *testing.T, token string) string {
	claims, err := util.ValidateToken(token, testJWTSecret)
	require.NoError(t, err)
	return claims.ID
}

func whoami(c *gin.Context) {
	userID, _ := GetUserID(c)
	role, _ := GetUserRole(c)
	c.JSON(http.StatusOK, gin.H{"user_id": userID, "role": role})
}

func doGet(router *gin.Engine, path, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware_Authenticate_Success(t *testing.T) {
	router, auth := setupMiddlewareTest(nil)
	router.GET("/test", auth.Authenticate(), whoami)

	tokens := generateTestTokens(t, 7, "customer")
	w := doGet(router, "/test", "Bearer "+tokens.AccessToken)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":7,"role":"customer"}`, w.Body.String())
}

func TestAuthMiddleware_Authenticate_NoToken(t *testing.T) {
	router, auth := setupMiddlewareTest(nil)
	router.GET("/test", auth.Authenticate(), whoami)

	w := doGet(router, "/test", "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Authorization header is required")
}

func TestAuthMiddleware_Authenticate_InvalidFormat(t *testing.T) {
	router, auth := setupMiddlewareTest(nil)
	router.GET("/test", auth.Authenticate(), whoami)

	tests := []struct {
		name   string
		header string
	}{
		{"Missing Bearer prefix", "invalid-token"},
		{"Wrong prefix", "Basic token123"},
		{"Empty token", "Bearer "},
		{"Garbage token", "Bearer invalid.jwt.token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doGet(router, "/test", tt.header)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestAuthMiddleware_Authenticate_ExpiredToken(t *testing.T) {
	router, auth := setupMiddlewareTest(nil)
	router.GET("/test", auth.Authenticate(), whoami)

	tokens, err := util.GenerateTokenPair(1, "a@example.com", "customer", testJWTSecret, -time.Minute, time.Hour)
	require.NoError(t, err)

	w := doGet(router, "/test", "Bearer "+tokens.AccessToken)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "AUTH_TOKEN_EXPIRED")
}

func TestAuthMiddleware_Authenticate_RejectsRefreshToken(t *testing.T) {
	router, auth := setupMiddlewareTest(nil)
	router.GET("/test", auth.Authenticate(), whoami)

	tokens := generateTestTokens(t, 1, "customer")
	w := doGet(router, "/test", "Bearer "+tokens.RefreshToken)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_Authenticate_QueryToken(t *testing.T) {
	router, auth := setupMiddlewareTest(nil)
	router.GET("/ws", auth.Authenticate(), whoami)

	tokens := generateTestTokens(t, 3, "customer")
	w := doGet(router, "/ws?token="+tokens.AccessToken, "")

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthMiddleware_Authenticate_Revocation(t *testing.T) {
	tokens := generateTestTokens(t, 1, "customer")
	revoked := &fakeRevocations{ids: map[string]bool{tokenID(t, tokens.AccessToken): true}}

	router, auth := setupMiddlewareTest(revoked)
	router.GET("/test", auth.Authenticate(), whoami)

	w := doGet(router, "/test", "Bearer "+tokens.AccessToken)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "AUTH_TOKEN_REVOKED")

	fresh := generateTestTokens(t, 1, "customer")
	w = doGet(router, "/test", "Bearer "+fresh.AccessToken)
	assert.Equal(t, http.StatusOK, w.Code)

	revoked.err = stderrors.New("redis down")
	w = doGet(router, "/test", "Bearer "+fresh.AccessToken)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestAuthMiddleware_OptionalAuthenticate(t *testing.T) {
	router, auth := setupMiddlewareTest(nil)
	router.GET("/maybe", auth.OptionalAuthenticate(), func(c *gin.Context) {
		_, ok := GetUserID(c)
		c.JSON(http.StatusOK, gin.H{"authenticated": ok})
	})

	tokens := generateTestTokens(t, 2, "customer")

	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"guest", "", `{"authenticated":false}`},
		{"valid", "Bearer " + tokens.AccessToken, `{"authenticated":true}`},
		{"bad format", "Token abc", `{"authenticated":false}`},
		{"refresh token", "Bearer " + tokens.RefreshToken, `{"authenticated":false}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doGet(router, "/maybe", tt.header)
			assert.Equal(t, http.StatusOK, w.Code)
			assert.JSONEq(t, tt.want, w.Body.String())
		})
	}
}

func TestAuthMiddleware_RequireRole(t *testing.T) {
	router, auth := setupMiddlewareTest(nil)
	router.GET("/admin", auth.Authenticate(), auth.RequireRole(model.RoleAdmin), whoami)

	tests := []struct {
		name           string
		role           string
		expectedStatus int
	}{
		{"admin", "admin", http.StatusOK},
		{"customer", "customer", http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens := generateTestTokens(t, 1, tt.role)
			w := doGet(router, "/admin", "Bearer "+tokens.AccessToken)
			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestAuthMiddleware_RequireRole_WithoutIdentity(t *testing.T) {
	router, auth := setupMiddlewareTest(nil)
	router.GET("/admin", auth.RequireRole(model.RoleAdmin), whoami)

	w := doGet(router, "/admin", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestContextGetters(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	_, ok := GetUserID(c)
	assert.False(t, ok)
	_, ok = GetClaims(c)
	assert.False(t, ok)

	claims := &util.Claims{UserID: 123, Email: "x@example.com", Role: "admin"}
	setIdentity(c, claims)

	userID, ok := GetUserID(c)
	assert.True(t, ok)
	assert.Equal(t, uint(123), userID)

	email, _ := GetUserEmail(c)
	assert.Equal(t, "x@example.com", email)

	role, _ := GetUserRole(c)
	assert.Equal(t, model.RoleAdmin, role)

	got, ok := GetClaims(c)
	assert.True(t, ok)
	assert.Same(t, claims, got)
}
