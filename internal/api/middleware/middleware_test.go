package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret-test-secret"

func sign(t *testing.T, sub, role string) string {
	t.Helper()
	cl := jwt.MapClaims{
		"sub": sub,
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	if role != "" {
		cl["app_metadata"] = map[string]any{"role": role}
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, cl).SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func newRouter(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers := append(mw, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.GetString(CtxUserID), "role": c.GetString(CtxRole)})
	})
	r.GET("/x", handlers...)
	return r
}

func do(r http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWTAuth(t *testing.T) {
	r := newRouter(JWTAuth(AuthConfig{Secret: secret}))

	assert.Equal(t, http.StatusUnauthorized, do(r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "garbage").Code)

	w := do(r, sign(t, "user-1", ""))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":"user-1"`)
	assert.Contains(t, w.Body.String(), `"role":"user"`)
}

func TestJWTAuthQueryTokenOnUpgradeOnly(t *testing.T) {
	r := newRouter(JWTAuth(AuthConfig{Secret: secret}))
	tok := sign(t, "user-ws", "")

	req := httptest.NewRequest(http.MethodGet, "/x?access_token="+tok, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/x?access_token="+tok, nil)
	req.Header.Set("Upgrade", "websocket")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":"user-ws"`)
}

func TestJWTAuthIssuer(t *testing.T) {
	r := newRouter(JWTAuth(AuthConfig{Secret: secret, Issuer: "https://auth.example"}))
	assert.Equal(t, http.StatusUnauthorized, do(r, sign(t, "user-1", "")).Code)
}

func TestOptionalJWTAuth(t *testing.T) {
	r := newRouter(OptionalJWTAuth(AuthConfig{Secret: secret}))

	w := do(r, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":""`)

	w = do(r, sign(t, "user-2", ""))
	assert.Contains(t, w.Body.String(), `"user_id":"user-2"`)
}

func TestRequireAdmin(t *testing.T) {
	r := newRouter(JWTAuth(AuthConfig{Secret: secret}), RequireAdmin())
	assert.Equal(t, http.StatusForbidden, do(r, sign(t, "u", "")).Code)
	assert.Equal(t, http.StatusOK, do(r, sign(t, "u", "admin")).Code)
}

func TestRateLimiter(t *testing.T) {
	r := newRouter(NewRateLimiter(0.001, 2).Middleware())
	assert.Equal(t, http.StatusOK, do(r, "").Code)
	assert.Equal(t, http.StatusOK, do(r, "").Code)
	assert.Equal(t, http.StatusTooManyRequests, do(r, "").Code)
}
