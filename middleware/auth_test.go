package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/rakeshsingh12700/dearstudent62-storefront/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func buyerClaims(email string) jwt.MapClaims {
	return jwt.MapClaims{
		"user_id": "user-1",
		"email":   email,
		"exp":     time.Now().Add(time.Hour).Unix(),
		"iat":     time.Now().Unix(),
	}
}

func setupAuthRouter(auth *middleware.Authenticator) *gin.Engine {
	r := gin.New()
	echo := func(c *gin.Context) {
		b := middleware.GetBuyer(c)
		c.JSON(http.StatusOK, gin.H{"email": b.Email, "user_id": b.UserID})
	}
	r.GET("/private", auth.RequireAuth(), echo)
	r.GET("/optional", auth.OptionalAuth(), echo)
	r.GET("/admin", auth.RequireAuth(), auth.AdminOnly(), echo)
	return r
}

func get(r http.Handler, path, token string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequireAuth(t *testing.T) {
	auth := middleware.NewAuthenticator(testSecret, nil)
	r := setupAuthRouter(auth)

	w := get(r, "/private", signToken(t, testSecret, buyerClaims("Asha@Example.com")))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"email":"asha@example.com","user_id":"user-1"}`, w.Body.String())

	w = get(r, "/private", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Token is required")

	w = get(r, "/private", signToken(t, "other-secret", buyerClaims("asha@example.com")))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid or expired token")
}

func TestRequireAuth_ExpiredAndWrongAlg(t *testing.T) {
	auth := middleware.NewAuthenticator(testSecret, nil)
	r := setupAuthRouter(auth)

	expired := buyerClaims("asha@example.com")
	expired["exp"] = time.Now().Add(-time.Minute).Unix()
	assert.Equal(t, http.StatusUnauthorized, get(r, "/private", signToken(t, testSecret, expired)).Code)

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, buyerClaims("asha@example.com")).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, get(r, "/private", unsigned).Code)
}

func TestRequireAuth_SubjectFallbackAndCookie(t *testing.T) {
	auth := middleware.NewAuthenticator(testSecret, nil)
	r := setupAuthRouter(auth)
	token := signToken(t, testSecret, jwt.MapClaims{"sub": "uid-9", "exp": time.Now().Add(time.Hour).Unix()})

	req, _ := http.NewRequest(http.MethodGet, "/private", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: token})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"email":"","user_id":"uid-9"}`, w.Body.String())
}

func TestRequireAuth_NoIdentityClaims(t *testing.T) {
	auth := middleware.NewAuthenticator(testSecret, nil)
	r := setupAuthRouter(auth)

	token := signToken(t, testSecret, jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()})
	assert.Equal(t, http.StatusUnauthorized, get(r, "/private", token).Code)
}

func TestRequireAuth_NoSecretConfigured(t *testing.T) {
	r := setupAuthRouter(middleware.NewAuthenticator("  ", nil))

	assert.Equal(t, http.StatusUnauthorized, get(r, "/private", signToken(t, testSecret, buyerClaims("a@b.c"))).Code)
}

func TestOptionalAuth(t *testing.T) {
	r := setupAuthRouter(middleware.NewAuthenticator(testSecret, nil))

	w := get(r, "/optional", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"email":"","user_id":""}`, w.Body.String())

	w = get(r, "/optional", "garbage")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"email":"","user_id":""}`, w.Body.String())

	w = get(r, "/optional", signToken(t, testSecret, buyerClaims("asha@example.com")))
	assert.JSONEq(t, `{"email":"asha@example.com","user_id":"user-1"}`, w.Body.String())
}

func TestAdminOnly(t *testing.T) {
	r := setupAuthRouter(middleware.NewAuthenticator(testSecret, []string{" Admin@Example.com ", ""}))

	w := get(r, "/admin", signToken(t, testSecret, buyerClaims("admin@example.com")))
	assert.Equal(t, http.StatusOK, w.Code)

	w = get(r, "/admin", signToken(t, testSecret, buyerClaims("asha@example.com")))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "Admin access required")

	assert.Equal(t, http.StatusUnauthorized, get(r, "/admin", "").Code)
}
