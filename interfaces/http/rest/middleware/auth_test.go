package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storyfront-backend/pkg/auth"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "middleware-test-secret"

func testValidator(t *testing.T) *auth.JWTValidator {
	t.Helper()
	v, err := auth.NewJWTValidator(auth.JWTConfig{
		SigningMethod: "HS256",
		SecretKey:     testSecret,
		Issuer:        "storyfront",
	})
	require.NoError(t, err)
	return v
}

func mintToken(t *testing.T, userID string, roles []string) string {
	t.Helper()
	claims := auth.Claims{
		UserID: userID,
		Email:  userID + "@example.com",
		Roles:  roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "storyfront",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

// captureUser records whether the user context reached the handler.
func captureUser(dst **auth.UserContext) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*dst = auth.UserOrNil(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthenticateRejectsMissingToken(t *testing.T) {
	mw := Authenticate(testValidator(t), nil, nil, zap.NewNop())

	rec := httptest.NewRecorder()
	mw(captureUser(new(*auth.UserContext))).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticateRejectsGarbageToken(t *testing.T) {
	mw := Authenticate(testValidator(t), nil, nil, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec := httptest.NewRecorder()
	mw(captureUser(new(*auth.UserContext))).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticatePassesUserContext(t *testing.T) {
	mw := Authenticate(testValidator(t), nil, nil, zap.NewNop())

	var seen *auth.UserContext
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, "u-1", []string{"user"}))
	rec := httptest.NewRecorder()
	mw(captureUser(&seen)).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, seen)
	assert.Equal(t, "u-1", seen.UserID)
	assert.False(t, seen.IsAdmin())
}

func TestOptionalAuthenticateAllowsAnonymous(t *testing.T) {
	mw := OptionalAuthenticate(testValidator(t), nil, zap.NewNop())

	var seen *auth.UserContext
	rec := httptest.NewRecorder()
	mw(captureUser(&seen)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, seen)
}

func TestOptionalAuthenticateStillRejectsBadToken(t *testing.T) {
	mw := OptionalAuthenticate(testValidator(t), nil, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer expired-or-forged")
	rec := httptest.NewRecorder()
	mw(captureUser(new(*auth.UserContext))).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAdmin(t *testing.T) {
	validator := testValidator(t)
	chain := Authenticate(validator, nil, nil, zap.NewNop())(RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, "u-1", []string{"user"}))
	rec := httptest.NewRecorder()
	chain.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+mintToken(t, "a-1", []string{"admin"}))
	rec = httptest.NewRecorder()
	chain.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthenticateEnforcesIPRateLimit(t *testing.T) {
	mw := Authenticate(testValidator(t), auth.NewIPRateLimiter(1), nil, zap.NewNop())
	handler := mw(captureUser(new(*auth.UserContext)))
	token := mintToken(t, "u-1", []string{"user"})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}
