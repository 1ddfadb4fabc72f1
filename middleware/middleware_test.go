package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"evenza/globals"

	"github.com/golang-jwt/jwt/v5"
	"github.com/julienschmidt/httprouter"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, userID string) string {
	t.Helper()
	claims := &Claims{
		UserID: userID,
		Role:   []string{"customer"},
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(globals.JwtSecret)
	require.NoError(t, err)
	return raw
}

func stubSession(t *testing.T, fn func(userID string) (string, error)) {
	t.Helper()
	prev := sessionToken
	sessionToken = fn
	t.Cleanup(func() { sessionToken = prev })
}

func authenticate(t *testing.T, token string) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	called := false
	handler := Authenticate(func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		called = true
		w.WriteHeader(http.StatusOK)
	})

	r := httptest.NewRequest("GET", "/api/orders", nil)
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	handler(w, r, nil)
	return w, called
}

func TestAuthenticateLiveSession(t *testing.T) {
	raw := signToken(t, "u1")
	stubSession(t, func(string) (string, error) { return raw, nil })

	w, called := authenticate(t, raw)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, called)
}

func TestAuthenticateRevokedAfterLogout(t *testing.T) {
	raw := signToken(t, "u1")
	stubSession(t, func(string) (string, error) { return "", redis.Nil })

	w, called := authenticate(t, raw)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, called)
}

func TestAuthenticateSupersededByNewerLogin(t *testing.T) {
	old := signToken(t, "u1")
	stubSession(t, func(string) (string, error) { return "a-newer-token", nil })

	w, called := authenticate(t, old)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, called)
}

func TestAuthenticateFailsOpenOnSessionStoreOutage(t *testing.T) {
	raw := signToken(t, "u1")
	stubSession(t, func(string) (string, error) { return "", errors.New("connection refused") })

	w, called := authenticate(t, raw)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, called)
}

func TestAuthenticateRejectsBadTokens(t *testing.T) {
	stubSession(t, func(string) (string, error) { return "", nil })

	w, called := authenticate(t, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, called)

	w, called = authenticate(t, "not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, called)
}
