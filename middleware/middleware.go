package middleware

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	"evenza/globals"
	"evenza/rdx"

	"github.com/golang-jwt/jwt/v5"
	"github.com/julienschmidt/httprouter"
	"github.com/redis/go-redis/v9"
)

// JWT claims
type Claims struct {
	Username string   `json:"username"`
	UserID   string   `json:"userId"`
	Email    string   `json:"email"`
	Role     []string `json:"role"`
	jwt.RegisteredClaims
}

// sessionToken looks up the live session token login stored for a user.
// Swappable so session checks are testable without Redis.
var sessionToken = func(userID string) (string, error) {
	return rdx.RdxHget("tokki", userID)
}

// sessionLive reports whether the presented token is still the user's live
// session. Logout removes the entry and a fresh login replaces it, revoking
// older tokens either way. A Redis outage fails open with a log line.
func sessionLive(userID, raw string) bool {
	stored, err := sessionToken(userID)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false
		}
		log.Printf("Authenticate: session lookup failed for %s: %v", userID, err)
		return true
	}
	return stored == raw
}

func Authenticate(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		tokenString := r.Header.Get("Authorization")
		if tokenString == "" {
			http.Error(w, "Missing token", http.StatusUnauthorized)
			return
		}

		if len(tokenString) < 8 || tokenString[:7] != "Bearer " {
			http.Error(w, "Invalid token format", http.StatusUnauthorized)
			return
		}

		raw := tokenString[7:]
		claims := &Claims{}
		token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (any, error) {
			return globals.JwtSecret, nil
		})
		if err != nil || !token.Valid {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		if !sessionLive(claims.UserID, raw) {
			http.Error(w, "Token revoked", http.StatusUnauthorized)
			return
		}

		next(w, r.WithContext(contextWithClaims(r.Context(), claims)), ps)
	}
}

func OptionalAuth(next httprouter.Handle) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		tokenString := r.Header.Get("Authorization")
		if len(tokenString) >= 8 && tokenString[:7] == "Bearer " {
			claims := &Claims{}
			token, err := jwt.ParseWithClaims(tokenString[7:], claims, func(token *jwt.Token) (any, error) {
				return globals.JwtSecret, nil
			})
			if err == nil && token.Valid {
				r = r.WithContext(contextWithClaims(r.Context(), claims))
			}
		}
		// Proceed regardless of token state
		next(w, r, ps)
	}
}

func contextWithClaims(ctx context.Context, claims *Claims) context.Context {
	ctx = context.WithValue(ctx, globals.UserIDKey, claims.UserID)
	ctx = context.WithValue(ctx, globals.EmailKey, claims.Email)
	return context.WithValue(ctx, globals.RoleKey, claims.Role)
}

func ValidateJWT(tokenString string) (*Claims, error) {
	if tokenString == "" || len(tokenString) < 8 {
		return nil, fmt.Errorf("invalid token")
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString[7:], claims, func(token *jwt.Token) (any, error) {
		return globals.JwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("unauthorized: %w", err)
	}
	return claims, nil
}

// Chain composes httprouter middleware right-to-left around a handler.
func Chain(mws ...func(httprouter.Handle) httprouter.Handle) func(httprouter.Handle) httprouter.Handle {
	return func(final httprouter.Handle) httprouter.Handle {
		for i := len(mws) - 1; i >= 0; i-- {
			final = mws[i](final)
		}
		return final
	}
}

// RequireRoles rejects authenticated requests whose claims carry none of the
// listed roles. Must run after Authenticate.
func RequireRoles(roles ...string) func(httprouter.Handle) httprouter.Handle {
	return func(next httprouter.Handle) httprouter.Handle {
		return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
			held, _ := r.Context().Value(globals.RoleKey).([]string)
			for _, want := range roles {
				for _, have := range held {
					if want == have {
						next(w, r, ps)
						return
					}
				}
			}
			http.Error(w, "Forbidden", http.StatusForbidden)
		}
	}
}
