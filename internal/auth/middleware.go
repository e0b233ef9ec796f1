package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/rinniizz/crudapi/internal/models"
	pkghttp "github.com/rinniizz/crudapi/pkg/http"
)

// contextKey is a custom type for context keys
type contextKey string

const (
	// UserContextKey is the key for storing user claims in context
	UserContextKey contextKey = "user"
)

// TokenVerifier is the subset of TokenManager the gate needs
type TokenVerifier interface {
	Verify(tokenString string) (*models.TokenClaims, error)
}

// Authenticate validates the bearer token and injects its claims into context
func Authenticate(tv TokenVerifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, ok := bearerToken(r)
			if !ok {
				pkghttp.WriteUnauthorized(w, "Access token is required")
				return
			}

			claims, err := tv.Verify(tokenString)
			if err != nil {
				if errors.Is(err, ErrTokenExpired) {
					pkghttp.WriteUnauthorized(w, "Token expired")
					return
				}
				pkghttp.WriteUnauthorized(w, "Invalid token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(authHeader, " ")
	if !found || scheme != "Bearer" {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// RequireRole admits requests whose token role is one of roles.
// Must run after Authenticate; the decision uses the token's role claim.
func RequireRole(roles ...models.Role) func(next http.Handler) http.Handler {
	allowed := make(map[models.Role]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := GetUserFromContext(r)
			if claims == nil {
				pkghttp.WriteUnauthorized(w, "Authentication required")
				return
			}

			if _, ok := allowed[claims.Role]; !ok {
				pkghttp.WriteForbidden(w, "Insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// WithClaims returns a copy of ctx carrying claims
func WithClaims(ctx context.Context, claims *models.TokenClaims) context.Context {
	return context.WithValue(ctx, UserContextKey, claims)
}

// GetUserFromContext extracts user claims from request context
func GetUserFromContext(r *http.Request) *models.TokenClaims {
	claims, ok := r.Context().Value(UserContextKey).(*models.TokenClaims)
	if !ok {
		return nil
	}
	return claims
}
