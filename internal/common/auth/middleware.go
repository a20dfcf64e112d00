// internal/common/auth/middleware.go
package auth

import (
	"context"
	"net/http"
	"strings"

	apperrors "provider-enrollment/internal/common/errors"
	"provider-enrollment/internal/common/logger"
)

// Validator is satisfied by *TokenService.
type Validator interface {
	ValidateToken(tokenString string) (*Claims, error)
}

type contextKeyClaims struct{}

// ClaimsFromContext returns the claims stored by Protect.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(contextKeyClaims{}).(*Claims)
	return claims, ok && claims != nil
}

// WithClaims stores claims on ctx.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, contextKeyClaims{}, claims)
}

// Protect rejects requests without a valid bearer token.
func Protect(validator Validator, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				log.Warn("Unauthorized access - missing token", map[string]interface{}{
					"path": r.URL.Path,
				})
				apperrors.WriteError(w, apperrors.NewUnauthorizedError("missing bearer token"))
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				log.Warn("Unauthorized access - invalid token", map[string]interface{}{
					"path":  r.URL.Path,
					"error": err,
				})
				apperrors.WriteError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// Authorize admits only the listed roles. It must run after Protect.
func Authorize(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				apperrors.WriteError(w, apperrors.NewUnauthorizedError("missing claims"))
				return
			}
			for _, role := range roles {
				if claims.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			apperrors.WriteError(w, apperrors.NewForbiddenError(claims.Role))
		})
	}
}
