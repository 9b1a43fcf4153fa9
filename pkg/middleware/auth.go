package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/bistroboss/bistro/pkg/auth"
	"github.com/bistroboss/bistro/pkg/logger"
	"github.com/bistroboss/bistro/pkg/response"
)

// TokenVerifier is the part of the token service the guard needs.
type TokenVerifier interface {
	VerifyHeader(header string) (*auth.Claims, error)
}

type claimsKey struct{}

// Authenticate rejects requests without a valid bearer token. Missing,
// malformed and expired credentials answer 401; a token that fails signature
// verification answers 403. On success the claims are stored in the request
// context for the guards and handlers that follow.
func Authenticate(tokens TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := tokens.VerifyHeader(r.Header.Get("Authorization"))
			if err != nil {
				logger.WithCtx(r.Context()).Debug("authentication rejected", "error", err)
				if errors.Is(err, auth.ErrInvalidToken) {
					response.Forbidden(w)
					return
				}
				response.Unauthorized(w)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// WithClaims stores verified claims in ctx.
func WithClaims(ctx context.Context, claims *auth.Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

// ClaimsFromCtx returns the verified claims placed by Authenticate.
func ClaimsFromCtx(r *http.Request) (*auth.Claims, bool) {
	claims, ok := r.Context().Value(claimsKey{}).(*auth.Claims)
	return claims, ok && claims != nil
}

// EmailFromCtx returns the authenticated email, if any.
func EmailFromCtx(r *http.Request) (string, bool) {
	claims, ok := ClaimsFromCtx(r)
	if !ok || claims.Email == "" {
		return "", false
	}
	return claims.Email, true
}
