// Package rbac provides role and ownership guards. Both expect
// middleware.Authenticate to have run first.
package rbac

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bistroboss/bistro/pkg/logger"
	"github.com/bistroboss/bistro/pkg/middleware"
	"github.com/bistroboss/bistro/pkg/response"
)

// RoleAdmin is the only role that passes RequireAdmin.
const RoleAdmin = "admin"

// ErrUnknownUser is returned by a RoleLookup when no account matches.
var ErrUnknownUser = errors.New("rbac: unknown user")

// RoleLookup resolves the stored role for an email.
type RoleLookup interface {
	RoleByEmail(ctx context.Context, email string) (string, error)
}

// RoleLookupFunc adapts a function to RoleLookup.
type RoleLookupFunc func(ctx context.Context, email string) (string, error)

// RoleByEmail calls f(ctx, email).
func (f RoleLookupFunc) RoleByEmail(ctx context.Context, email string) (string, error) {
	return f(ctx, email)
}

// IsAdmin reports whether role grants admin access.
func IsAdmin(role string) bool {
	return role == RoleAdmin
}

// RequireAdmin allows the request only when the stored account behind the
// token has the admin role. The role claim inside the token is ignored so a
// demotion takes effect before the token expires.
func RequireAdmin(lookup RoleLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			email, ok := middleware.EmailFromCtx(r)
			if !ok {
				response.Unauthorized(w)
				return
			}

			role, err := lookup.RoleByEmail(r.Context(), email)
			switch {
			case errors.Is(err, ErrUnknownUser):
				response.Forbidden(w)
				return
			case err != nil:
				logger.WithCtx(r.Context()).Error("role lookup failed", "email", email, "error", err)
				response.Error(w, http.StatusInternalServerError, "Internal server error")
				return
			case !IsAdmin(role):
				response.Forbidden(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// Owner allows the request only when the email named by the path parameter
// param matches the token's email.
func Owner(param string) func(http.Handler) http.Handler {
	return ownerGuard(func(r *http.Request) string {
		return chi.URLParam(r, param)
	})
}

// OwnerQuery is Owner for an email carried in the query string. A request
// without the parameter is forbidden.
func OwnerQuery(param string) func(http.Handler) http.Handler {
	return ownerGuard(func(r *http.Request) string {
		return r.URL.Query().Get(param)
	})
}

func ownerGuard(target func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			email, ok := middleware.EmailFromCtx(r)
			if !ok {
				response.Unauthorized(w)
				return
			}
			if target(r) != email {
				response.Forbidden(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
