package rbac_test

import (
	"context"
	"errors"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"github.com/bistroboss/bistro/pkg/auth"
	"github.com/bistroboss/bistro/pkg/middleware"
	"github.com/bistroboss/bistro/pkg/rbac"
)

func roles(m map[string]string) rbac.RoleLookup {
	return rbac.RoleLookupFunc(func(_ context.Context, email string) (string, error) {
		role, ok := m[email]
		if !ok {
			return "", rbac.ErrUnknownUser
		}
		return role, nil
	})
}

func asUser(r *http.Request, email string) *http.Request {
	ctx := middleware.WithClaims(r.Context(), &auth.Claims{Email: email})
	return r.WithContext(ctx)
}

var ok = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
})

func TestRequireAdmin(t *testing.T) {
	lookup := roles(map[string]string{
		"boss@x.com": "admin",
		"a@x.com":    "customer",
	})

	cases := []struct {
		name  string
		email string
		want  int
	}{
		{"admin passes", "boss@x.com", http.StatusNoContent},
		{"customer blocked", "a@x.com", http.StatusForbidden},
		{"unknown blocked", "ghost@x.com", http.StatusForbidden},
		{"no identity", "", http.StatusUnauthorized},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/users", nil)
			if tc.email != "" {
				req = asUser(req, tc.email)
			}
			rec := httptest.NewRecorder()
			rbac.RequireAdmin(lookup)(ok).ServeHTTP(rec, req)
			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestRequireAdmin_OnlyExactAdminRolePasses(t *testing.T) {
	alphabet := []rune("admintsrcuoADMIN ")
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 200; i++ {
		n := rng.Intn(8)
		buf := make([]rune, n)
		for j := range buf {
			buf[j] = alphabet[rng.Intn(len(alphabet))]
		}
		role := string(buf)

		rec := httptest.NewRecorder()
		req := asUser(httptest.NewRequest(http.MethodGet, "/", nil), "u@x.com")
		rbac.RequireAdmin(roles(map[string]string{"u@x.com": role}))(ok).ServeHTTP(rec, req)

		if role == "admin" {
			assert.Equal(t, http.StatusNoContent, rec.Code)
		} else {
			assert.Equal(t, http.StatusForbidden, rec.Code, "role %q", role)
		}
	}
}

func TestRequireAdmin_LookupFailure(t *testing.T) {
	lookup := rbac.RoleLookupFunc(func(context.Context, string) (string, error) {
		return "", errors.New("connection reset")
	})

	rec := httptest.NewRecorder()
	req := asUser(httptest.NewRequest(http.MethodGet, "/", nil), "boss@x.com")
	rbac.RequireAdmin(lookup)(ok).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestOwner_PathParam(t *testing.T) {
	r := chi.NewRouter()
	r.With(rbac.Owner("email")).Get("/payments/{email}", ok)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, asUser(httptest.NewRequest(http.MethodGet, "/payments/a@x.com", nil), "a@x.com"))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, asUser(httptest.NewRequest(http.MethodGet, "/payments/a@x.com", nil), "b@x.com"))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestOwnerQuery(t *testing.T) {
	guard := rbac.OwnerQuery("email")(ok)

	rec := httptest.NewRecorder()
	guard.ServeHTTP(rec, asUser(httptest.NewRequest(http.MethodGet, "/carts?email=a@x.com", nil), "b@x.com"))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	guard.ServeHTTP(rec, asUser(httptest.NewRequest(http.MethodGet, "/carts?email=a@x.com", nil), "a@x.com"))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	guard.ServeHTTP(rec, asUser(httptest.NewRequest(http.MethodGet, "/carts", nil), "a@x.com"))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	guard.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/carts?email=a@x.com", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
