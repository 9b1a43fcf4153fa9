package router_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bistroboss/bistro/pkg/router"
)

func tag(name string, trail *[]string) router.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			*trail = append(*trail, name)
			next.ServeHTTP(w, r)
		})
	}
}

func stop(trail *[]string) router.Middleware {
	return func(http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			*trail = append(*trail, "stop")
			w.WriteHeader(http.StatusForbidden)
		})
	}
}

func TestGroup_MiddlewareOrderAndShortCircuit(t *testing.T) {
	var trail []string
	r := router.New()

	g := r.Group("/", tag("group", &trail))
	g.Get("/open", "open", func(w http.ResponseWriter, _ *http.Request) {
		trail = append(trail, "handler")
	}, tag("route", &trail))
	g.Get("/closed", "closed", func(w http.ResponseWriter, _ *http.Request) {
		trail = append(trail, "handler")
	}, stop(&trail), tag("never", &trail))

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/open", nil))
	assert.Equal(t, []string{"group", "route", "handler"}, trail)

	trail = nil
	rec = httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/closed", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, []string{"group", "stop"}, trail)
}

func TestRouter_PathParamsAndMethods(t *testing.T) {
	r := router.New()
	r.Delete("/carts/{id}", "carts.destroy", func(w http.ResponseWriter, req *http.Request) {
		_, _ = w.Write([]byte(chi.URLParam(req, "id")))
	})
	r.Patch("/users/admin/{id}", "users.promote", func(w http.ResponseWriter, _ *http.Request) {})

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/carts/abc", nil))
	assert.Equal(t, "abc", rec.Body.String())

	rec = httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/carts/abc", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRouter_RoutesAndURL(t *testing.T) {
	r := router.New()
	noop := func(http.ResponseWriter, *http.Request) {}
	r.Get("/payments/{email}", "payments.index", noop)
	r.Post("/payments", "payments.store", noop)
	r.Get("/menu", "", noop)

	routes := r.Routes()
	require.Len(t, routes, 2)
	assert.Equal(t, router.RouteInfo{Method: http.MethodPost, Path: "/payments", Name: "payments.store"}, routes[0])
	assert.Equal(t, "/payments/{email}", routes[1].Path)

	url, err := r.URL("payments.index", map[string]string{"email": "a@x.com"})
	require.NoError(t, err)
	assert.Equal(t, "/payments/a@x.com", url)

	_, err = r.URL("payments.index", nil)
	assert.Error(t, err)
	_, err = r.URL("nope", nil)
	assert.Error(t, err)
}
