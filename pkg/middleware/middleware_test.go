package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bistroboss/bistro/pkg/auth"
	"github.com/bistroboss/bistro/pkg/middleware"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		email, _ := middleware.EmailFromCtx(r)
		_, _ = w.Write([]byte(email))
	})
}

func TestAuthenticate(t *testing.T) {
	tokens := auth.NewService(auth.Config{Secret: "middleware-test-secret-0123456789", TTL: time.Hour})
	valid, err := tokens.Issue(auth.Identity{Email: "a@x.com"})
	require.NoError(t, err)

	expired, err := auth.NewService(auth.Config{Secret: "middleware-test-secret-0123456789", TTL: time.Hour}).
		WithClock(func() time.Time { return time.Now().Add(-2 * time.Hour) }).
		Issue(auth.Identity{Email: "a@x.com"})
	require.NoError(t, err)

	forged, err := auth.NewService(auth.Config{Secret: "some-other-secret-entirely-000000"}).Issue(auth.Identity{Email: "a@x.com"})
	require.NoError(t, err)

	cases := []struct {
		name   string
		header string
		code   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"malformed header", "Token " + valid, http.StatusUnauthorized},
		{"expired token", "Bearer " + expired, http.StatusUnauthorized},
		{"bad signature", "Bearer " + forged, http.StatusForbidden},
		{"garbage token", "Bearer abc", http.StatusForbidden},
		{"valid token", "Bearer " + valid, http.StatusOK},
	}

	h := middleware.Authenticate(tokens)(okHandler())
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tc.code, rec.Code)
			if tc.code == http.StatusOK {
				assert.Equal(t, "a@x.com", rec.Body.String())
			}
		})
	}
}

func TestRecovery(t *testing.T) {
	h := middleware.Recovery(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestCORS_Preflight(t *testing.T) {
	h := middleware.CORS(middleware.DefaultCORSOptions("https://bistro.example"))(okHandler())

	req := httptest.NewRequest(http.MethodOptions, "/menu", nil)
	req.Header.Set("Origin", "https://bistro.example")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://bistro.example", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/menu", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimiter(t *testing.T) {
	rl := middleware.NewRateLimiter(0.0001, 2)
	h := rl.Middleware(okHandler())

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{200, 200, 429}, codes)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, 2, rl.Size())
	rl.Sweep(time.Now().Add(time.Hour))
	assert.Equal(t, 0, rl.Size())
}
