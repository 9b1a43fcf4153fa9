package payment_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bistroboss/bistro/pkg/payment"
)

func TestStripe_CreateIntent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/payment_intents", r.URL.Path)
		user, _, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "sk_test_123", user)
		assert.NotEmpty(t, r.Header.Get("Idempotency-Key"))

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "1099", r.PostForm.Get("amount"))
		assert.Equal(t, "usd", r.PostForm.Get("currency"))
		assert.Equal(t, []string{"card"}, r.PostForm["payment_method_types[]"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"pi_1","client_secret":"pi_1_secret_abc","amount":1099,"currency":"usd","status":"requires_payment_method"}`))
	}))
	defer srv.Close()

	s := payment.NewStripe(payment.Config{SecretKey: "sk_test_123", BaseURL: srv.URL + "/"})
	intent, err := s.CreateIntent(context.Background(), payment.IntentRequest{Amount: 1099, Currency: "USD"})
	require.NoError(t, err)
	assert.Equal(t, "pi_1_secret_abc", intent.ClientSecret)
	assert.Equal(t, int64(1099), intent.Amount)
}

func TestStripe_ProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"type":"invalid_request_error","code":"amount_too_small","message":"Amount must be at least $0.50 usd"}}`))
	}))
	defer srv.Close()

	s := payment.NewStripe(payment.Config{SecretKey: "sk_test", BaseURL: srv.URL})
	_, err := s.CreateIntent(context.Background(), payment.IntentRequest{Amount: 10, Currency: "usd"})

	var perr *payment.ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, http.StatusBadRequest, perr.StatusCode)
	assert.Equal(t, "amount_too_small", perr.Code)
}

func TestStripe_NotConfigured(t *testing.T) {
	_, err := payment.NewStripe(payment.Config{}).CreateIntent(context.Background(), payment.IntentRequest{Amount: 100})
	assert.ErrorIs(t, err, payment.ErrNotConfigured)
}

func TestStripe_MissingClientSecret(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"id":"pi_1"}`))
	}))
	defer srv.Close()

	_, err := payment.NewStripe(payment.Config{SecretKey: "sk", BaseURL: srv.URL}).
		CreateIntent(context.Background(), payment.IntentRequest{Amount: 100, Currency: "usd"})
	assert.Error(t, err)
}
