// Package payment talks to the card payment provider's REST API.
package payment

import (
	"context"
	"errors"
	"fmt"
	gohttp "net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bistroboss/bistro/pkg/http"
)

// ErrNotConfigured is returned when no secret key is set.
var ErrNotConfigured = errors.New("payment: provider secret key not configured")

// Config holds the provider credentials.
type Config struct {
	SecretKey string
	BaseURL   string
	Timeout   time.Duration
	// Client overrides the shared HTTP client, mainly for tests.
	Client *gohttp.Client
}

// IntentRequest asks the provider to prepare a card charge. Amount is in the
// currency's smallest unit.
type IntentRequest struct {
	Amount         int64
	Currency       string
	IdempotencyKey string
}

// Intent is the subset of the provider's payment intent the service uses.
type Intent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
	Status       string `json:"status"`
}

// ProviderError is a non-2xx answer from the provider.
type ProviderError struct {
	StatusCode int
	Type       string
	Code       string
	Message    string
}

func (e *ProviderError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("payment: provider returned %d (%s/%s): %s", e.StatusCode, e.Type, e.Code, e.Message)
	}
	return fmt.Sprintf("payment: provider returned %d: %s", e.StatusCode, e.Message)
}

// Stripe creates payment intents through the Stripe REST API.
type Stripe struct {
	secretKey string
	baseURL   string
	timeout   time.Duration
	client    *gohttp.Client
}

func NewStripe(cfg Config) *Stripe {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = "https://api.stripe.com"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Stripe{secretKey: cfg.SecretKey, baseURL: base, timeout: timeout, client: cfg.Client}
}

// CreateIntent creates a card-only payment intent. Every request carries an
// idempotency key, so transport retries never create a second intent.
func (s *Stripe) CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error) {
	if s.secretKey == "" {
		return nil, ErrNotConfigured
	}
	key := req.IdempotencyKey
	if key == "" {
		key = uuid.NewString()
	}

	form := url.Values{}
	form.Set("amount", strconv.FormatInt(req.Amount, 10))
	form.Set("currency", strings.ToLower(req.Currency))
	form.Add("payment_method_types[]", "card")

	resp, err := http.Post(s.baseURL+"/v1/payment_intents").
		BasicAuth(s.secretKey, "").
		Header("Idempotency-Key", key).
		Form(form).
		Timeout(s.timeout).
		Retry(3, 250*time.Millisecond).
		Client(s.client).
		WithContext(ctx).
		Send()
	if err != nil {
		return nil, err
	}

	if !resp.OK() {
		var body struct {
			Error struct {
				Type    string `json:"type"`
				Code    string `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}
		_ = resp.JSON(&body)
		return nil, &ProviderError{
			StatusCode: resp.StatusCode,
			Type:       body.Error.Type,
			Code:       body.Error.Code,
			Message:    body.Error.Message,
		}
	}

	var intent Intent
	if err := resp.JSON(&intent); err != nil {
		return nil, err
	}
	if intent.ClientSecret == "" {
		return nil, errors.New("payment: provider answered without a client secret")
	}
	return &intent, nil
}
