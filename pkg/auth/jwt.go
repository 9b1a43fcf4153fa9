// Package auth issues and verifies the signed identity tokens handed out by
// POST /jwt. Tokens are HS256 JWTs carrying the caller's email and are never
// persisted; verification only needs the shared secret.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMissingToken means no usable bearer credential was presented.
	ErrMissingToken = errors.New("auth: missing or malformed bearer token")
	// ErrTokenExpired means the token was genuine but its lifetime elapsed.
	ErrTokenExpired = errors.New("auth: token expired")
	// ErrInvalidToken means the signature or claims did not verify.
	ErrInvalidToken = errors.New("auth: invalid token")
)

// Identity is the payload a client asks to have signed.
type Identity struct {
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
}

// Claims holds the typed JWT payload.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Config holds token signing configuration.
type Config struct {
	Secret string
	TTL    time.Duration
}

// Service signs and verifies tokens with one process-wide secret.
type Service struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewService builds a Service. A non-positive TTL falls back to one hour.
func NewService(cfg Config) *Service {
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Service{secret: []byte(cfg.Secret), ttl: ttl, now: time.Now}
}

// WithClock replaces the time source. Used by tests to step past expiry.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// TTL returns the lifetime given to new tokens.
func (s *Service) TTL() time.Duration { return s.ttl }

// Issue creates a signed token for the given identity.
func (s *Service) Issue(id Identity) (string, error) {
	now := s.now()
	claims := Claims{
		Email: id.Email,
		Role:  id.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a raw token string.
func (s *Service) Verify(raw string) (*Claims, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, ErrMissingToken
	}

	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Email == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// VerifyHeader extracts the bearer token from an Authorization header value
// and verifies it.
func (s *Service) VerifyHeader(header string) (*Claims, error) {
	raw, err := BearerToken(header)
	if err != nil {
		return nil, err
	}
	return s.Verify(raw)
}

// BearerToken returns the credential from "Bearer <token>".
func BearerToken(header string) (string, error) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", ErrMissingToken
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrMissingToken
	}
	return token, nil
}
