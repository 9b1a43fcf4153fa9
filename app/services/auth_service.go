package services

import (
	"fmt"
	"strings"

	"github.com/bistroboss/bistro/pkg/auth"
)

// AuthService issues access tokens. Issuing is stateless: no lookup, no
// uniqueness check and no rate limit beyond the HTTP middleware.
type AuthService struct {
	tokens *auth.Service
}

func NewAuthService(tokens *auth.Service) *AuthService {
	return &AuthService{tokens: tokens}
}

// IssueToken signs a token for identity.
func (s *AuthService) IssueToken(identity auth.Identity) (string, error) {
	identity.Email = strings.TrimSpace(identity.Email)
	if identity.Email == "" {
		return "", fmt.Errorf("%w: email is required", ErrInvalidInput)
	}
	return s.tokens.Issue(identity)
}
