// Package identity supplies the current actor's identity and the
// authorization-header capability used by every network call.
package identity

import (
	"fmt"
	"net/http"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/briefly-ai/briefly-go/internal/errors"
	"github.com/briefly-ai/briefly-go/pkg/credstore"
)

// Authenticator applies authentication to outgoing requests.
type Authenticator interface {
	Apply(req *http.Request) error
}

// StaticToken authenticates with a fixed bearer token. Used for development
// against the stub server.
type StaticToken struct {
	Token string
}

func (s *StaticToken) Apply(req *http.Request) error {
	if s.Token == "" {
		return fmt.Errorf("no session token configured: %w", apperrors.ErrAuth)
	}
	req.Header.Set("Authorization", "Bearer "+s.Token)
	return nil
}

// StoreAuth authenticates with the credential held in a credstore. A missing
// or expired credential surfaces as an AuthError before the request is sent.
type StoreAuth struct {
	Store credstore.Store
}

func (s *StoreAuth) Apply(req *http.Request) error {
	cred, err := s.Store.Current(req.Context())
	if err != nil {
		return fmt.Errorf("session credential: %w: %w", apperrors.ErrAuth, err)
	}
	if expired(cred.Token) {
		return fmt.Errorf("session token expired: %w", apperrors.ErrAuth)
	}
	req.Header.Set("Authorization", "Bearer "+cred.Token)
	return nil
}

// Current returns the identity attached to the active credential.
func (s *StoreAuth) Current(req *http.Request) (*credstore.Identity, error) {
	cred, err := s.Store.Current(req.Context())
	if err != nil {
		return nil, fmt.Errorf("session credential: %w: %w", apperrors.ErrAuth, err)
	}
	ident := cred.Identity
	return &ident, nil
}

// expired checks the token's exp claim without verifying the signature.
// Verification is the server's job; this only avoids sending a request that
// is guaranteed to bounce. Tokens that do not parse as JWTs pass through;
// the server decides.
func expired(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Time.Before(timeNow())
}
