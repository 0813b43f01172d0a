// Package credstore stores session credentials handed over by the auth
// collaborator. The client never acquires tokens itself; it only holds what
// it was given and forgets it on expiry or logout.
package credstore

import (
	"context"
	"errors"
	"time"
)

var (
	ErrCredentialNotFound = errors.New("credential not found")
	ErrCredentialExpired  = errors.New("credential expired")
)

// Identity describes the actor a credential belongs to.
type Identity struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

// Credential is a session token plus the identity it authenticates.
type Credential struct {
	Token     string    `json:"token"`
	Identity  Identity  `json:"identity"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the credential is past its expiry. A zero expiry
// means the issuer did not communicate one and the credential never expires
// locally.
func (c *Credential) Expired() bool {
	return !c.ExpiresAt.IsZero() && time.Now().After(c.ExpiresAt)
}

// Store defines credential storage. Implementations must be safe for
// concurrent use.
type Store interface {
	// Put stores the active credential, replacing any previous one.
	Put(ctx context.Context, cred Credential) error
	// Current returns the active credential. Returns ErrCredentialNotFound
	// or ErrCredentialExpired.
	Current(ctx context.Context) (*Credential, error)
	// Clear removes the active credential (logout).
	Clear(ctx context.Context) error
}
