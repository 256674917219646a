// Package basic provides the HTTP Basic authenticator. The user part of the
// credentials is the login key (email address), looked up exactly as
// given; the password part is compared against the stored bcrypt hash.
package basic

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/rhuss/coursehub/pkg/auth"
	"github.com/rhuss/coursehub/pkg/debug"
	"github.com/rhuss/coursehub/pkg/storage"
)

// Authenticator verifies Basic credentials against an identity store.
type Authenticator struct {
	store  storage.IdentityStore
	hasher auth.PasswordHasher
}

// Ensure Authenticator implements auth.Authenticator at compile time.
var _ auth.Authenticator = (*Authenticator)(nil)

// New creates a Basic authenticator.
func New(store storage.IdentityStore, hasher auth.PasswordHasher) *Authenticator {
	return &Authenticator{store: store, hasher: hasher}
}

// Authenticate votes on the request's Basic credentials.
// Returns Abstain if there is no Authorization header or it uses another
// scheme, Yes with the identity on success, and No otherwise. A No whose
// error does not wrap auth.ErrUnauthenticated means the store failed.
func (a *Authenticator) Authenticate(ctx context.Context, r *http.Request) auth.AuthResult {
	if _, ok := basicPayload(r); !ok {
		return auth.AuthResult{Decision: auth.Abstain}
	}

	id, err := a.Verify(ctx, r)
	if err != nil {
		return auth.AuthResult{Decision: auth.No, Err: err}
	}
	return auth.AuthResult{Decision: auth.Yes, Identity: id}
}

// Verify resolves the request's Basic credentials to an identity. Every
// failure wraps one of auth.ErrNoCredentials, auth.ErrUnknownIdentity,
// auth.ErrMissingSecret or auth.ErrBadSecret, except store failures which
// are returned as is.
func (a *Authenticator) Verify(ctx context.Context, r *http.Request) (*auth.Identity, error) {
	login, secret, err := parse(r)
	if err != nil {
		return nil, err
	}

	user, err := a.store.GetUserByEmail(ctx, login)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, auth.ErrUnknownIdentity
	}
	if err != nil {
		return nil, fmt.Errorf("looking up identity: %w", err)
	}

	if secret == "" || user.PasswordHash == "" {
		return nil, auth.ErrMissingSecret
	}

	ok, err := a.hasher.Verify(ctx, secret, user.PasswordHash)
	if err != nil {
		// A corrupt stored hash can never match; treat it as a mismatch.
		slog.WarnContext(ctx, "password verification failed", "user_id", user.ID, "error", err)
		return nil, auth.ErrBadSecret
	}
	if !ok {
		return nil, auth.ErrBadSecret
	}

	debug.Log("auth", "basic credentials verified", "user_id", user.ID)
	return auth.IdentityFromUser(user), nil
}

// basicPayload returns the encoded credentials of a Basic Authorization
// header. The scheme is case-insensitive.
func basicPayload(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, payload, _ := strings.Cut(header, " ")
	if !strings.EqualFold(scheme, "Basic") {
		return "", false
	}
	return strings.TrimSpace(payload), true
}

// parse decodes the login and secret. The login ends at the first colon;
// the secret may contain further colons.
func parse(r *http.Request) (login, secret string, err error) {
	payload, ok := basicPayload(r)
	if !ok {
		return "", "", auth.ErrNoCredentials
	}

	decoded, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", "", fmt.Errorf("%w: malformed basic payload", auth.ErrNoCredentials)
	}

	login, secret, ok = strings.Cut(string(decoded), ":")
	if !ok {
		return "", "", fmt.Errorf("%w: basic payload has no separator", auth.ErrNoCredentials)
	}
	return login, secret, nil
}
