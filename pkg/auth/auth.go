package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/rhuss/coursehub/pkg/api"
)

// AuthDecision represents the three possible outcomes of authentication.
type AuthDecision int

const (
	// Yes means credentials are valid. The chain stops and the identity is used.
	Yes AuthDecision = iota

	// No means credentials are present but invalid. The chain stops and the
	// request is rejected.
	No

	// Abstain means this authenticator cannot handle the credentials type.
	// The chain continues to the next authenticator.
	Abstain
)

// AuthResult carries the outcome of an authentication attempt.
//
// A No result whose Err does not wrap ErrUnauthenticated is a server fault
// (for example the identity store was unreachable), not a rejection.
type AuthResult struct {
	Decision AuthDecision
	Identity *Identity // populated only when Decision == Yes
	Err      error     // populated only when Decision == No
}

// Identity is the authenticated caller. It is request-scoped and never
// persisted; it carries no secret material.
type Identity struct {
	ID           int64
	EmailAddress string
	FirstName    string
	LastName     string
}

// IdentityFromUser builds the identity for a verified user.
func IdentityFromUser(u *api.User) *Identity {
	return &Identity{
		ID:           u.ID,
		EmailAddress: u.EmailAddress,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
	}
}

// Authenticator examines request credentials and returns a three-outcome vote.
type Authenticator interface {
	Authenticate(ctx context.Context, r *http.Request) AuthResult
}

// Sentinel errors. Every rejection reason wraps ErrUnauthenticated and is
// reported to clients identically.
var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrNoCredentials   = fmt.Errorf("%w: no credentials", ErrUnauthenticated)
	ErrUnknownIdentity = fmt.Errorf("%w: unknown identity", ErrUnauthenticated)
	ErrMissingSecret   = fmt.Errorf("%w: missing secret", ErrUnauthenticated)
	ErrBadSecret       = fmt.Errorf("%w: secret mismatch", ErrUnauthenticated)
	ErrTooManyRequests = errors.New("rate limit exceeded")
)

// Reason returns a stable label for a rejection error, used in logs and
// metrics. It is never sent to the client.
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrNoCredentials):
		return "no_credentials"
	case errors.Is(err, ErrUnknownIdentity):
		return "unknown_identity"
	case errors.Is(err, ErrMissingSecret):
		return "missing_secret"
	case errors.Is(err, ErrBadSecret):
		return "bad_secret"
	case errors.Is(err, ErrUnauthenticated):
		return "invalid_token"
	default:
		return "error"
	}
}

// AuthChain evaluates authenticators in order using three-outcome voting.
type AuthChain struct {
	// Authenticators are evaluated left to right.
	Authenticators []Authenticator
}

// Authenticate runs the chain. Stops on the first Yes or No. If every
// authenticator abstains the request carried no usable credentials and is
// rejected with ErrNoCredentials.
func (c *AuthChain) Authenticate(ctx context.Context, r *http.Request) AuthResult {
	for _, authn := range c.Authenticators {
		result := authn.Authenticate(ctx, r)
		if result.Decision != Abstain {
			return result
		}
	}

	return AuthResult{
		Decision: No,
		Err:      ErrNoCredentials,
	}
}
