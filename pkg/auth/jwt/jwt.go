// Package jwt provides a bearer-token authenticator that validates
// RSA-signed JWTs against a JWKS (JSON Web Key Set) endpoint and resolves
// the configured claim to a user through the identity store.
//
// It is an optional companion to HTTP Basic: a valid token whose login key
// has no matching user is rejected like an unknown Basic identity.
package jwt

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"

	"github.com/rhuss/coursehub/pkg/auth"
	"github.com/rhuss/coursehub/pkg/debug"
	"github.com/rhuss/coursehub/pkg/storage"
)

// Config holds the JWT authenticator configuration.
type Config struct {
	// Issuer is the expected iss claim. Not checked when empty.
	Issuer string

	// Audience is the expected aud claim. Not checked when empty.
	Audience string

	// JWKSURL serves the signing keys.
	JWKSURL string

	// UserClaim is the JWT claim holding the login key. Default: "email".
	UserClaim string

	// CacheTTL controls how long fetched keys are trusted. Default: 1 hour.
	CacheTTL time.Duration

	// HTTPClient fetches the key set. Default: a client with a 10s timeout.
	HTTPClient *http.Client
}

func (c *Config) applyDefaults() {
	if c.UserClaim == "" {
		c.UserClaim = "email"
	}
	if c.CacheTTL == 0 {
		c.CacheTTL = time.Hour
	}
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
}

// Authenticator validates JWT bearer tokens and maps them to users.
type Authenticator struct {
	claim  string
	store  storage.IdentityStore
	keys   *keySet
	parser *jwtlib.Parser
}

// New creates a JWT authenticator that resolves identities through store.
func New(cfg Config, store storage.IdentityStore) *Authenticator {
	cfg.applyDefaults()

	opts := []jwtlib.ParserOption{
		jwtlib.WithValidMethods([]string{"RS256", "RS384", "RS512"}),
		jwtlib.WithExpirationRequired(),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwtlib.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwtlib.WithAudience(cfg.Audience))
	}

	return &Authenticator{
		claim:  cfg.UserClaim,
		store:  store,
		keys:   newKeySet(cfg.JWKSURL, cfg.CacheTTL, cfg.HTTPClient),
		parser: jwtlib.NewParser(opts...),
	}
}

// Authenticate abstains unless the request carries a Bearer token. An
// invalid token or a login key with no user is a rejection; a store failure
// is returned as a No whose error is not an authentication failure, so the
// middleware reports it as a fault.
func (a *Authenticator) Authenticate(ctx context.Context, r *http.Request) auth.AuthResult {
	token, ok := bearerToken(r)
	if !ok {
		return auth.AuthResult{Decision: auth.Abstain}
	}
	if token == "" {
		return reject(fmt.Errorf("%w: empty bearer token", auth.ErrUnauthenticated))
	}

	login, err := a.login(ctx, token)
	if err != nil {
		return reject(err)
	}

	user, err := a.store.GetUserByEmail(ctx, login)
	if errors.Is(err, storage.ErrNotFound) {
		return reject(auth.ErrUnknownIdentity)
	}
	if err != nil {
		return auth.AuthResult{Decision: auth.No, Err: fmt.Errorf("looking up token identity: %w", err)}
	}

	debug.Log("auth", "bearer token accepted", "user_id", user.ID)
	return auth.AuthResult{Decision: auth.Yes, Identity: auth.IdentityFromUser(user)}
}

// login verifies token and returns its login claim.
func (a *Authenticator) login(ctx context.Context, token string) (string, error) {
	parsed, err := a.parser.Parse(token, func(t *jwtlib.Token) (any, error) {
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, errors.New("token missing kid header")
		}
		return a.keys.key(ctx, kid)
	})
	if err != nil {
		debug.Log("auth", "JWT validation failed", "error", err)
		return "", fmt.Errorf("%w: invalid JWT: %w", auth.ErrUnauthenticated, err)
	}

	claims, ok := parsed.Claims.(jwtlib.MapClaims)
	if !ok {
		return "", fmt.Errorf("%w: invalid JWT claims", auth.ErrUnauthenticated)
	}
	login, _ := claims[a.claim].(string)
	if login == "" {
		return "", fmt.Errorf("%w: JWT missing %q claim", auth.ErrNoCredentials, a.claim)
	}
	return login, nil
}

// bearerToken reports whether r uses the Bearer scheme and returns the token.
func bearerToken(r *http.Request) (string, bool) {
	scheme, token, _ := strings.Cut(r.Header.Get("Authorization"), " ")
	if !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	return strings.TrimSpace(token), true
}

func reject(err error) auth.AuthResult {
	return auth.AuthResult{Decision: auth.No, Err: err}
}
