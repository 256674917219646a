package basic

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http/httptest"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/rhuss/coursehub/pkg/api"
	"github.com/rhuss/coursehub/pkg/auth"
	"github.com/rhuss/coursehub/pkg/storage"
	"github.com/rhuss/coursehub/pkg/storage/memory"
)

func newTestAuthenticator(t *testing.T) (*Authenticator, *api.User) {
	t.Helper()
	ctx := context.Background()

	hasher, err := auth.NewBcryptHasher(bcrypt.MinCost)
	if err != nil {
		t.Fatalf("NewBcryptHasher: %v", err)
	}
	hash, err := hasher.Hash(ctx, "password123")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}

	store := memory.New()
	joe := &api.User{FirstName: "Joe", LastName: "Smith", EmailAddress: "joe@smith.com", PasswordHash: hash}
	if err := store.CreateUser(ctx, joe); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if err := store.CreateUser(ctx, &api.User{FirstName: "No", LastName: "Hash", EmailAddress: "nohash@example.com"}); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if err := store.CreateUser(ctx, &api.User{FirstName: "Bad", LastName: "Hash", EmailAddress: "badhash@example.com", PasswordHash: "corrupt"}); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	return New(store, hasher), joe
}

func encode(s string) string {
	return base64.StdEncoding.EncodeToString([]byte(s))
}

func TestAuthenticate_Success(t *testing.T) {
	a, joe := newTestAuthenticator(t)

	r := httptest.NewRequest("GET", "/", nil)
	r.SetBasicAuth("joe@smith.com", "password123")

	result := a.Authenticate(context.Background(), r)

	if result.Decision != auth.Yes {
		t.Fatalf("Decision = %d, want Yes; err=%v", result.Decision, result.Err)
	}
	want := auth.Identity{ID: joe.ID, EmailAddress: "joe@smith.com", FirstName: "Joe", LastName: "Smith"}
	if *result.Identity != want {
		t.Errorf("Identity = %+v, want %+v", *result.Identity, want)
	}
}

func TestAuthenticate_Abstains(t *testing.T) {
	a, _ := newTestAuthenticator(t)

	for _, header := range []string{"", "Bearer abc.def.ghi", "Digest username=joe"} {
		r := httptest.NewRequest("GET", "/", nil)
		if header != "" {
			r.Header.Set("Authorization", header)
		}

		if result := a.Authenticate(context.Background(), r); result.Decision != auth.Abstain {
			t.Errorf("header %q: Decision = %d, want Abstain", header, result.Decision)
		}
	}
}

func TestAuthenticate_Rejections(t *testing.T) {
	a, _ := newTestAuthenticator(t)

	tests := []struct {
		name   string
		header string
		want   error
	}{
		{"bad base64", "Basic !!!notbase64", auth.ErrNoCredentials},
		{"no colon", "Basic " + encode("joe@smith.com"), auth.ErrNoCredentials},
		{"unknown email", "Basic " + encode("nobody@example.com:password123"), auth.ErrUnknownIdentity},
		{"email case differs", "Basic " + encode("Joe@Smith.com:password123"), auth.ErrUnknownIdentity},
		{"empty login", "Basic " + encode(":password123"), auth.ErrUnknownIdentity},
		{"empty secret", "Basic " + encode("joe@smith.com:"), auth.ErrMissingSecret},
		{"no stored hash", "Basic " + encode("nohash@example.com:password123"), auth.ErrMissingSecret},
		{"wrong secret", "Basic " + encode("joe@smith.com:password124"), auth.ErrBadSecret},
		{"corrupt stored hash", "Basic " + encode("badhash@example.com:password123"), auth.ErrBadSecret},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.Header.Set("Authorization", tt.header)

			result := a.Authenticate(context.Background(), r)

			if result.Decision != auth.No {
				t.Fatalf("Decision = %d, want No", result.Decision)
			}
			if !errors.Is(result.Err, tt.want) {
				t.Errorf("Err = %v, want %v", result.Err, tt.want)
			}
			if result.Identity != nil {
				t.Errorf("Identity = %+v, want nil", result.Identity)
			}
		})
	}
}

func TestAuthenticate_SchemeCaseInsensitive(t *testing.T) {
	a, _ := newTestAuthenticator(t)

	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("Authorization", "basic "+encode("joe@smith.com:password123"))

	if result := a.Authenticate(context.Background(), r); result.Decision != auth.Yes {
		t.Errorf("Decision = %d, want Yes; err=%v", result.Decision, result.Err)
	}
}

func TestVerify_SecretWithColon(t *testing.T) {
	ctx := context.Background()
	hasher, _ := auth.NewBcryptHasher(bcrypt.MinCost)
	hash, _ := hasher.Hash(ctx, "pass:word:1")

	store := memory.New()
	store.CreateUser(ctx, &api.User{FirstName: "C", LastName: "O", EmailAddress: "colon@example.com", PasswordHash: hash})
	a := New(store, hasher)

	r := httptest.NewRequest("GET", "/", nil)
	r.SetBasicAuth("colon@example.com", "pass:word:1")

	if _, err := a.Verify(ctx, r); err != nil {
		t.Errorf("Verify failed: %v", err)
	}
}

// failingStore returns a driver error for every lookup.
type failingStore struct{}

func (failingStore) GetUserByEmail(context.Context, string) (*api.User, error) {
	return nil, errors.New("connection refused")
}

var _ storage.IdentityStore = failingStore{}

func TestAuthenticate_StoreFailureIsFault(t *testing.T) {
	hasher, _ := auth.NewBcryptHasher(bcrypt.MinCost)
	a := New(failingStore{}, hasher)

	r := httptest.NewRequest("GET", "/", nil)
	r.SetBasicAuth("joe@smith.com", "password123")

	result := a.Authenticate(context.Background(), r)

	if result.Decision != auth.No {
		t.Fatalf("Decision = %d, want No", result.Decision)
	}
	if errors.Is(result.Err, auth.ErrUnauthenticated) {
		t.Errorf("store failure reported as authentication failure: %v", result.Err)
	}
}
