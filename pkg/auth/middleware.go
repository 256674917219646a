package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/rhuss/coursehub/pkg/api"
	"github.com/rhuss/coursehub/pkg/debug"
	"github.com/rhuss/coursehub/pkg/observability"
	"github.com/rhuss/coursehub/pkg/transport"
)

// Middleware authenticates the request with authn and, on success, attaches
// the identity to the request context before calling next.
//
// Every rejection reason produces the same *api.APIError (401 "Access
// Denied"); the reason is only logged and counted. A No result that is not
// an authentication failure is returned as a server fault. When limiter is
// non-nil, authenticated identities over their budget get 429.
func Middleware(authn Authenticator, limiter RateLimiter) transport.Middleware {
	return func(next transport.HandlerFunc) transport.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) error {
			ctx := r.Context()
			result := authn.Authenticate(ctx, r)

			switch result.Decision {
			case Yes:
			case No:
				if !errors.Is(result.Err, ErrUnauthenticated) {
					return api.NewServerFault(fmt.Errorf("authenticating request: %w", result.Err))
				}
				return reject(r, result.Err)
			default:
				return reject(r, ErrNoCredentials)
			}

			id := result.Identity
			if id == nil || id.ID == 0 {
				return api.NewServerFault(errors.New("authenticator returned no identity"))
			}

			debug.Log("auth", "authentication succeeded",
				"user_id", id.ID,
				"path", r.URL.Path,
			)

			if limiter != nil {
				if err := limiter.Allow(ctx, id); err != nil {
					slog.WarnContext(ctx, "rate limit exceeded",
						"request_id", transport.RequestIDFromContext(ctx),
						"user_id", id.ID,
					)
					observability.RateLimitRejectedTotal.Inc()
					return api.NewTooManyRequestsError()
				}
			}

			return next(w, r.WithContext(SetIdentity(ctx, id)))
		}
	}
}

func reject(r *http.Request, err error) error {
	reason := Reason(err)
	slog.WarnContext(r.Context(), "authentication failed",
		"request_id", transport.RequestIDFromContext(r.Context()),
		"path", r.URL.Path,
		"remote_addr", r.RemoteAddr,
		"reason", reason,
	)
	observability.AuthFailuresTotal.WithLabelValues(reason).Inc()
	return api.NewUnauthorizedError()
}
