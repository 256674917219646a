// Package ownership restricts mutating routes to the user who owns the
// addressed resource. The guard runs after authentication, loads the
// resource once and hands it to the handler through the request context.
package ownership

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/rhuss/coursehub/pkg/api"
	"github.com/rhuss/coursehub/pkg/auth"
	"github.com/rhuss/coursehub/pkg/debug"
	"github.com/rhuss/coursehub/pkg/observability"
	"github.com/rhuss/coursehub/pkg/storage"
	"github.com/rhuss/coursehub/pkg/transport"
)

// Owned is a resource with a single owning user.
type Owned interface {
	OwnerID() int64
}

// Loader fetches a resource by ID. It returns storage.ErrNotFound when the
// resource does not exist.
type Loader[T Owned] func(ctx context.Context, id int64) (T, error)

// PathParam is the route wildcard holding the resource ID.
const PathParam = "id"

// Guard returns middleware that loads the resource named by the {id} path
// value and lets the request through only when the authenticated identity
// owns it. resource names the resource in client messages ("course").
//
// Outcomes: unknown or non-numeric id is 404, a different owner is 403, a
// match attaches the loaded resource (see ResourceFromContext). A request
// without an identity is a wiring error and becomes a server fault.
func Guard[T Owned](resource string, load Loader[T]) transport.Middleware {
	return func(next transport.HandlerFunc) transport.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) error {
			ctx := r.Context()

			id := auth.IdentityFromContext(ctx)
			if id == nil {
				return api.NewServerFault(fmt.Errorf("ownership guard for %s reached without an identity", resource))
			}

			resourceID, err := strconv.ParseInt(r.PathValue(PathParam), 10, 64)
			if err != nil || resourceID <= 0 {
				record(resource, "not_found")
				return api.NewNotFoundError(resource)
			}

			res, err := load(ctx, resourceID)
			if errors.Is(err, storage.ErrNotFound) {
				record(resource, "not_found")
				return api.NewNotFoundError(resource)
			}
			if err != nil {
				return api.NewServerFault(fmt.Errorf("loading %s %d: %w", resource, resourceID, err))
			}

			if res.OwnerID() != id.ID {
				record(resource, "forbidden")
				slog.WarnContext(ctx, "ownership check failed",
					"request_id", transport.RequestIDFromContext(ctx),
					"resource", resource,
					"resource_id", resourceID,
					"user_id", id.ID,
				)
				return api.NewForbiddenError(resource)
			}

			record(resource, "allowed")
			debug.Log("auth", "ownership confirmed", "resource", resource, "resource_id", resourceID, "user_id", id.ID)
			return next(w, r.WithContext(WithResource(ctx, res)))
		}
	}
}

func record(resource, outcome string) {
	observability.OwnershipDecisionsTotal.WithLabelValues(resource, outcome).Inc()
}

type resourceKey struct{}

// WithResource stores the guarded resource in the context.
func WithResource[T Owned](ctx context.Context, res T) context.Context {
	return context.WithValue(ctx, resourceKey{}, res)
}

// ResourceFromContext returns the resource loaded by Guard. The boolean is
// false when the request did not pass through a Guard of the same type.
func ResourceFromContext[T Owned](ctx context.Context) (T, bool) {
	res, ok := ctx.Value(resourceKey{}).(T)
	return res, ok
}
