package transport

import (
	"net/http"

	"github.com/google/uuid"
)

// RequestIDHeader carries the request ID in both directions.
const RequestIDHeader = "X-Request-ID"

// maxRequestIDLength bounds client-supplied IDs before they reach logs.
const maxRequestIDLength = 128

// RequestID returns middleware that assigns a unique request ID to each
// request. A client-supplied X-Request-ID is reused when present and of
// reasonable length; otherwise a random UUID is generated. The ID is stored
// in the context and echoed in the response header.
func RequestID() Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) error {
			ctx := r.Context()
			id := RequestIDFromContext(ctx)
			if id == "" {
				id = r.Header.Get(RequestIDHeader)
				if id == "" || len(id) > maxRequestIDLength {
					id = uuid.NewString()
				}
				ctx = ContextWithRequestID(ctx, id)
			}
			w.Header().Set(RequestIDHeader, id)
			return next(w, r.WithContext(ctx))
		}
	}
}
