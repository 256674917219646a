package transport

import (
	"log/slog"
	"net/http"
	"time"
)

// Logging returns middleware that emits one structured log entry per
// request with method, path, status, duration and request ID.
//
// The status of a failed request is derived from the returned error, since
// the boundary writes it only after this middleware returns. Server faults
// are logged at Error without their cause; the fault sink decides whether
// the cause is recorded.
func Logging(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next HandlerFunc) HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) error {
			start := time.Now()

			err := next(w, r)

			status := StatusOf(w)
			if err != nil {
				status = StatusFromError(err)
			} else if status == 0 {
				status = http.StatusOK
			}

			attrs := []slog.Attr{
				slog.String("request_id", RequestIDFromContext(r.Context())),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", status),
				slog.Duration("duration", time.Since(start)),
			}

			switch {
			case status >= http.StatusInternalServerError:
				logger.LogAttrs(r.Context(), slog.LevelError, "request failed", attrs...)
			case err != nil:
				logger.LogAttrs(r.Context(), slog.LevelInfo, "request rejected", attrs...)
			default:
				logger.LogAttrs(r.Context(), slog.LevelInfo, "request completed", attrs...)
			}

			return err
		}
	}
}
