package transport

import (
	"log/slog"
	"net/http"

	"github.com/rhuss/coursehub/pkg/api"
	"github.com/rhuss/coursehub/pkg/observability"
)

// FaultSink receives every error that is not a client error. It owns the
// 500 response and decides how much detail to record.
type FaultSink interface {
	Fault(w http.ResponseWriter, r *http.Request, err error)
}

// LogSink is the process-wide FaultSink. It always answers with a generic
// 500 and never echoes the cause. The cause is logged only when Verbose is
// set (server.global_error_logging).
type LogSink struct {
	Logger  *slog.Logger
	Verbose bool
}

// NewLogSink creates a LogSink. A nil logger uses slog.Default.
func NewLogSink(logger *slog.Logger, verbose bool) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{Logger: logger, Verbose: verbose}
}

// Fault implements FaultSink.
func (s *LogSink) Fault(w http.ResponseWriter, r *http.Request, err error) {
	observability.FaultsTotal.Inc()

	ctx := r.Context()
	started := Started(w)

	if s.Verbose {
		s.Logger.ErrorContext(ctx, "global error handler",
			"request_id", RequestIDFromContext(ctx),
			"method", r.Method,
			"path", r.URL.Path,
			"response_started", started,
			"error", err,
		)
	}

	if started {
		if !s.Verbose {
			s.Logger.WarnContext(ctx, "fault after response started",
				"request_id", RequestIDFromContext(ctx),
				"path", r.URL.Path,
			)
		}
		return
	}

	WriteJSON(w, http.StatusInternalServerError, api.MessageResponse{Message: api.MessageInternalServerError})
}
