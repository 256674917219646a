package transport

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/rhuss/coursehub/pkg/api"
	"github.com/rhuss/coursehub/pkg/debug"
)

// StatusFromError maps an error returned by a handler to the status the
// boundary writes for it. Anything that is not a client error is a 500.
func StatusFromError(err error) int {
	if err == nil {
		return http.StatusOK
	}
	var (
		fault  *api.ServerFault
		verr   *api.ValidationError
		apiErr *api.APIError
	)
	switch {
	case errors.As(err, &fault):
		return http.StatusInternalServerError
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.As(err, &apiErr):
		return apiErr.Status
	default:
		return http.StatusInternalServerError
	}
}

// WriteJSON writes v as a JSON body with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		debug.Log("transport", "encoding response failed", "error", err)
	}
}

// WriteAPIError writes {"message": ...} with the error's status.
func WriteAPIError(w http.ResponseWriter, apiErr *api.APIError) {
	WriteJSON(w, apiErr.Status, api.MessageResponse{Message: apiErr.Message})
}

// WriteValidationError writes {"errors": [...]} with status 400.
func WriteValidationError(w http.ResponseWriter, verr *api.ValidationError) {
	messages := verr.Messages
	if messages == nil {
		messages = []string{}
	}
	WriteJSON(w, http.StatusBadRequest, api.ErrorsResponse{Errors: messages})
}

// WriteError classifies err and writes the matching response. A
// *api.ServerFault is checked first so that a wrapped client error inside a
// fault is never exposed. Unclassified errors go to sink.
func WriteError(w http.ResponseWriter, r *http.Request, err error, sink FaultSink) {
	var (
		fault  *api.ServerFault
		verr   *api.ValidationError
		apiErr *api.APIError
	)
	switch {
	case errors.As(err, &fault):
		sink.Fault(w, r, err)
	case errors.As(err, &verr):
		if !clientWritable(w, r, err) {
			return
		}
		WriteValidationError(w, verr)
	case errors.As(err, &apiErr):
		if !clientWritable(w, r, err) {
			return
		}
		WriteAPIError(w, apiErr)
	default:
		sink.Fault(w, r, err)
	}
}

func clientWritable(w http.ResponseWriter, r *http.Request, err error) bool {
	if !Started(w) {
		return true
	}
	slog.WarnContext(r.Context(), "client error after response started",
		"request_id", RequestIDFromContext(r.Context()),
		"path", r.URL.Path,
		"error", err,
	)
	return false
}
