// Package http exposes the Users and Courses API on net/http. Every API
// route is an error-returning transport.HandlerFunc wrapped by one error
// boundary; authentication and ownership checks are composed per route.
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rhuss/coursehub/pkg/api"
	"github.com/rhuss/coursehub/pkg/auth"
	"github.com/rhuss/coursehub/pkg/observability"
	"github.com/rhuss/coursehub/pkg/ownership"
	"github.com/rhuss/coursehub/pkg/storage"
	"github.com/rhuss/coursehub/pkg/transport"
)

// MessageInvalidJSON is reported when a request body cannot be decoded.
const MessageInvalidJSON = "Request body must be valid JSON"

// welcomeMessage is served on the root route.
const welcomeMessage = "Welcome to the REST API project!"

// Adapter serves the Users and Courses API over HTTP.
// It routes requests to the appropriate handler and serializes responses.
type Adapter struct {
	store   storage.Store
	hasher  auth.PasswordHasher
	authn   auth.Authenticator
	limiter auth.RateLimiter
	sink    transport.FaultSink
	base    transport.Middleware
	mux     *http.ServeMux
	config  Config
}

// Config holds configuration for the HTTP adapter.
type Config struct {
	MaxBodySize int64

	// MetricsPath is where Prometheus metrics are exposed. Empty disables
	// the endpoint.
	MetricsPath string
}

// DefaultConfig returns the default adapter configuration.
func DefaultConfig() Config {
	return Config{
		MaxBodySize: 1 << 20, // 1 MB
		MetricsPath: "/metrics",
	}
}

// Deps are the collaborators the adapter dispatches to. Limiter is
// optional; the others are required.
type Deps struct {
	Store         storage.Store
	Hasher        auth.PasswordHasher
	Authenticator auth.Authenticator
	Limiter       auth.RateLimiter
	Sink          transport.FaultSink
}

// NewAdapter creates an HTTP adapter. The given middleware wraps every API
// route, outermost first, inside the error boundary.
func NewAdapter(deps Deps, cfg Config, middlewares ...transport.Middleware) *Adapter {
	a := &Adapter{
		store:   deps.Store,
		hasher:  deps.Hasher,
		authn:   deps.Authenticator,
		limiter: deps.Limiter,
		sink:    deps.Sink,
		base:    transport.Chain(middlewares...),
		mux:     http.NewServeMux(),
		config:  cfg,
	}

	a.handle("GET /{$}", a.handleWelcome)
	a.handle("GET /api/users", a.authenticated(a.handleGetCurrentUser))
	a.handle("POST /api/users", a.handleCreateUser)
	a.handle("GET /api/courses", a.handleListCourses)
	a.handle("POST /api/courses", a.authenticated(a.handleCreateCourse))
	a.handle("GET /api/courses/{id}", a.handleGetCourse)
	a.handle("PUT /api/courses/{id}", a.owned(a.handleUpdateCourse))
	a.handle("DELETE /api/courses/{id}", a.owned(a.handleDeleteCourse))
	a.handle("/", a.handleRouteNotFound)

	a.mux.HandleFunc("GET /healthz", a.handleHealth)
	if cfg.MetricsPath != "" {
		a.mux.Handle("GET "+cfg.MetricsPath, promhttp.Handler())
	}

	return a
}

// Handler returns the http.Handler for this adapter. Use this to integrate
// with an http.Server or test with httptest.
func (a *Adapter) Handler() http.Handler {
	return observability.MetricsMiddleware(a.mux)
}

// handle registers h behind the shared middleware and the error boundary.
func (a *Adapter) handle(pattern string, h transport.HandlerFunc) {
	a.mux.Handle(pattern, transport.Handle(a.base(h), a.sink))
}

// authenticated requires valid credentials before h runs.
func (a *Adapter) authenticated(h transport.HandlerFunc) transport.HandlerFunc {
	return auth.Middleware(a.authn, a.limiter)(h)
}

// owned requires valid credentials and ownership of the {id} course.
// Authentication always runs first so the guard can rely on the identity.
func (a *Adapter) owned(h transport.HandlerFunc) transport.HandlerFunc {
	return transport.Chain(
		auth.Middleware(a.authn, a.limiter),
		ownership.Guard[*api.Course]("course", a.store.GetCourse),
	)(h)
}

// decode reads a JSON request body into v. An empty body decodes as an
// empty object so that validation reports every missing field.
func (a *Adapter) decode(w http.ResponseWriter, r *http.Request, v any) error {
	if ct := r.Header.Get("Content-Type"); ct != "" {
		mediaType, _, err := mime.ParseMediaType(ct)
		if err != nil || mediaType != "application/json" {
			return api.NewRequestError(http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		}
	}

	r.Body = http.MaxBytesReader(w, r.Body, a.config.MaxBodySize)

	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}

	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return api.NewRequestError(http.StatusRequestEntityTooLarge,
			fmt.Sprintf("Request body too large (max %d bytes)", a.config.MaxBodySize))
	}
	return api.NewFieldViolation(MessageInvalidJSON)
}

func (a *Adapter) handleWelcome(w http.ResponseWriter, _ *http.Request) error {
	transport.WriteJSON(w, http.StatusOK, api.MessageResponse{Message: welcomeMessage})
	return nil
}

func (a *Adapter) handleRouteNotFound(_ http.ResponseWriter, _ *http.Request) error {
	return api.NewRouteNotFoundError()
}

// handleHealth reports whether the store is reachable. It bypasses the
// error boundary so probes stay out of request logs.
func (a *Adapter) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := a.store.HealthCheck(r.Context()); err != nil {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok\n"))
}
