// Package transport defines the error-returning handler contract and the
// middleware chain shared by every coursehub route.
//
// # Handlers
//
// A [HandlerFunc] writes its success response and returns an error for
// anything else. It never writes an error response itself. [Handle] turns a
// HandlerFunc into an http.Handler and is the single fault boundary of a
// request: client errors ([api.APIError], [api.ValidationError]) are written
// with their own status and body, and every other error, including panics
// recovered by [Recovery], is routed to a [FaultSink].
//
// # Middleware
//
// Middleware wraps a HandlerFunc and propagates the returned error
// unchanged unless it deliberately translates it. Built-in middleware
// provides panic recovery, request ID assignment (X-Request-ID), and
// structured logging via log/slog. Authentication and ownership checks
// live in pkg/auth and pkg/ownership and use the same Middleware type.
//
// # Faults
//
// [LogSink] is the production FaultSink. It answers 500 with a fixed body,
// counts the fault, and logs the cause only when global error logging is
// enabled. When the response has already started it only logs.
package transport
