package storage

import (
	"context"
	"errors"

	"github.com/rhuss/coursehub/pkg/api"
	"github.com/rhuss/coursehub/pkg/observability"
)

// Normalize classifies the outcome of a persistence operation.
//
//   - nil stays nil.
//   - *api.ValidationError (field or unique) is returned unchanged; the
//     transport boundary writes it as 400 {"errors": [...]}.
//   - ErrNotFound is returned unchanged so a row deleted between the
//     ownership check and the write still reads as 404.
//   - An error that already carries an *api.ServerFault is returned as is.
//   - Anything else becomes an *api.ServerFault whose cause is never shown
//     to the client.
func Normalize(err error) error {
	if err == nil {
		return nil
	}

	var fault *api.ServerFault
	if errors.As(err, &fault) {
		return err
	}

	var verr *api.ValidationError
	if errors.As(err, &verr) {
		observability.ValidationFailuresTotal.WithLabelValues(string(verr.Kind)).Inc()
		return verr
	}

	if errors.Is(err, ErrNotFound) {
		return err
	}

	return api.NewServerFault(err)
}

// Persist runs fn and normalizes its error. fn typically builds a validated
// entity and hands it to a store, so that both validation and constraint
// failures come back through the same path.
func Persist[T any](ctx context.Context, fn func(context.Context) (T, error)) (T, error) {
	v, err := fn(ctx)
	if err != nil {
		var zero T
		return zero, Normalize(err)
	}
	return v, nil
}
