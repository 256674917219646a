package transport

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/rhuss/coursehub/pkg/api"
)

// Recovery returns middleware that turns a panic in the handler into a
// *api.ServerFault, so it reaches the fault sink like any other failure.
// http.ErrAbortHandler is re-raised to keep net/http's abort semantics.
func Recovery() Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) (retErr error) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(rec)
				}
				retErr = api.NewServerFault(fmt.Errorf("panic: %v\n%s", rec, debug.Stack()))
			}()
			return next(w, r)
		}
	}
}
