package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/rhuss/coursehub/pkg/api"
	"github.com/rhuss/coursehub/pkg/auth"
	"github.com/rhuss/coursehub/pkg/ownership"
	"github.com/rhuss/coursehub/pkg/storage"
	"github.com/rhuss/coursehub/pkg/transport"
)

// handleGetCurrentUser handles GET /api/users.
func (a *Adapter) handleGetCurrentUser(w http.ResponseWriter, r *http.Request) error {
	ctx := r.Context()
	id := auth.IdentityFromContext(ctx)

	user, err := a.store.GetUser(ctx, id.ID)
	if errors.Is(err, storage.ErrNotFound) {
		return api.NewNotFoundError("user")
	}
	if err := storage.Normalize(err); err != nil {
		return err
	}

	courses, err := a.store.ListCoursesByOwner(ctx, id.ID)
	if err := storage.Normalize(err); err != nil {
		return err
	}

	transport.WriteJSON(w, http.StatusOK, api.UserProfile{User: *user, Courses: courses})
	return nil
}

// handleCreateUser handles POST /api/users.
func (a *Adapter) handleCreateUser(w http.ResponseWriter, r *http.Request) error {
	var in api.UserInput
	if err := a.decode(w, r, &in); err != nil {
		return err
	}

	if _, err := storage.Persist(r.Context(), func(ctx context.Context) (*api.User, error) {
		user, err := api.NewUser(ctx, in, a.hasher)
		if err != nil {
			return nil, err
		}
		return user, a.store.CreateUser(ctx, user)
	}); err != nil {
		return err
	}

	w.Header().Set("Location", "/")
	w.WriteHeader(http.StatusCreated)
	return nil
}

// handleListCourses handles GET /api/courses.
func (a *Adapter) handleListCourses(w http.ResponseWriter, r *http.Request) error {
	courses, err := a.store.ListCourses(r.Context())
	if err := storage.Normalize(err); err != nil {
		return err
	}
	transport.WriteJSON(w, http.StatusOK, courses)
	return nil
}

// handleGetCourse handles GET /api/courses/{id}.
func (a *Adapter) handleGetCourse(w http.ResponseWriter, r *http.Request) error {
	id, err := strconv.ParseInt(r.PathValue(ownership.PathParam), 10, 64)
	if err != nil || id <= 0 {
		return api.NewNotFoundError("course")
	}

	course, err := a.store.GetCourse(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		return api.NewNotFoundError("course")
	}
	if err := storage.Normalize(err); err != nil {
		return err
	}

	transport.WriteJSON(w, http.StatusOK, course)
	return nil
}

// handleCreateCourse handles POST /api/courses. The owner is always the
// authenticated user.
func (a *Adapter) handleCreateCourse(w http.ResponseWriter, r *http.Request) error {
	var in api.CourseInput
	if err := a.decode(w, r, &in); err != nil {
		return err
	}

	id := auth.IdentityFromContext(r.Context())
	course, err := storage.Persist(r.Context(), func(ctx context.Context) (*api.Course, error) {
		course, err := api.NewCourse(in, id.ID)
		if err != nil {
			return nil, err
		}
		return course, a.store.CreateCourse(ctx, course)
	})
	if err != nil {
		return err
	}

	w.Header().Set("Location", fmt.Sprintf("/api/courses/%d", course.ID))
	w.WriteHeader(http.StatusCreated)
	return nil
}

// handleUpdateCourse handles PUT /api/courses/{id}. Fields present in the
// body replace the stored values; absent fields are kept.
func (a *Adapter) handleUpdateCourse(w http.ResponseWriter, r *http.Request) error {
	course, ok := ownership.ResourceFromContext[*api.Course](r.Context())
	if !ok {
		return api.NewServerFault(errors.New("update reached without a guarded course"))
	}

	var in api.CourseInput
	if err := a.decode(w, r, &in); err != nil {
		return err
	}

	if err := a.write(r.Context(), func(ctx context.Context) error {
		updated, err := course.Apply(in)
		if err != nil {
			return err
		}
		return a.store.UpdateCourse(ctx, updated)
	}); err != nil {
		return err
	}

	w.WriteHeader(http.StatusNoContent)
	return nil
}

// handleDeleteCourse handles DELETE /api/courses/{id}.
func (a *Adapter) handleDeleteCourse(w http.ResponseWriter, r *http.Request) error {
	course, ok := ownership.ResourceFromContext[*api.Course](r.Context())
	if !ok {
		return api.NewServerFault(errors.New("delete reached without a guarded course"))
	}

	if err := a.write(r.Context(), func(ctx context.Context) error {
		return a.store.DeleteCourse(ctx, course.ID)
	}); err != nil {
		return err
	}

	w.WriteHeader(http.StatusNoContent)
	return nil
}

// write runs a guarded mutation. A course that disappeared between the
// guard and the write is reported as not found.
func (a *Adapter) write(ctx context.Context, fn func(context.Context) error) error {
	_, err := storage.Persist(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	if errors.Is(err, storage.ErrNotFound) {
		return api.NewNotFoundError("course")
	}
	return err
}
