package storage

import (
	"context"

	"github.com/rhuss/coursehub/pkg/api"
)

// IdentityStore resolves login keys to users. Lookups are exact and
// case-sensitive.
type IdentityStore interface {
	// GetUserByEmail returns the user with the given email address, including
	// the password hash. Returns ErrNotFound if there is none.
	GetUserByEmail(ctx context.Context, email string) (*api.User, error)
}

// UserStore persists users.
type UserStore interface {
	IdentityStore

	// CreateUser inserts u and sets its ID. A duplicate email address yields
	// an *api.ValidationError with kind api.UniqueConstraint.
	CreateUser(ctx context.Context, u *api.User) error

	// GetUser returns the user with the given ID or ErrNotFound.
	GetUser(ctx context.Context, id int64) (*api.User, error)
}

// CourseStore persists courses. Reads return courses with the owner
// projection populated.
type CourseStore interface {
	// ListCourses returns every course ordered by ID.
	ListCourses(ctx context.Context) ([]api.Course, error)

	// ListCoursesByOwner returns the courses owned by userID ordered by ID,
	// without the owner projection.
	ListCoursesByOwner(ctx context.Context, userID int64) ([]api.Course, error)

	// GetCourse returns the course with the given ID or ErrNotFound.
	GetCourse(ctx context.Context, id int64) (*api.Course, error)

	// CreateCourse inserts c and sets its ID.
	CreateCourse(ctx context.Context, c *api.Course) error

	// UpdateCourse replaces the mutable fields of the stored course with
	// the same ID. The owner is never changed. Returns ErrNotFound if the
	// course no longer exists.
	UpdateCourse(ctx context.Context, c *api.Course) error

	// DeleteCourse removes the course. Returns ErrNotFound if it does not exist.
	DeleteCourse(ctx context.Context, id int64) error
}

// Store is the full persistence contract served by each adapter.
type Store interface {
	UserStore
	CourseStore

	// HealthCheck verifies the backing store is reachable.
	HealthCheck(ctx context.Context) error

	// Close releases resources held by the store.
	Close() error
}
