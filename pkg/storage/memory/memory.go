// Package memory provides an in-memory implementation of storage.Store for
// tests and single-process deployments. Data is lost when the process
// restarts. The unique email constraint is enforced under the same lock as
// the insert, so concurrent sign-ups cannot both succeed.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/rhuss/coursehub/pkg/api"
	"github.com/rhuss/coursehub/pkg/storage"
)

// Store is an in-memory storage.Store.
type Store struct {
	mu           sync.RWMutex
	users        map[int64]api.User
	byEmail      map[string]int64
	courses      map[int64]api.Course
	nextUserID   int64
	nextCourseID int64
}

// Ensure Store implements storage.Store at compile time.
var _ storage.Store = (*Store)(nil)

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		users:   make(map[int64]api.User),
		byEmail: make(map[string]int64),
		courses: make(map[int64]api.Course),
	}
}

// CreateUser inserts u and assigns its ID.
func (s *Store) CreateUser(_ context.Context, u *api.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[u.EmailAddress]; exists {
		return api.NewUniqueViolation(api.MsgEmailExists)
	}

	s.nextUserID++
	u.ID = s.nextUserID
	s.users[u.ID] = *u
	s.byEmail[u.EmailAddress] = u.ID
	return nil
}

// GetUser returns a copy of the user with the given ID.
func (s *Store) GetUser(_ context.Context, id int64) (*api.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &u, nil
}

// GetUserByEmail returns a copy of the user with the given email address.
func (s *Store) GetUserByEmail(_ context.Context, email string) (*api.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[email]
	if !ok {
		return nil, storage.ErrNotFound
	}
	u := s.users[id]
	return &u, nil
}

// ListCourses returns every course with its owner, ordered by ID.
func (s *Store) ListCourses(_ context.Context) ([]api.Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]api.Course, 0, len(s.courses))
	for _, c := range s.courses {
		result = append(result, s.withOwner(c))
	}
	sortCourses(result)
	return result, nil
}

// ListCoursesByOwner returns the courses owned by userID, ordered by ID.
func (s *Store) ListCoursesByOwner(_ context.Context, userID int64) ([]api.Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []api.Course{}
	for _, c := range s.courses {
		if c.UserID == userID {
			result = append(result, c)
		}
	}
	sortCourses(result)
	return result, nil
}

// GetCourse returns the course with its owner.
func (s *Store) GetCourse(_ context.Context, id int64) (*api.Course, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.courses[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	c = s.withOwner(c)
	return &c, nil
}

// CreateCourse inserts c and assigns its ID. The owner must exist.
func (s *Store) CreateCourse(_ context.Context, c *api.Course) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[c.UserID]; !ok {
		return api.NewFieldViolation(api.MsgOwnerRequired)
	}

	s.nextCourseID++
	c.ID = s.nextCourseID
	stored := *c
	stored.User = nil
	stored.EstimatedTime = clone(c.EstimatedTime)
	stored.MaterialsNeeded = clone(c.MaterialsNeeded)
	s.courses[c.ID] = stored
	return nil
}

// UpdateCourse replaces the mutable fields of the stored course.
func (s *Store) UpdateCourse(_ context.Context, c *api.Course) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.courses[c.ID]
	if !ok {
		return storage.ErrNotFound
	}

	stored.Title = c.Title
	stored.Description = c.Description
	stored.EstimatedTime = clone(c.EstimatedTime)
	stored.MaterialsNeeded = clone(c.MaterialsNeeded)
	s.courses[c.ID] = stored
	return nil
}

// DeleteCourse removes the course.
func (s *Store) DeleteCourse(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.courses[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.courses, id)
	return nil
}

// HealthCheck always returns nil for the in-memory store.
func (s *Store) HealthCheck(_ context.Context) error {
	return nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error {
	return nil
}

// withOwner returns c with the owner projection attached. Must be called
// with mu held.
func (s *Store) withOwner(c api.Course) api.Course {
	if u, ok := s.users[c.UserID]; ok {
		c.User = u.Owner()
	}
	return c
}

func sortCourses(cs []api.Course) {
	sort.Slice(cs, func(i, j int) bool { return cs[i].ID < cs[j].ID })
}

func clone(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
