// Package postgres provides a PostgreSQL implementation of storage.Store
// using pgx/v5 connection pooling. The unique email constraint is enforced
// by the database and reported as an api.UniqueConstraint violation.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rhuss/coursehub/pkg/api"
	"github.com/rhuss/coursehub/pkg/debug"
	"github.com/rhuss/coursehub/pkg/storage"
)

// Constraint names from the embedded migrations.
const (
	constraintUniqueEmail = "users_email_address_key"
	constraintCourseOwner = "courses_user_id_fkey"
)

// poolIface is the subset of *pgxpool.Pool the store uses. It is satisfied
// by pgxmock.PgxPoolIface in unit tests.
type poolIface interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// Store is a PostgreSQL-backed storage.Store.
type Store struct {
	pool poolIface
}

// Ensure Store implements storage.Store at compile time.
var _ storage.Store = (*Store)(nil)

// New creates a new PostgreSQL store with the given configuration.
// If MigrateOnStart is true, schema migrations are applied automatically.
func New(ctx context.Context, cfg Config) (*Store, error) {
	cfg.defaults()

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parsing DSN: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	// Verify connectivity.
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := NewWithPool(pool)

	if cfg.MigrateOnStart {
		if err := s.Migrate(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("running migrations: %w", err)
		}
	}

	return s, nil
}

// NewWithPool wraps an existing pool.
func NewWithPool(pool poolIface) *Store {
	return &Store{pool: pool}
}

const selectUser = `SELECT id, first_name, last_name, email_address, password FROM users`

// CreateUser inserts u and sets its ID.
func (s *Store) CreateUser(ctx context.Context, u *api.User) error {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO users (first_name, last_name, email_address, password)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		u.FirstName, u.LastName, u.EmailAddress, u.PasswordHash,
	).Scan(&u.ID)
	if err != nil {
		if isConstraint(err, pgerrcode.UniqueViolation, constraintUniqueEmail) {
			debug.Log("storage", "duplicate email rejected")
			return api.NewUniqueViolation(api.MsgEmailExists)
		}
		return fmt.Errorf("inserting user: %w", err)
	}
	return nil
}

// GetUser returns the user with the given ID.
func (s *Store) GetUser(ctx context.Context, id int64) (*api.User, error) {
	return s.getUser(ctx, selectUser+` WHERE id = $1`, id)
}

// GetUserByEmail returns the user with the given email address. The match
// is exact and case-sensitive.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*api.User, error) {
	return s.getUser(ctx, selectUser+` WHERE email_address = $1`, email)
}

func (s *Store) getUser(ctx context.Context, query string, arg any) (*api.User, error) {
	var u api.User
	err := s.pool.QueryRow(ctx, query, arg).Scan(
		&u.ID, &u.FirstName, &u.LastName, &u.EmailAddress, &u.PasswordHash,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}
	return &u, nil
}

const selectCourseWithOwner = `
	SELECT c.id, c.title, c.description, c.estimated_time, c.materials_needed, c.user_id,
	       u.id, u.first_name, u.last_name, u.email_address
	FROM courses c
	JOIN users u ON u.id = c.user_id`

// ListCourses returns every course with its owner, ordered by ID.
func (s *Store) ListCourses(ctx context.Context) ([]api.Course, error) {
	rows, err := s.pool.Query(ctx, selectCourseWithOwner+` ORDER BY c.id`)
	if err != nil {
		return nil, fmt.Errorf("listing courses: %w", err)
	}
	defer rows.Close()

	courses := []api.Course{}
	for rows.Next() {
		c, err := scanCourseWithOwner(rows)
		if err != nil {
			return nil, err
		}
		courses = append(courses, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating courses: %w", err)
	}
	return courses, nil
}

// ListCoursesByOwner returns the courses owned by userID, ordered by ID.
func (s *Store) ListCoursesByOwner(ctx context.Context, userID int64) ([]api.Course, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, title, description, estimated_time, materials_needed, user_id
		FROM courses
		WHERE user_id = $1
		ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("listing courses for user %d: %w", userID, err)
	}
	defer rows.Close()

	courses := []api.Course{}
	for rows.Next() {
		var c api.Course
		if err := rows.Scan(
			&c.ID, &c.Title, &c.Description, &c.EstimatedTime, &c.MaterialsNeeded, &c.UserID,
		); err != nil {
			return nil, fmt.Errorf("scanning course: %w", err)
		}
		courses = append(courses, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating courses: %w", err)
	}
	return courses, nil
}

// GetCourse returns the course with its owner.
func (s *Store) GetCourse(ctx context.Context, id int64) (*api.Course, error) {
	c, err := scanCourseWithOwner(s.pool.QueryRow(ctx, selectCourseWithOwner+` WHERE c.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func scanCourseWithOwner(row pgx.Row) (*api.Course, error) {
	var c api.Course
	var o api.Owner
	if err := row.Scan(
		&c.ID, &c.Title, &c.Description, &c.EstimatedTime, &c.MaterialsNeeded, &c.UserID,
		&o.ID, &o.FirstName, &o.LastName, &o.EmailAddress,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning course: %w", err)
	}
	c.User = &o
	return &c, nil
}

// CreateCourse inserts c and sets its ID.
func (s *Store) CreateCourse(ctx context.Context, c *api.Course) error {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO courses (title, description, estimated_time, materials_needed, user_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`,
		c.Title, c.Description, c.EstimatedTime, c.MaterialsNeeded, c.UserID,
	).Scan(&c.ID)
	if err != nil {
		if isConstraint(err, pgerrcode.ForeignKeyViolation, constraintCourseOwner) {
			return api.NewFieldViolation(api.MsgOwnerRequired)
		}
		return fmt.Errorf("inserting course: %w", err)
	}
	return nil
}

// UpdateCourse replaces the mutable fields of the stored course. user_id is
// never written.
func (s *Store) UpdateCourse(ctx context.Context, c *api.Course) error {
	result, err := s.pool.Exec(ctx, `
		UPDATE courses
		SET title = $1, description = $2, estimated_time = $3, materials_needed = $4, updated_at = now()
		WHERE id = $5`,
		c.Title, c.Description, c.EstimatedTime, c.MaterialsNeeded, c.ID,
	)
	if err != nil {
		return fmt.Errorf("updating course %d: %w", c.ID, err)
	}
	if result.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// DeleteCourse removes the course.
func (s *Store) DeleteCourse(ctx context.Context, id int64) error {
	result, err := s.pool.Exec(ctx, `DELETE FROM courses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting course %d: %w", id, err)
	}
	if result.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// HealthCheck verifies the database connection.
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// isConstraint reports whether err is a PostgreSQL error with the given
// SQLSTATE raised by the named constraint.
func isConstraint(err error, code, constraint string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code && pgErr.ConstraintName == constraint
}
