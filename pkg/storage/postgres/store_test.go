package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rhuss/coursehub/pkg/api"
	"github.com/rhuss/coursehub/pkg/storage"
)

func ptr(s string) *string { return &s }

var (
	userColumns   = []string{"id", "first_name", "last_name", "email_address", "password"}
	courseColumns = []string{
		"id", "title", "description", "estimated_time", "materials_needed", "user_id",
		"id", "first_name", "last_name", "email_address",
	}
)

func newMockStore(t *testing.T) (*Store, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err, "failed to create mock")
	t.Cleanup(mock.Close)
	return NewWithPool(mock), mock
}

func TestStore_CreateUser(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(mock pgxmock.PgxPoolIface)
		wantID    int64
		check     func(t *testing.T, err error)
	}{
		{
			name: "assigns id",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`INSERT INTO users`).
					WithArgs("Joe", "Smith", "joe@smith.com", "$2a$10$hash").
					WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(7)))
			},
			wantID: 7,
			check: func(t *testing.T, err error) {
				require.NoError(t, err)
			},
		},
		{
			name: "duplicate email becomes unique violation",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`INSERT INTO users`).
					WithArgs("Joe", "Smith", "joe@smith.com", "$2a$10$hash").
					WillReturnError(&pgconn.PgError{
						Code:           pgerrcode.UniqueViolation,
						ConstraintName: constraintUniqueEmail,
					})
			},
			check: func(t *testing.T, err error) {
				var verr *api.ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Equal(t, api.UniqueConstraint, verr.Kind)
				assert.Equal(t, []string{api.MsgEmailExists}, verr.Messages)
			},
		},
		{
			name: "other unique violation stays a driver error",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`INSERT INTO users`).
					WithArgs("Joe", "Smith", "joe@smith.com", "$2a$10$hash").
					WillReturnError(&pgconn.PgError{
						Code:           pgerrcode.UniqueViolation,
						ConstraintName: "users_pkey",
					})
			},
			check: func(t *testing.T, err error) {
				var verr *api.ValidationError
				assert.False(t, errors.As(err, &verr))
				assert.Contains(t, err.Error(), "inserting user")
			},
		},
		{
			name: "connection error",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`INSERT INTO users`).
					WithArgs("Joe", "Smith", "joe@smith.com", "$2a$10$hash").
					WillReturnError(errors.New("connection refused"))
			},
			check: func(t *testing.T, err error) {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "connection refused")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, mock := newMockStore(t)
			tt.setupMock(mock)

			u := &api.User{FirstName: "Joe", LastName: "Smith", EmailAddress: "joe@smith.com", PasswordHash: "$2a$10$hash"}
			err := store.CreateUser(context.Background(), u)

			tt.check(t, err)
			assert.Equal(t, tt.wantID, u.ID)
			assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
		})
	}
}

func TestStore_GetUserByEmail(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectQuery(`FROM users WHERE email_address`).
			WithArgs("joe@smith.com").
			WillReturnRows(pgxmock.NewRows(userColumns).
				AddRow(int64(3), "Joe", "Smith", "joe@smith.com", "$2a$10$hash"))

		u, err := store.GetUserByEmail(context.Background(), "joe@smith.com")
		require.NoError(t, err)
		assert.Equal(t, &api.User{
			ID: 3, FirstName: "Joe", LastName: "Smith", EmailAddress: "joe@smith.com", PasswordHash: "$2a$10$hash",
		}, u)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectQuery(`FROM users WHERE email_address`).
			WithArgs("nobody@example.com").
			WillReturnRows(pgxmock.NewRows(userColumns))

		_, err := store.GetUserByEmail(context.Background(), "nobody@example.com")
		assert.ErrorIs(t, err, storage.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("query error is not a not-found", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectQuery(`FROM users WHERE email_address`).
			WithArgs("joe@smith.com").
			WillReturnError(errors.New("timeout"))

		_, err := store.GetUserByEmail(context.Background(), "joe@smith.com")
		require.Error(t, err)
		assert.NotErrorIs(t, err, storage.ErrNotFound)
	})
}

func TestStore_GetCourse(t *testing.T) {
	t.Run("found with owner", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectQuery(`FROM courses c`).
			WithArgs(int64(5)).
			WillReturnRows(pgxmock.NewRows(courseColumns).AddRow(
				int64(5), "Bookcase", "Build one", ptr("12 hours"), (*string)(nil), int64(2),
				int64(2), "Joe", "Smith", "joe@smith.com",
			))

		c, err := store.GetCourse(context.Background(), 5)
		require.NoError(t, err)
		assert.Equal(t, int64(5), c.ID)
		assert.Equal(t, int64(2), c.OwnerID())
		require.NotNil(t, c.EstimatedTime)
		assert.Equal(t, "12 hours", *c.EstimatedTime)
		assert.Nil(t, c.MaterialsNeeded)
		assert.Equal(t, &api.Owner{ID: 2, FirstName: "Joe", LastName: "Smith", EmailAddress: "joe@smith.com"}, c.User)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectQuery(`FROM courses c`).
			WithArgs(int64(99)).
			WillReturnRows(pgxmock.NewRows(courseColumns))

		_, err := store.GetCourse(context.Background(), 99)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})
}

func TestStore_ListCourses(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(`ORDER BY c.id`).
		WillReturnRows(pgxmock.NewRows(courseColumns).
			AddRow(int64(1), "A", "a", (*string)(nil), (*string)(nil), int64(1), int64(1), "Joe", "Smith", "joe@smith.com").
			AddRow(int64(2), "B", "b", (*string)(nil), ptr("wood"), int64(2), int64(2), "Sally", "Jones", "sally@jones.com"))

	courses, err := store.ListCourses(context.Background())
	require.NoError(t, err)
	require.Len(t, courses, 2)
	assert.Equal(t, "Sally", courses[1].User.FirstName)
	assert.Equal(t, "wood", *courses[1].MaterialsNeeded)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_ListCoursesByOwner_Empty(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(`WHERE user_id`).
		WithArgs(int64(4)).
		WillReturnRows(pgxmock.NewRows([]string{"id", "title", "description", "estimated_time", "materials_needed", "user_id"}))

	courses, err := store.ListCoursesByOwner(context.Background(), 4)
	require.NoError(t, err)
	assert.NotNil(t, courses)
	assert.Empty(t, courses)
}

func TestStore_CreateCourse_UnknownOwner(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(`INSERT INTO courses`).
		WithArgs("T", "D", (*string)(nil), (*string)(nil), int64(42)).
		WillReturnError(&pgconn.PgError{
			Code:           pgerrcode.ForeignKeyViolation,
			ConstraintName: constraintCourseOwner,
		})

	err := store.CreateCourse(context.Background(), &api.Course{Title: "T", Description: "D", UserID: 42})

	var verr *api.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{api.MsgOwnerRequired}, verr.Messages)
}

func TestStore_UpdateAndDelete(t *testing.T) {
	tests := []struct {
		name     string
		rows     int64
		run      func(s *Store) error
		expect   func(mock pgxmock.PgxPoolIface, rows int64)
		notFound bool
	}{
		{
			name: "update",
			rows: 1,
			run: func(s *Store) error {
				return s.UpdateCourse(context.Background(), &api.Course{ID: 5, Title: "T", Description: "D", UserID: 999})
			},
			expect: func(mock pgxmock.PgxPoolIface, rows int64) {
				mock.ExpectExec(`UPDATE courses`).
					WithArgs("T", "D", (*string)(nil), (*string)(nil), int64(5)).
					WillReturnResult(pgxmock.NewResult("UPDATE", rows))
			},
		},
		{
			name: "update missing row",
			rows: 0,
			run: func(s *Store) error {
				return s.UpdateCourse(context.Background(), &api.Course{ID: 5, Title: "T", Description: "D"})
			},
			expect: func(mock pgxmock.PgxPoolIface, rows int64) {
				mock.ExpectExec(`UPDATE courses`).
					WithArgs("T", "D", (*string)(nil), (*string)(nil), int64(5)).
					WillReturnResult(pgxmock.NewResult("UPDATE", rows))
			},
			notFound: true,
		},
		{
			name: "delete",
			rows: 1,
			run:  func(s *Store) error { return s.DeleteCourse(context.Background(), 5) },
			expect: func(mock pgxmock.PgxPoolIface, rows int64) {
				mock.ExpectExec(`DELETE FROM courses`).WithArgs(int64(5)).
					WillReturnResult(pgxmock.NewResult("DELETE", rows))
			},
		},
		{
			name: "delete missing row",
			rows: 0,
			run:  func(s *Store) error { return s.DeleteCourse(context.Background(), 5) },
			expect: func(mock pgxmock.PgxPoolIface, rows int64) {
				mock.ExpectExec(`DELETE FROM courses`).WithArgs(int64(5)).
					WillReturnResult(pgxmock.NewResult("DELETE", rows))
			},
			notFound: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, mock := newMockStore(t)
			tt.expect(mock, tt.rows)

			err := tt.run(store)
			if tt.notFound {
				assert.ErrorIs(t, err, storage.ErrNotFound)
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestStore_Migrate(t *testing.T) {
	all, err := migrations()
	require.NoError(t, err)
	require.NotEmpty(t, all)
	for i := 1; i < len(all); i++ {
		assert.Less(t, all[i-1].version, all[i].version, "migrations must be ordered")
	}

	t.Run("applies pending", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectExec(`CREATE TABLE IF NOT EXISTS schema_migrations`).
			WillReturnResult(pgxmock.NewResult("CREATE", 0))
		for i, m := range all {
			applied := i == 0
			mock.ExpectQuery(`SELECT EXISTS`).
				WithArgs(m.version).
				WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(applied))
			if applied {
				continue
			}
			mock.ExpectExec(`CREATE`).WillReturnResult(pgxmock.NewResult("CREATE", 0))
			mock.ExpectExec(`INSERT INTO schema_migrations`).
				WithArgs(m.version).
				WillReturnResult(pgxmock.NewResult("INSERT", 1))
		}

		require.NoError(t, store.Migrate(context.Background()))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("stops on failure", func(t *testing.T) {
		store, mock := newMockStore(t)
		mock.ExpectExec(`CREATE TABLE IF NOT EXISTS schema_migrations`).
			WillReturnResult(pgxmock.NewResult("CREATE", 0))
		mock.ExpectQuery(`SELECT EXISTS`).
			WithArgs(all[0].version).
			WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectExec(`CREATE`).WillReturnError(errors.New("permission denied"))

		err := store.Migrate(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), all[0].name)
	})
}
