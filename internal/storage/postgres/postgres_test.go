package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookshelf/internal/models"
	"bookshelf/internal/storage"
)

func ptr[T any](v T) *T {
	return &v
}

func newMockRepo(t *testing.T) (*PostgresRepo, pgxmock.PgxPoolIface) {
	t.Helper()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err, "failed to create mock")
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
		mock.Close()
	})

	return NewWithPool(mock), mock
}

func TestPostgresRepo_SaveUser(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(mock pgxmock.PgxPoolIface)
		wantField string
		wantErr   bool
	}{
		{
			name: "successful insert",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`INSERT INTO users`).
					WithArgs("a@b.com", "bob", "hash").
					WillReturnRows(pgxmock.NewRows([]string{"id", "is_verified"}).AddRow(int64(7), false))
			},
		},
		{
			name: "duplicate username",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`INSERT INTO users`).
					WithArgs("a@b.com", "bob", "hash").
					WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "users_username_key"})
			},
			wantField: "username",
			wantErr:   true,
		},
		{
			name: "duplicate email",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`INSERT INTO users`).
					WithArgs("a@b.com", "bob", "hash").
					WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "users_email_key"})
			},
			wantField: "email",
			wantErr:   true,
		},
		{
			name: "database error",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`INSERT INTO users`).
					WithArgs("a@b.com", "bob", "hash").
					WillReturnError(errors.New("connection refused"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newMockRepo(t)
			tt.setupMock(mock)

			u, err := repo.SaveUser(context.Background(), "a@b.com", "bob", []byte("hash"))

			if !tt.wantErr {
				require.NoError(t, err)
				assert.Equal(t, models.User{
					ID:       7,
					Email:    "a@b.com",
					Username: "bob",
					PassHash: []byte("hash"),
				}, u)
				return
			}

			require.Error(t, err)

			var dupErr *storage.DuplicateFieldError
			if tt.wantField != "" {
				require.ErrorAs(t, err, &dupErr)
				assert.Equal(t, tt.wantField, dupErr.Field)
				assert.ErrorIs(t, err, storage.ErrUserExists)
			} else {
				assert.False(t, errors.As(err, &dupErr))
				assert.Contains(t, err.Error(), "connection refused")
			}
		})
	}
}

func TestPostgresRepo_UserByUsername(t *testing.T) {
	columns := []string{"id", "email", "username", "password_hash", "is_verified"}

	t.Run("found", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(`FROM users`).
			WithArgs("alice").
			WillReturnRows(pgxmock.NewRows(columns).AddRow(int64(1), "alice@gmail.com", "alice", "hash", true))

		u, err := repo.UserByUsername(context.Background(), "alice")
		require.NoError(t, err)
		assert.Equal(t, int64(1), u.ID)
		assert.Equal(t, []byte("hash"), u.PassHash)
		assert.True(t, u.IsVerified)
	})

	t.Run("not found", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(`FROM users`).
			WithArgs("ghost").
			WillReturnRows(pgxmock.NewRows(columns))

		_, err := repo.UserByUsername(context.Background(), "ghost")
		require.ErrorIs(t, err, storage.ErrUserNotFound)
	})
}

func TestPostgresRepo_UserByID(t *testing.T) {
	columns := []string{"id", "email", "username", "password_hash", "is_verified"}

	t.Run("found", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(`FROM users`).
			WithArgs(int64(2)).
			WillReturnRows(pgxmock.NewRows(columns).AddRow(int64(2), "bob@outlook.com", "bob", "hash", false))

		u, err := repo.UserByID(context.Background(), 2)
		require.NoError(t, err)
		assert.Equal(t, "bob", u.Username)
	})

	t.Run("not found", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectQuery(`FROM users`).
			WithArgs(int64(3)).
			WillReturnRows(pgxmock.NewRows(columns))

		_, err := repo.UserByID(context.Background(), 3)
		require.ErrorIs(t, err, storage.ErrUserNotFound)
	})
}

func TestPostgresRepo_SetVerified(t *testing.T) {
	t.Run("updates the user", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectExec(`UPDATE users SET is_verified = TRUE`).
			WithArgs(int64(1)).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		require.NoError(t, repo.SetVerified(context.Background(), 1))
	})

	t.Run("missing user", func(t *testing.T) {
		repo, mock := newMockRepo(t)
		mock.ExpectExec(`UPDATE users SET is_verified = TRUE`).
			WithArgs(int64(9)).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		require.ErrorIs(t, repo.SetVerified(context.Background(), 9), storage.ErrUserNotFound)
	})
}

var bookColumns = []string{
	"id", "isbn13", "title", "parution_date", "summary", "pages", "cover_filename",
}

var authorColumns = []string{"book_id", "id", "firstname", "lastname", "description"}

func TestPostgresRepo_Books(t *testing.T) {
	parution := time.Date(2004, 3, 11, 0, 0, 0, 0, time.UTC)

	t.Run("books with authors and publisher", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectQuery(`FROM books b`).
			WillReturnRows(pgxmock.NewRows(append(bookColumns, "publisher_id", "publisher_name")).
				AddRow(int64(1), "9782266127035", "L'âme du mal", parution, "summary", int32(514), "cover.jpg", ptr(int64(1)), ptr("POCKET")).
				AddRow(int64(2), "9782840989042", "In Tenebris", parution, "summary", int32(599), "cover2.jpg", (*int64)(nil), (*string)(nil)))

		mock.ExpectQuery(`FROM author_books ab`).
			WithArgs([]int64{1, 2}).
			WillReturnRows(pgxmock.NewRows(authorColumns).
				AddRow(int64(1), int64(1), "Maxime", "Chattam", ""))

		books, err := repo.Books(context.Background())
		require.NoError(t, err)
		require.Len(t, books, 2)

		assert.Equal(t, &models.Publisher{ID: 1, Name: "POCKET"}, books[0].Publisher)
		assert.Equal(t, []models.Author{{ID: 1, Firstname: "Maxime", Lastname: "Chattam"}}, books[0].Authors)
		assert.Nil(t, books[1].Publisher)
		assert.Empty(t, books[1].Authors)
		assert.NotNil(t, books[1].Authors)
	})

	t.Run("empty catalog skips the authors query", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectQuery(`FROM books b`).
			WillReturnRows(pgxmock.NewRows(append(bookColumns, "publisher_id", "publisher_name")))

		books, err := repo.Books(context.Background())
		require.NoError(t, err)
		assert.Empty(t, books)
	})
}

func TestPostgresRepo_Book(t *testing.T) {
	parution := time.Date(2004, 3, 11, 0, 0, 0, 0, time.UTC)
	columns := append(append([]string{}, bookColumns...),
		"genre_id", "genre_name", "publisher_id", "publisher_name", "series_id", "series_name")

	t.Run("found", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectQuery(`WHERE b.id = \$1`).
			WithArgs(int64(1)).
			WillReturnRows(pgxmock.NewRows(columns).
				AddRow(int64(1), "9782266127035", "L'âme du mal", parution, "summary", int32(514), "cover.jpg",
					ptr(int64(1)), ptr("Thriller"), ptr(int64(1)), ptr("POCKET"), ptr(int64(1)), ptr("La trilogie du mal")))

		mock.ExpectQuery(`FROM author_books ab`).
			WithArgs([]int64{1}).
			WillReturnRows(pgxmock.NewRows(authorColumns).
				AddRow(int64(1), int64(1), "Maxime", "Chattam", "French novelist"))

		b, err := repo.Book(context.Background(), 1)
		require.NoError(t, err)

		assert.Equal(t, "L'âme du mal", b.Title)
		assert.Equal(t, &models.Genre{ID: 1, Name: "Thriller"}, b.Genre)
		assert.Equal(t, &models.Series{ID: 1, Name: "La trilogie du mal"}, b.Series)
		assert.Equal(t, &models.Publisher{ID: 1, Name: "POCKET"}, b.Publisher)
		require.Len(t, b.Authors, 1)
		assert.Equal(t, "Chattam", b.Authors[0].Lastname)
	})

	t.Run("not found", func(t *testing.T) {
		repo, mock := newMockRepo(t)

		mock.ExpectQuery(`WHERE b.id = \$1`).
			WithArgs(int64(404)).
			WillReturnRows(pgxmock.NewRows(columns))

		_, err := repo.Book(context.Background(), 404)
		require.ErrorIs(t, err, storage.ErrBookNotFound)
	})
}
