package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bookshelf/internal/config"
	"bookshelf/internal/models"
	"bookshelf/internal/storage"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// pool is the part of *pgxpool.Pool the repository uses.
type pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

type PostgresRepo struct {
	pool pool
}

// unique constraint name -> request field
var uniqueFields = map[string]string{
	"users_email_key":    "email",
	"users_username_key": "username",
}

func New(ctx context.Context, cfg config.Postgres) (*PostgresRepo, error) {
	const op = "storage.postgres.New"

	poolConfig, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse config: %w", op, err)
	}

	poolConfig.MaxConns = 10
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = time.Minute * 30

	pgPool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create pool: %w", op, err)
	}

	if err := pgPool.Ping(ctx); err != nil {
		pgPool.Close()
		return nil, fmt.Errorf("%s: failed to ping database: %w", op, err)
	}

	return &PostgresRepo{pool: pgPool}, nil
}

// NewWithPool wraps an existing pool. Tests pass a pgxmock pool here.
func NewWithPool(p pool) *PostgresRepo {
	return &PostgresRepo{pool: p}
}

func (r *PostgresRepo) SaveUser(ctx context.Context, email, username string, passHash []byte) (models.User, error) {
	const op = "storage.postgres.SaveUser"

	query := `
		INSERT INTO users (email, username, password_hash)
		VALUES ($1, $2, $3)
		RETURNING id, is_verified;
	`

	u := models.User{
		Email:    email,
		Username: username,
		PassHash: passHash,
	}

	err := r.pool.QueryRow(ctx, query, email, username, string(passHash)).Scan(&u.ID, &u.IsVerified)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			field, ok := uniqueFields[pgErr.ConstraintName]
			if !ok {
				field = pgErr.ConstraintName
			}

			return models.User{}, fmt.Errorf("%s: %w", op, &storage.DuplicateFieldError{Field: field})
		}

		return models.User{}, fmt.Errorf("%s: failed to save user: %w", op, err)
	}

	return u, nil
}

func (r *PostgresRepo) UserByUsername(ctx context.Context, username string) (models.User, error) {
	const op = "storage.postgres.UserByUsername"

	query := `
		SELECT id, email, username, password_hash, is_verified
		FROM users
		WHERE username = $1;
	`

	u, err := scanUser(r.pool.QueryRow(ctx, query, username))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, storage.ErrUserNotFound
		}

		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return u, nil
}

func (r *PostgresRepo) UserByID(ctx context.Context, id int64) (models.User, error) {
	const op = "storage.postgres.UserByID"

	query := `
		SELECT id, email, username, password_hash, is_verified
		FROM users
		WHERE id = $1;
	`

	u, err := scanUser(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.User{}, storage.ErrUserNotFound
		}

		return models.User{}, fmt.Errorf("%s: %w", op, err)
	}

	return u, nil
}

func (r *PostgresRepo) SetVerified(ctx context.Context, userID int64) error {
	const op = "storage.postgres.SetVerified"

	query := `UPDATE users SET is_verified = TRUE WHERE id = $1`

	tag, err := r.pool.Exec(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if tag.RowsAffected() == 0 {
		return storage.ErrUserNotFound
	}

	return nil
}

func (r *PostgresRepo) Close() {
	r.pool.Close()
}

func scanUser(row pgx.Row) (models.User, error) {
	var (
		u        models.User
		passHash string
	)

	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.Username,
		&passHash,
		&u.IsVerified,
	)
	if err != nil {
		return models.User{}, err
	}

	u.PassHash = []byte(passHash)

	return u, nil
}
