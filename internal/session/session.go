// Package session keeps authenticated user snapshots in a key-value store
// under opaque, unguessable tokens.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	sl "bookshelf/internal/lib/logger/sl"
	"bookshelf/internal/lib/token"
	"bookshelf/internal/models"
	"bookshelf/internal/storage"
)

// ErrNotFound is returned by Update when the session no longer exists.
var ErrNotFound = errors.New("session not found")

type Repository interface {
	SetSession(ctx context.Context, key string, data []byte, ttl time.Duration, userKey, token string, userKeyTTL time.Duration) error
	ReplaceSession(ctx context.Context, key string, data []byte) error
	Session(ctx context.Context, key string) ([]byte, error)
	DeleteSession(ctx context.Context, key, userKey, token string) error
}

type Store struct {
	log            *slog.Logger
	repo           Repository
	prefix         string
	expiration     time.Duration
	tempExpiration time.Duration
}

// New creates a Store. Remembered sessions live for expiration, the others for tempExpiration.
func New(log *slog.Logger, repo Repository, prefix string, expiration, tempExpiration time.Duration) *Store {
	return &Store{
		log:            log,
		repo:           repo,
		prefix:         prefix,
		expiration:     expiration,
		tempExpiration: tempExpiration,
	}
}

// Create stores the snapshot under a fresh token and returns the token.
func (s *Store) Create(ctx context.Context, user models.UserPrivate, rememberMe bool) (string, error) {
	const op = "session.Create"

	data, err := json.Marshal(user)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	ttl := s.tempExpiration
	if rememberMe {
		ttl = s.expiration
	}

	tok := token.GenerateSecureID()

	if err := s.repo.SetSession(ctx, s.key(tok), data, ttl, s.userKey(user.ID), tok, s.expiration); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	s.log.Debug("session created",
		slog.String("op", op),
		slog.Int64("uid", user.ID),
		slog.Bool("remember_me", rememberMe),
	)

	return tok, nil
}

// Update replaces the snapshot of an existing session without touching its expiration.
func (s *Store) Update(ctx context.Context, tok string, user models.UserPrivate) error {
	const op = "session.Update"

	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.repo.ReplaceSession(ctx, s.key(tok), data); err != nil {
		if errors.Is(err, storage.ErrSessionNotFound) {
			return ErrNotFound
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Get returns the snapshot stored under tok, or nil when there is none.
func (s *Store) Get(ctx context.Context, tok string) (*models.UserPrivate, error) {
	const op = "session.Get"

	data, err := s.repo.Session(ctx, s.key(tok))
	if err != nil {
		if errors.Is(err, storage.ErrSessionNotFound) {
			return nil, nil
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var user models.UserPrivate
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, fmt.Errorf("%s: corrupted session: %w", op, err)
	}

	return &user, nil
}

// Destroy removes the session. Destroying an unknown token is not an error.
func (s *Store) Destroy(ctx context.Context, tok string) error {
	const op = "session.Destroy"

	var userKey string

	user, err := s.Get(ctx, tok)
	if err != nil {
		// the key is deleted anyway, only the per-user index is left behind
		s.log.Warn("failed to read session before destroy", slog.String("op", op), sl.Err(err))
	}
	if user != nil {
		userKey = s.userKey(user.ID)
	}

	if err := s.repo.DeleteSession(ctx, s.key(tok), userKey, tok); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Store) key(tok string) string {
	return s.prefix + ":" + tok
}

func (s *Store) userKey(userID int64) string {
	return fmt.Sprintf("%s:user:%d", s.prefix, userID)
}
