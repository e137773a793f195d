package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"bookshelf/internal/storage"

	"github.com/redis/go-redis/v9"
)

type RedisRepo struct {
	client *redis.Client
}

func New(ctx context.Context, addr, pass string, db int) (*RedisRepo, error) {
	const op = "storage.redis.New"

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     pass,
		DB:           db,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &RedisRepo{
		client: client,
	}, nil
}

// * SetSession сохраняет сессию и добавляет токен в множество сессий пользователя (MULTI/EXEC)
func (r *RedisRepo) SetSession(
	ctx context.Context,
	key string,
	data []byte,
	ttl time.Duration,
	userKey string,
	token string,
	userKeyTTL time.Duration,
) error {
	const op = "storage.redis.SetSession"

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, key, data, ttl)
		pipe.SAdd(ctx, userKey, token)
		pipe.Expire(ctx, userKey, userKeyTTL)

		return nil
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// * ReplaceSession перезаписывает существующую сессию, сохраняя оставшийся TTL (SET XX KEEPTTL)
func (r *RedisRepo) ReplaceSession(ctx context.Context, key string, data []byte) error {
	const op = "storage.redis.ReplaceSession"

	ok, err := r.client.SetXX(ctx, key, data, redis.KeepTTL).Result()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if !ok {
		return storage.ErrSessionNotFound
	}

	return nil
}

// * Session возвращает сохранённый снимок сессии
func (r *RedisRepo) Session(ctx context.Context, key string) ([]byte, error) {
	const op = "storage.redis.Session"

	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, storage.ErrSessionNotFound
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return data, nil
}

// * DeleteSession удаляет сессию и убирает токен из множества сессий пользователя
func (r *RedisRepo) DeleteSession(ctx context.Context, key, userKey, token string) error {
	const op = "storage.redis.DeleteSession"

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, key)
	if userKey != "" {
		pipe.SRem(ctx, userKey, token)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// * SetOneTimePassword сохраняет идентификатор OTP -> id пользователя
func (r *RedisRepo) SetOneTimePassword(ctx context.Context, key string, userID int64, ttl time.Duration) error {
	const op = "storage.redis.SetOneTimePassword"

	if err := r.client.Set(ctx, key, userID, ttl).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// * ConsumeOneTimePassword атомарно читает и удаляет OTP (GETDEL)
// Повторный вызов с тем же ключом вернёт storage.ErrOTPNotFound
func (r *RedisRepo) ConsumeOneTimePassword(ctx context.Context, key string) (int64, error) {
	const op = "storage.redis.ConsumeOneTimePassword"

	raw, err := r.client.GetDel(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, storage.ErrOTPNotFound
		}

		return 0, fmt.Errorf("%s: %w", op, err)
	}

	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: malformed user id: %w", op, err)
	}

	return userID, nil
}

// * Close закрывает соединение с Redis.
func (r *RedisRepo) Close() {
	_ = r.client.Close()
}
