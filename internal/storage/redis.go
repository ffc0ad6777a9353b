package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/redis/go-redis/v9"
)

// RedisAdapter stores each key as a Redis string value
type RedisAdapter struct {
	client *redis.Client
	prefix string
}

// RedisOptions holds Redis adapter configuration
type RedisOptions struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// NewRedisAdapter creates a Redis adapter and verifies connectivity
func NewRedisAdapter(opts RedisOptions) (*RedisAdapter, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", opts.Addr, err)
	}

	return &RedisAdapter{client: client, prefix: opts.KeyPrefix}, nil
}

// Put stores data at the given path
func (r *RedisAdapter) Put(ctx context.Context, path string, data io.Reader) error {
	buf, err := io.ReadAll(data)
	if err != nil {
		return fmt.Errorf("failed to read data: %w", err)
	}
	if err := r.client.Set(ctx, r.key(path), buf, 0).Err(); err != nil {
		return fmt.Errorf("failed to set key: %w", err)
	}
	return nil
}

// Get retrieves data from the given path
func (r *RedisAdapter) Get(ctx context.Context, path string) (io.ReadCloser, error) {
	buf, err := r.client.Get(ctx, r.key(path)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to get key: %w", err)
	}
	return io.NopCloser(bytes.NewReader(buf)), nil
}

// Exists checks if data exists at the given path
func (r *RedisAdapter) Exists(ctx context.Context, path string) (bool, error) {
	n, err := r.client.Exists(ctx, r.key(path)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check existence: %w", err)
	}
	return n > 0, nil
}

// Close releases the connection pool
func (r *RedisAdapter) Close() error {
	return r.client.Close()
}

func (r *RedisAdapter) key(path string) string {
	return r.prefix + path
}
