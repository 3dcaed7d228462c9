package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"farm-voice/internal/domain"
)

const (
	redisKeyPrefix = "farmvoice:blob:"
	fieldData      = "data"
	fieldType      = "type"
)

// RedisStore keeps blobs as expiring hashes. Responses are only useful for a
// short while after the query, so every blob carries a TTL.
type RedisStore struct {
	client  redis.UniversalClient
	baseURL string
	ttl     time.Duration
	logger  *slog.Logger
}

// RedisConfig locates the server. URL wins over Addr when both are set.
type RedisConfig struct {
	URL  string
	Addr string
}

// NewRedisClient builds a client from a redis:// URL, falling back to a plain
// address, and checks the connection.
func NewRedisClient(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	var opts *redis.Options
	if cfg.URL != "" {
		parsed, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("parsing redis url: %w", err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{Addr: cfg.Addr}
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", opts.Addr, err)
	}
	return client, nil
}

func NewRedisStore(client redis.UniversalClient, baseURL string, ttl time.Duration, logger *slog.Logger) *RedisStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisStore{client: client, baseURL: baseURL, ttl: ttl, logger: logger}
}

func (s *RedisStore) Store(ctx context.Context, name, contentType string, body io.Reader) (string, error) {
	name, err := cleanName(name)
	if err != nil {
		return "", err
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("redis store: reading body: %w", err)
	}
	if contentType == "" {
		contentType = contentTypeFor(name)
	}

	key := redisKeyPrefix + name
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, fieldData, data, fieldType, contentType)
		pipe.Expire(ctx, key, s.ttl)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("redis store: %w", err)
	}

	s.logger.Debug("blob stored", "backend", "redis", "name", name, "bytes", len(data), "ttl", s.ttl)
	return publicURL(s.baseURL, name), nil
}

func (s *RedisStore) Open(ctx context.Context, name string) (*Blob, error) {
	name, err := cleanName(name)
	if err != nil {
		return nil, err
	}
	vals, err := s.client.HMGet(ctx, redisKeyPrefix+name, fieldData, fieldType).Result()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis store: %w", err)
	}

	data, _ := vals[0].(string)
	if vals[0] == nil {
		return nil, domain.ErrNotFound
	}
	ct, _ := vals[1].(string)
	if ct == "" {
		ct = contentTypeFor(name)
	}
	return &Blob{Body: io.NopCloser(bytes.NewReader([]byte(data))), ContentType: ct}, nil
}
