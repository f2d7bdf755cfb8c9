// Package evalcache stores finished evaluation rows keyed by submission
// content, so repeated batch runs skip identical work.
package evalcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	appErr "evalbox/pkg/errors"
)

// ErrMiss reports that no entry exists for the key.
var ErrMiss = errors.New("evalcache: miss")

type Config struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// New connects to Redis and verifies the connection with a ping.
func New(cfg Config) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, appErr.Wrapf(err, appErr.CacheError, "connect to redis at %s failed: %v", cfg.Addr, err)
	}
	return &Cache{client: client, ttl: cfg.TTL}, nil
}

// Key derives the cache key from everything that determines an evaluation's
// outcome: the language, the exact spliced source, and the time budget.
func Key(langID, source string, timeoutSeconds int) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%d\x00", langID, timeoutSeconds)
	h.Write([]byte(source))
	return "evalbox:result:" + hex.EncodeToString(h.Sum(nil))
}

// Get returns the stored payload, or ErrMiss.
func (c *Cache) Get(ctx context.Context, key string) (string, error) {
	val, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrMiss
	}
	if err != nil {
		return "", appErr.Wrap(err, appErr.CacheError)
	}
	return val, nil
}

// Set stores the payload under the key with the configured TTL.
func (c *Cache) Set(ctx context.Context, key, payload string) error {
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		return appErr.Wrap(err, appErr.CacheSetFailed)
	}
	return nil
}

// Close releases the underlying connection pool.
func (c *Cache) Close() error {
	return c.client.Close()
}
