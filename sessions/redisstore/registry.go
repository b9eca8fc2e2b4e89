// Package redisstore is a sessions.Registry shared by every server process through Redis.
package redisstore

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jrsteele09/go-expense-tracker/sessions"
	pkgerrors "github.com/pkg/errors"
)

const defaultPrefix = "refresh:"

// compareAndSwapScript sets KEYS[1] to ARGV[2] only while it still holds ARGV[1].
// ARGV[3] is the expiry in milliseconds, 0 for none.
var compareAndSwapScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) ~= ARGV[1] then
	return 0
end
if tonumber(ARGV[3]) > 0 then
	redis.call("SET", KEYS[1], ARGV[2], "PX", ARGV[3])
else
	redis.call("SET", KEYS[1], ARGV[2])
end
return 1
`)

type Registry struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

var _ sessions.Registry = (*Registry)(nil)

type Option func(*Registry)

// WithTTL expires entries after ttl, normally the refresh token lifetime
func WithTTL(ttl time.Duration) Option {
	return func(r *Registry) {
		r.ttl = ttl
	}
}

// WithPrefix sets the key prefix, "refresh:" by default
func WithPrefix(prefix string) Option {
	return func(r *Registry) {
		r.prefix = prefix
	}
}

func New(client *redis.Client, options ...Option) *Registry {
	r := &Registry{
		client: client,
		prefix: defaultPrefix,
	}
	for _, opt := range options {
		opt(r)
	}
	return r
}

// Connect parses a redis:// URL, checks the server is reachable and returns a Registry using it
func Connect(ctx context.Context, redisURL string, options ...Option) (*Registry, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "[Registry.Connect] invalid redis URL")
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, pkgerrors.Wrap(err, "[Registry.Connect] ping")
	}
	return New(client, options...), nil
}

func (r *Registry) key(userID int64) string {
	return fmt.Sprintf("%s%d", r.prefix, userID)
}

func (r *Registry) Put(ctx context.Context, userID int64, refreshToken string) error {
	if err := r.client.Set(ctx, r.key(userID), refreshToken, r.ttl).Err(); err != nil {
		return pkgerrors.Wrap(err, "[Registry.Put]")
	}
	return nil
}

func (r *Registry) Get(ctx context.Context, userID int64) (string, bool, error) {
	t, err := r.client.Get(ctx, r.key(userID)).Result()
	if err == redis.Nil {
		return "", false, nil
	} else if err != nil {
		return "", false, pkgerrors.Wrap(err, "[Registry.Get]")
	}
	return t, true, nil
}

func (r *Registry) Remove(ctx context.Context, userID int64) error {
	if err := r.client.Del(ctx, r.key(userID)).Err(); err != nil {
		return pkgerrors.Wrap(err, "[Registry.Remove]")
	}
	return nil
}

func (r *Registry) CompareAndSwap(ctx context.Context, userID int64, current, next string) (bool, error) {
	swapped, err := compareAndSwapScript.Run(ctx, r.client, []string{r.key(userID)}, current, next, r.ttl.Milliseconds()).Int()
	if err != nil {
		return false, pkgerrors.Wrap(err, "[Registry.CompareAndSwap]")
	}
	return swapped == 1, nil
}

// Ping reports whether Redis is reachable
func (r *Registry) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *Registry) Close() error {
	return r.client.Close()
}
