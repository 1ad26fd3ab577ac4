package userdict

import (
	"context"
	"fmt"
	"sort"

	"github.com/bastiangx/wordspell/pkg/errs"
	"github.com/redis/go-redis/v9"
)

// DefaultKey is the Redis set holding user words.
const DefaultKey = "wordspell:user_dict"

// RedisStore keeps user words in a Redis set, shared by every process
// pointed at the same server.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedis wraps client. An empty key uses DefaultKey.
func NewRedis(client *redis.Client, key string) *RedisStore {
	if key == "" {
		key = DefaultKey
	}
	return &RedisStore{client: client, key: key}
}

// DialRedis connects to a redis:// URL and checks the server answers.
func DialRedis(ctx context.Context, url, key string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid redis url: %v", errs.ErrInvalidInput, err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: redis %s: %v", errs.ErrIO, opts.Addr, err)
	}
	log.Debugf("User dictionary on redis %s key %q", opts.Addr, key)
	return NewRedis(client, key), nil
}

func (r *RedisStore) Add(ctx context.Context, word string) error {
	w, err := Normalize(word)
	if err != nil {
		return err
	}
	if err := r.client.SAdd(ctx, r.key, w).Err(); err != nil {
		return fmt.Errorf("%w: redis add: %v", errs.ErrIO, err)
	}
	return nil
}

func (r *RedisStore) Remove(ctx context.Context, word string) error {
	w, err := Normalize(word)
	if err != nil {
		return err
	}
	if err := r.client.SRem(ctx, r.key, w).Err(); err != nil {
		return fmt.Errorf("%w: redis remove: %v", errs.ErrIO, err)
	}
	return nil
}

func (r *RedisStore) Contains(ctx context.Context, word string) (bool, error) {
	w, err := Normalize(word)
	if err != nil {
		return false, nil
	}
	ok, err := r.client.SIsMember(ctx, r.key, w).Result()
	if err != nil {
		return false, fmt.Errorf("%w: redis lookup: %v", errs.ErrIO, err)
	}
	return ok, nil
}

// All returns the words in byte order.
func (r *RedisStore) All(ctx context.Context) ([]string, error) {
	words, err := r.client.SMembers(ctx, r.key).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: redis members: %v", errs.ErrIO, err)
	}
	sort.Strings(words)
	return words, nil
}

// Close closes the client.
func (r *RedisStore) Close() error { return r.client.Close() }
