// Package rediscache provides a Redis read-through cache for user profiles.
package rediscache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mmynk/splitledger/internal/models"
	"github.com/mmynk/splitledger/internal/storage"
)

const (
	keyPrefix = "splitledger:user:"

	// missing marks an ID the backing directory does not know.
	missing = "-"

	defaultMissTTL = time.Minute
)

// Ensure Directory implements storage.UserDirectory
var _ storage.UserDirectory = (*Directory)(nil)

// Directory caches profiles from another UserDirectory in Redis.
// Redis failures are logged and fall through to the backing directory.
type Directory struct {
	client  redis.Cmdable
	next    storage.UserDirectory
	ttl     time.Duration
	missTTL time.Duration
}

// Option configures a Directory.
type Option func(*Directory)

// WithMissTTL sets how long an unknown ID is remembered as missing.
func WithMissTTL(d time.Duration) Option {
	return func(dir *Directory) { dir.missTTL = d }
}

// New wraps next with a cache whose entries expire after ttl.
// Unknown IDs are cached as missing for a minute, or ttl if shorter.
func New(client redis.Cmdable, next storage.UserDirectory, ttl time.Duration, opts ...Option) *Directory {
	d := &Directory{client: client, next: next, ttl: ttl, missTTL: min(defaultMissTTL, ttl)}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// GetUsersByIDs returns cached profiles and loads the rest from the backing directory.
func (d *Directory) GetUsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error) {
	users := make(map[string]*models.User, len(ids))
	if len(ids) == 0 {
		return users, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = keyPrefix + id
	}

	misses := ids
	values, err := d.client.MGet(ctx, keys...).Result()
	if err != nil {
		slog.Warn("User cache read failed", "error", err, "count", len(ids))
	} else {
		misses = misses[:0:0]
		for i, v := range values {
			if v == missing {
				continue
			}
			user, ok := decode(v)
			if !ok {
				misses = append(misses, ids[i])
				continue
			}
			users[ids[i]] = user
		}
	}

	if len(misses) == 0 {
		return users, nil
	}

	loaded, err := d.next.GetUsersByIDs(ctx, misses)
	if err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}
	for id, user := range loaded {
		users[id] = user
	}
	d.store(ctx, misses, loaded)

	return users, nil
}

// Invalidate drops cached profiles and missing markers, e.g. after a registration.
func (d *Directory) Invalidate(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = keyPrefix + id
	}
	if err := d.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to invalidate users: %w", err)
	}
	return nil
}

// store caches the loaded profiles and marks the requested IDs that were not found.
func (d *Directory) store(ctx context.Context, requested []string, users map[string]*models.User) {
	pipe := d.client.Pipeline()
	for _, id := range requested {
		user, ok := users[id]
		if !ok {
			if d.missTTL > 0 {
				pipe.Set(ctx, keyPrefix+id, missing, d.missTTL)
			}
			continue
		}
		data, err := json.Marshal(user)
		if err != nil {
			slog.Warn("User cache encode failed", "user_id", id, "error", err)
			continue
		}
		pipe.Set(ctx, keyPrefix+id, data, d.ttl)
	}
	if pipe.Len() == 0 {
		return
	}
	if _, err := pipe.Exec(ctx); err != nil {
		slog.Warn("User cache write failed", "error", err, "count", len(requested))
	}
}

func decode(v interface{}) (*models.User, bool) {
	s, ok := v.(string)
	if !ok {
		return nil, false
	}
	user := &models.User{}
	if err := json.Unmarshal([]byte(s), user); err != nil {
		return nil, false
	}
	return user, true
}
