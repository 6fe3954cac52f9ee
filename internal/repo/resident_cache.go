package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/pkordes/laundry-booking/backend/internal/domain"
)

// residentKeyPrefix namespaces directory entries in the shared Redis database.
const residentKeyPrefix = "resident:"

// cachedResidentRepo is a read-through Redis cache in front of another
// ResidentRepo. Redis is an optimisation only: any cache error is logged and
// the lookup falls through to the wrapped repo.
type cachedResidentRepo struct {
	next ResidentRepo
	rdb  *redis.Client
	ttl  time.Duration
	log  *slog.Logger
}

// NewCachedResidentRepo wraps next with a Redis cache whose entries expire after ttl.
func NewCachedResidentRepo(next ResidentRepo, rdb *redis.Client, ttl time.Duration, log *slog.Logger) ResidentRepo {
	return &cachedResidentRepo{next: next, rdb: rdb, ttl: ttl, log: log}
}

// Lookup serves from Redis when possible, otherwise from next, populating the cache.
// Misses (domain.ErrNotFound) are not cached.
func (c *cachedResidentRepo) Lookup(ctx context.Context, username string) (domain.Resident, error) {
	key := residentKeyPrefix + username

	data, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var res domain.Resident
		if jerr := json.Unmarshal(data, &res); jerr == nil {
			return res, nil
		}
		c.log.WarnContext(ctx, "discarding malformed cached resident", "key", key)
	case !errors.Is(err, redis.Nil):
		c.log.WarnContext(ctx, "resident cache read failed", "key", key, "error", err)
	}

	res, err := c.next.Lookup(ctx, username)
	if err != nil {
		return domain.Resident{}, err
	}

	c.store(ctx, key, res)
	return res, nil
}

func (c *cachedResidentRepo) store(ctx context.Context, key string, res domain.Resident) {
	data, err := json.Marshal(res)
	if err != nil {
		c.log.WarnContext(ctx, "resident cache encode failed", "key", key, "error", err)
		return
	}
	if err := c.rdb.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.log.WarnContext(ctx, "resident cache write failed", "key", key, "error", fmt.Errorf("redis set: %w", err))
	}
}
