// Package cache keeps materialized calendars in Redis.
//
// Every branch has a version counter. Entries are keyed by the version they
// were computed under, so bumping the counter after a write makes all older
// entries unreachable at once and the next read recomputes from the store.
package cache

import (
	"context"
	"crypto/sha1"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/room-reservation/internal/config"
	"github.com/iliyamo/room-reservation/internal/model"
)

// CalendarCache is a Redis-backed service.CalendarCache.
type CalendarCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
	max    int
}

// NewCalendarCache returns a cache, or nil when caching is disabled or no
// Redis client is available.
func NewCalendarCache(cfg config.CacheConfig, rdb *redis.Client) *CalendarCache {
	if !cfg.Enabled || rdb == nil {
		return nil
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &CalendarCache{rdb: rdb, ttl: ttl, prefix: cfg.Prefix, max: cfg.MaxEntryBytes}
}

func (c *CalendarCache) versionKey(branchID uint64) string {
	return fmt.Sprintf("%s:calendar:branch:%d:version", c.prefix, branchID)
}

// Version reads the branch counter. A missing counter is version 0. ok is
// false when Redis cannot be read, which disables caching for the request.
func (c *CalendarCache) Version(ctx context.Context, branchID uint64) (int64, bool) {
	v, err := c.rdb.Get(ctx, c.versionKey(branchID)).Int64()
	switch {
	case errors.Is(err, redis.Nil):
		return 0, true
	case err != nil:
		log.Printf("cache: read version of branch %d: %v", branchID, err)
		return 0, false
	}
	return v, true
}

// EntryKey derives the cache key of a query computed under version on day
// today. Today is part of the key because housekeeping overrides depend on it.
func EntryKey(prefix string, q model.CalendarQuery, version int64, today time.Time) string {
	parts := []string{
		q.Start.Format(model.DateLayout),
		q.End.Format(model.DateLayout),
		today.Format(model.DateLayout),
		optional(q.FloorID),
		optional(q.RoomTypeID),
	}
	sum := sha1.Sum([]byte(strings.Join(parts, "|")))
	return fmt.Sprintf("%s:calendar:branch:%d:v%d:%x", prefix, q.BranchID, version, sum[:])
}

func optional(id *uint64) string {
	if id == nil {
		return "-"
	}
	return strconv.FormatUint(*id, 10)
}

// Get returns the calendars of q cached under version, if any.
func (c *CalendarCache) Get(ctx context.Context, q model.CalendarQuery, version int64, today time.Time) ([]model.RoomCalendar, bool) {
	bs, err := c.rdb.Get(ctx, EntryKey(c.prefix, q, version, today)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("cache: get calendar: %v", err)
		}
		return nil, false
	}
	var cals []model.RoomCalendar
	if err := json.Unmarshal(bs, &cals); err != nil {
		log.Printf("cache: decode calendar: %v", err)
		return nil, false
	}
	return cals, true
}

// Set stores cals under version, which must be the version read before the
// data behind cals was loaded. Entries larger than the configured limit are
// skipped.
func (c *CalendarCache) Set(ctx context.Context, q model.CalendarQuery, version int64, today time.Time, cals []model.RoomCalendar) {
	bs, err := json.Marshal(cals)
	if err != nil {
		log.Printf("cache: encode calendar: %v", err)
		return
	}
	if c.max > 0 && len(bs) > c.max {
		return
	}
	if err := c.rdb.SetEx(ctx, EntryKey(c.prefix, q, version, today), bs, c.ttl).Err(); err != nil {
		log.Printf("cache: set calendar: %v", err)
	}
}

// Invalidate bumps the branch version. The request context may already be
// done by the time a write commits, so the bump uses its own deadline.
func (c *CalendarCache) Invalidate(_ context.Context, branchID uint64) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := c.rdb.Incr(ctx, c.versionKey(branchID)).Err(); err != nil {
		log.Printf("cache: invalidate branch %d: %v", branchID, err)
	}
}
