// Package redis caches property calendars in front of the primary repository.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"staycal/internal/domain/calendar"
)

// Client is the subset of *goredis.Client the cache uses.
type Client interface {
	Get(ctx context.Context, key string) *goredis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *goredis.StatusCmd
	Del(ctx context.Context, keys ...string) *goredis.IntCmd
	Ping(ctx context.Context) *goredis.StatusCmd
}

// Options mirrors the REDIS_* settings.
type Options struct {
	Addr     string
	Password string
	DB       int
}

func NewClient(opts Options) *goredis.Client {
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
}

// CalendarCache is a read-through calendar.Repository. Cache failures are
// logged and fall back to the wrapped repository.
type CalendarCache struct {
	Next   calendar.Repository
	Client Client
	TTL    time.Duration
	Logger *slog.Logger
}

type cachedCalendar struct {
	PropertyID calendar.PropertyID `json:"property_id"`
	Payload    calendar.Payload    `json:"payload"`
	Version    int64               `json:"version"`
	UpdatedAt  time.Time           `json:"updated_at"`
}

func cacheKey(id calendar.PropertyID) string {
	return "staycal:calendar:" + string(id)
}

func (c *CalendarCache) Calendar(ctx context.Context, id calendar.PropertyID) (*calendar.PropertyCalendar, error) {
	raw, err := c.Client.Get(ctx, cacheKey(id)).Bytes()
	switch {
	case err == nil:
		var doc cachedCalendar
		if err := json.Unmarshal(raw, &doc); err == nil {
			return &calendar.PropertyCalendar{
				PropertyID: doc.PropertyID,
				Payload:    doc.Payload,
				Version:    doc.Version,
				UpdatedAt:  doc.UpdatedAt,
			}, nil
		}
		c.log().Warn("calendar cache entry unreadable", "property", id)
	case !errors.Is(err, goredis.Nil):
		c.log().Warn("calendar cache read failed", "property", id, "err", err)
	}

	cal, err := c.Next.Calendar(ctx, id)
	if err != nil {
		return nil, err
	}
	c.store(ctx, cal)
	return cal, nil
}

// Save writes through and drops the cached copy; the next read repopulates it.
func (c *CalendarCache) Save(ctx context.Context, cal *calendar.PropertyCalendar) error {
	if err := c.Next.Save(ctx, cal); err != nil {
		return err
	}
	if err := c.Client.Del(ctx, cacheKey(cal.PropertyID)).Err(); err != nil {
		c.log().Warn("calendar cache invalidate failed", "property", cal.PropertyID, "err", err)
	}
	return nil
}

func (c *CalendarCache) Ping(ctx context.Context) error {
	if err := c.Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis: ping: %w", err)
	}
	return nil
}

func (c *CalendarCache) store(ctx context.Context, cal *calendar.PropertyCalendar) {
	raw, err := json.Marshal(cachedCalendar{
		PropertyID: cal.PropertyID,
		Payload:    cal.Payload,
		Version:    cal.Version,
		UpdatedAt:  cal.UpdatedAt,
	})
	if err != nil {
		return
	}
	if err := c.Client.Set(ctx, cacheKey(cal.PropertyID), raw, c.TTL).Err(); err != nil {
		c.log().Warn("calendar cache write failed", "property", cal.PropertyID, "err", err)
	}
}

func (c *CalendarCache) log() *slog.Logger {
	if c.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return c.Logger
}

var _ calendar.Repository = (*CalendarCache)(nil)
