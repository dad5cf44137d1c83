package redis

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"staycal/internal/domain/calendar"
)

type fakeClient struct {
	mu   sync.Mutex
	data map[string]string
	down bool
}

func (f *fakeClient) Get(_ context.Context, key string) *goredis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return goredis.NewStringResult("", errors.New("connection refused"))
	}
	v, ok := f.data[key]
	if !ok {
		return goredis.NewStringResult("", goredis.Nil)
	}
	return goredis.NewStringResult(v, nil)
}

func (f *fakeClient) Set(_ context.Context, key string, value interface{}, _ time.Duration) *goredis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.down {
		return goredis.NewStatusResult("", errors.New("connection refused"))
	}
	f.data[key] = string(value.([]byte))
	return goredis.NewStatusResult("OK", nil)
}

func (f *fakeClient) Del(_ context.Context, keys ...string) *goredis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		delete(f.data, k)
	}
	return goredis.NewIntResult(int64(len(keys)), nil)
}

func (f *fakeClient) Ping(context.Context) *goredis.StatusCmd {
	if f.down {
		return goredis.NewStatusResult("", errors.New("connection refused"))
	}
	return goredis.NewStatusResult("PONG", nil)
}

type countingRepo struct {
	cals  map[calendar.PropertyID]*calendar.PropertyCalendar
	reads int
}

func (r *countingRepo) Calendar(_ context.Context, id calendar.PropertyID) (*calendar.PropertyCalendar, error) {
	r.reads++
	cal, ok := r.cals[id]
	if !ok {
		return nil, calendar.ErrPropertyNotFound
	}
	cp := *cal
	return &cp, nil
}

func (r *countingRepo) Save(_ context.Context, cal *calendar.PropertyCalendar) error {
	r.cals[cal.PropertyID] = cal
	return nil
}

func seeded() *countingRepo {
	cal := calendar.NewPropertyCalendar("villa")
	cal.Payload = calendar.Payload{
		Calendar: calendar.Table{{Key: "stay", StartDate: "2024-03-10", EndDate: "2024-03-12", ReservationID: "R1"}},
		Reservations: calendar.NewReservations(calendar.ReservationEvent{
			ID: "R1", Status: "reserve",
			CheckinDate: calendar.MustParseDate("2024-03-10"), CheckoutDate: calendar.MustParseDate("2024-03-12"),
		}),
	}
	cal.Version = 3
	return &countingRepo{cals: map[calendar.PropertyID]*calendar.PropertyCalendar{"villa": cal}}
}

func TestCalendarCacheReadThrough(t *testing.T) {
	t.Parallel()

	repo := seeded()
	cache := &CalendarCache{Next: repo, Client: &fakeClient{data: map[string]string{}}, TTL: time.Minute}
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		cal, err := cache.Calendar(ctx, "villa")
		if err != nil {
			t.Fatalf("read %d: %v", i, err)
		}
		if cal.Version != 3 || len(cal.Payload.Calendar) != 1 || cal.Payload.Calendar[0].Key != "stay" {
			t.Fatalf("unexpected calendar %+v", cal)
		}
		if ev, ok := cal.Payload.Reservations.Get("R1"); !ok || ev.CheckoutDate.String() != "2024-03-12" {
			t.Fatalf("reservation lost in cache: %+v", ev)
		}
	}
	if repo.reads != 1 {
		t.Fatalf("expected one repository read, got %d", repo.reads)
	}

	cal, _ := cache.Calendar(ctx, "villa")
	cal.Version = 4
	if err := cache.Save(ctx, cal); err != nil {
		t.Fatalf("save: %v", err)
	}
	if got, _ := cache.Calendar(ctx, "villa"); got.Version != 4 || repo.reads != 2 {
		t.Fatalf("save did not invalidate: version %d reads %d", got.Version, repo.reads)
	}

	if _, err := cache.Calendar(ctx, "missing"); !errors.Is(err, calendar.ErrPropertyNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCalendarCacheFallsBackWhenDown(t *testing.T) {
	t.Parallel()

	repo := seeded()
	cache := &CalendarCache{Next: repo, Client: &fakeClient{data: map[string]string{}, down: true}, TTL: time.Minute}
	if _, err := cache.Calendar(context.Background(), "villa"); err != nil {
		t.Fatalf("read: %v", err)
	}
	if err := cache.Ping(context.Background()); err == nil {
		t.Fatal("expected ping failure")
	}
}
