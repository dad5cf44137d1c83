// Package schedule runs periodic maintenance jobs.
package schedule

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"staycal/internal/app/commands"
	"staycal/internal/app/dto"
	"staycal/internal/app/handlers/availability"
	"staycal/internal/app/middleware"
	"staycal/internal/domain/calendar"
)

// AllProperties in Properties republishes every stored calendar.
const AllProperties = "*"

// PropertyLister enumerates stored calendars.
type PropertyLister interface {
	IDs(ctx context.Context) ([]calendar.PropertyID, error)
}

// Republisher re-renders the ICS snapshots of a fixed set of properties so
// subscribed feeds follow the rolling default window.
type Republisher struct {
	Commands      commands.Bus
	Properties    []string
	Lister        PropertyLister
	OperatorToken string
	Timeout       time.Duration
	Logger        *slog.Logger
	Now           func() time.Time

	cron *cron.Cron
}

// Start schedules RunOnce on spec (standard five-field cron syntax).
func (r *Republisher) Start(spec string) error {
	c := cron.New()
	if _, err := c.AddFunc(spec, func() { r.RunOnce(context.Background()) }); err != nil {
		return fmt.Errorf("schedule: parse %q: %w", spec, err)
	}
	r.cron = c
	c.Start()
	r.log().Info("ics republisher scheduled", "spec", spec, "properties", len(r.Properties))
	return nil
}

// Stop waits for a running job to finish or ctx to expire.
func (r *Republisher) Stop(ctx context.Context) {
	if r.cron == nil {
		return
	}
	select {
	case <-r.cron.Stop().Done():
	case <-ctx.Done():
	}
}

// RunOnce publishes every property and reports how many succeeded.
func (r *Republisher) RunOnce(ctx context.Context) int {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	run := r.now().UTC().Format("2006-01-02T15:04")
	ok := 0
	for _, id := range r.targets(ctx) {
		jobCtx, cancel := context.WithTimeout(middleware.WithOperatorToken(ctx, r.OperatorToken), timeout)
		res, err := commands.Dispatch[availability.PublishICSCommand, *dto.PublishResult](jobCtx, r.Commands, availability.PublishICSCommand{
			PropertyID: id,
			RequestKey: "republish:" + id + ":" + run,
		})
		cancel()
		if err != nil {
			r.log().Error("ics republish failed", "property", id, "err", err)
			continue
		}
		ok++
		r.log().Info("ics republished", "property", id, "location", res.Location, "bytes", res.Bytes)
	}
	return ok
}

func (r *Republisher) targets(ctx context.Context) []string {
	var out []string
	for _, id := range r.Properties {
		if id != AllProperties {
			out = append(out, id)
			continue
		}
		if r.Lister == nil {
			continue
		}
		ids, err := r.Lister.IDs(ctx)
		if err != nil {
			r.log().Error("ics republish listing failed", "err", err)
			continue
		}
		for _, stored := range ids {
			out = append(out, string(stored))
		}
	}
	return out
}

func (r *Republisher) now() time.Time {
	if r.Now == nil {
		return time.Now()
	}
	return r.Now()
}

func (r *Republisher) log() *slog.Logger {
	if r.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return r.Logger
}
