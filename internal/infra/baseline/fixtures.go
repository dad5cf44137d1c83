package baseline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"staycal/internal/app/commands"
	"staycal/internal/app/dto"
	"staycal/internal/app/handlers/availability"
	"staycal/internal/app/middleware"
	"staycal/internal/domain/calendar"
)

// Fixtures seeds property calendars at startup.
type Fixtures struct {
	Properties []PropertyFixture `yaml:"properties"`
}

type PropertyFixture struct {
	ID       string `yaml:"id"`
	Document `yaml:",inline"`
}

func DecodeFixtures(r io.Reader) (Fixtures, error) {
	var fx Fixtures
	if err := yaml.NewDecoder(r).Decode(&fx); err != nil && !errors.Is(err, io.EOF) {
		return Fixtures{}, fmt.Errorf("baseline: decode fixtures: %w", err)
	}
	return fx, nil
}

func LoadFixtures(path string) (Fixtures, error) {
	if path == "" {
		return Fixtures{}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return Fixtures{}, fmt.Errorf("baseline: open %s: %w", path, err)
	}
	defer f.Close()
	return DecodeFixtures(f)
}

// Seed replaces each fixture property's calendar through the import command,
// so seeded data passes the same validation and emits the same events.
func (fx Fixtures) Seed(ctx context.Context, bus commands.Bus, window calendar.Bounds, operatorToken string, logger *slog.Logger) error {
	ctx = middleware.WithOperatorToken(ctx, operatorToken)
	for _, prop := range fx.Properties {
		payload, err := prop.Payload(window)
		if err != nil {
			return fmt.Errorf("baseline: fixture %s: %w", prop.ID, err)
		}
		body, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		res, err := commands.Dispatch[availability.ImportCalendarCommand, *dto.ImportResult](ctx, bus, availability.ImportCalendarCommand{
			PropertyID: prop.ID,
			Format:     availability.FormatJSON,
			Mode:       string(calendar.ImportReplace),
			Source:     "fixtures",
			Body:       body,
		})
		if err != nil {
			return fmt.Errorf("baseline: seed %s: %w", prop.ID, err)
		}
		if logger != nil {
			logger.Info("fixture seeded", "property", prop.ID, "entries", res.Entries, "version", res.Version)
		}
	}
	return nil
}
