package middleware

import (
	"context"
	"log/slog"
	"time"

	"staycal/internal/app/commands"
	"staycal/internal/app/queries"
)

// Logging records every command with its duration and outcome.
func Logging(logger *slog.Logger) CommandMiddleware {
	if logger == nil {
		panic("middleware: logger required")
	}
	return func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			start := time.Now()
			res, err := next.Dispatch(ctx, cmd)
			logOutcome(ctx, logger, "command", cmd.Key(), start, err)
			return res, err
		})
	}
}

func QueryLogging(logger *slog.Logger) QueryMiddleware {
	if logger == nil {
		panic("middleware: logger required")
	}
	return func(next queries.Bus) queries.Bus {
		return queryFunc(func(ctx context.Context, q queries.Query) (any, error) {
			start := time.Now()
			res, err := next.Ask(ctx, q)
			logOutcome(ctx, logger, "query", q.Key(), start, err)
			return res, err
		})
	}
}

func logOutcome(ctx context.Context, logger *slog.Logger, kind, key string, start time.Time, err error) {
	attrs := []any{kind, key, "duration", time.Since(start)}
	if err != nil {
		logger.WarnContext(ctx, kind+" failed", append(attrs, "err", err)...)
		return
	}
	logger.DebugContext(ctx, kind+" handled", attrs...)
}
