package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"time"

	"staycal/internal/app/commands"
)

// IdempotentCommand is implemented by commands that may be retried by clients
// with an Idempotency-Key.
type IdempotentCommand interface {
	commands.Command
	IdempotencyKey() string
	// ResultPrototype returns a pointer of the handler's result type.
	ResultPrototype() any
}

type IdempotencyRecord struct {
	Key        string
	Payload    []byte
	Error      string
	OccurredAt time.Time
}

type IdempotencyStore interface {
	Get(ctx context.Context, key string) (IdempotencyRecord, bool, error)
	Save(ctx context.Context, rec IdempotencyRecord) error
}

var errMissingPrototype = errors.New("middleware: idempotent command requires result prototype")

// Idempotency replays the stored outcome of a command key instead of running
// the handler again. Keys are scoped by command so two commands never collide.
func Idempotency(store IdempotencyStore) CommandMiddleware {
	if store == nil {
		panic("middleware: idempotency store required")
	}
	return func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			idCmd, ok := cmd.(IdempotentCommand)
			if !ok || idCmd.IdempotencyKey() == "" {
				return next.Dispatch(ctx, cmd)
			}
			key := cmd.Key() + ":" + idCmd.IdempotencyKey()
			rec, found, err := store.Get(ctx, key)
			if err != nil {
				return nil, err
			}
			if found {
				return replay(idCmd, rec)
			}

			result, err := next.Dispatch(ctx, cmd)
			record := IdempotencyRecord{Key: key, OccurredAt: time.Now().UTC()}
			if err != nil {
				record.Error = err.Error()
				if saveErr := store.Save(ctx, record); saveErr != nil {
					return nil, errors.Join(err, saveErr)
				}
				return nil, err
			}
			if result != nil {
				payload, encErr := json.Marshal(result)
				if encErr != nil {
					return nil, encErr
				}
				record.Payload = payload
			}
			if saveErr := store.Save(ctx, record); saveErr != nil {
				return nil, saveErr
			}
			return result, nil
		})
	}
}

func replay(cmd IdempotentCommand, rec IdempotencyRecord) (any, error) {
	if rec.Error != "" {
		return nil, errors.New(rec.Error)
	}
	proto := cmd.ResultPrototype()
	if proto == nil {
		return nil, errMissingPrototype
	}
	if len(rec.Payload) > 0 {
		if err := json.Unmarshal(rec.Payload, proto); err != nil {
			return nil, err
		}
	}
	rv := reflect.ValueOf(proto)
	if rv.Kind() == reflect.Ptr && !rv.IsNil() {
		return rv.Interface(), nil
	}
	return proto, nil
}
