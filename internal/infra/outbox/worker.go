package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Producer interface {
	Publish(ctx context.Context, topic string, key string, payload []byte, headers map[string]string) error
}

// Worker relays staged events to the broker as CloudEvents, one per tick.
type Worker struct {
	Store       Store
	Producer    Producer
	Interval    time.Duration
	TopicPrefix string
	Source      string
	ID          string
	Backoff     []time.Duration
	Batch       int
	Logger      *slog.Logger
	Now         func() time.Time
}

var ErrWorkerNotConfigured = errors.New("outbox: worker missing dependencies")

func (w *Worker) Run(ctx context.Context) error {
	if w.Store == nil || w.Producer == nil {
		return ErrWorkerNotConfigured
	}
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	ticker := time.NewTicker(w.interval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := w.Drain(ctx); err != nil && w.Logger != nil {
				w.Logger.Warn("outbox relay failed", "worker", w.ID, "err", err)
			}
		}
	}
}

// Drain relays up to Batch claimable events and reports how many were
// handled, sent or failed.
func (w *Worker) Drain(ctx context.Context) (int, error) {
	limit := w.Batch
	if limit <= 0 {
		limit = 100
	}
	for n := 0; n < limit; n++ {
		handled, err := w.processOnce(ctx)
		if err != nil || !handled {
			return n, err
		}
	}
	return limit, nil
}

func (w *Worker) processOnce(ctx context.Context) (bool, error) {
	doc, err := w.Store.Claim(ctx, w.workerID())
	if err != nil || doc == nil {
		return false, err
	}
	topic := w.topicFor(doc.Name)
	payload, headers, err := w.formatPayload(doc)
	if err == nil {
		err = w.Producer.Publish(ctx, topic, doc.Aggregate, payload, headers)
	}
	if err != nil {
		if w.Logger != nil {
			w.Logger.Warn("outbox publish failed", "event", doc.ID, "topic", topic, "attempts", doc.Attempts, "err", err)
		}
		return true, w.Store.MarkFailed(ctx, doc.ID, w.nextRetry(doc.Attempts), err.Error())
	}
	return true, w.Store.MarkSent(ctx, doc.ID)
}

func (w *Worker) formatPayload(doc *EventDocument) ([]byte, map[string]string, error) {
	data := map[string]any{}
	if err := json.Unmarshal(doc.Payload, &data); err != nil {
		return nil, nil, err
	}
	evt := map[string]any{
		"specversion":     "1.0",
		"id":              doc.ID,
		"type":            doc.Name + ".v1",
		"source":          w.source(),
		"subject":         doc.Aggregate,
		"time":            doc.OccurredAt,
		"datacontenttype": "application/json",
		"data":            data,
	}
	if trace, ok := doc.Headers["traceparent"]; ok {
		evt["traceparent"] = trace
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return nil, nil, err
	}
	headers := map[string]string{}
	for k, v := range doc.Headers {
		headers[k] = v
	}
	headers["content-type"] = "application/cloudevents+json"
	return payload, headers, nil
}

// topicFor maps "selection.changed" to "<prefix>selection.events.v1".
func (w *Worker) topicFor(name string) string {
	base := name
	if idx := strings.IndexRune(name, '.'); idx > 0 {
		base = name[:idx]
	}
	return w.TopicPrefix + base + ".events.v1"
}

func (w *Worker) workerID() string {
	if w.ID != "" {
		return w.ID
	}
	return "outbox-worker"
}

func (w *Worker) interval() time.Duration {
	if w.Interval <= 0 {
		return 500 * time.Millisecond
	}
	return w.Interval
}

func (w *Worker) now() time.Time {
	if w.Now != nil {
		return w.Now()
	}
	return time.Now()
}

func (w *Worker) nextRetry(attempts int) time.Time {
	switch {
	case attempts < len(w.Backoff):
		return w.now().Add(w.Backoff[attempts])
	case len(w.Backoff) > 0:
		return w.now().Add(w.Backoff[len(w.Backoff)-1])
	default:
		return w.now().Add(5 * time.Second)
	}
}

func (w *Worker) source() string {
	if w.Source != "" {
		return w.Source
	}
	return "app://staycal"
}
