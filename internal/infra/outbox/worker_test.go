package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/IBM/sarama/mocks"

	appoutbox "staycal/internal/app/outbox"
	"staycal/internal/infra/broker/kafka"
)

type queueStore struct {
	mu     sync.Mutex
	queue  []*EventDocument
	sent   []string
	failed map[string]time.Time
	errs   map[string]string
}

func newQueueStore(docs ...EventDocument) *queueStore {
	s := &queueStore{failed: map[string]time.Time{}, errs: map[string]string{}}
	for i := range docs {
		d := docs[i]
		s.queue = append(s.queue, &d)
	}
	return s
}

func (s *queueStore) Claim(_ context.Context, workerID string) (*EventDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) == 0 {
		return nil, nil
	}
	doc := s.queue[0]
	s.queue = s.queue[1:]
	doc.State, doc.ClaimedBy = StateClaimed, workerID
	return doc, nil
}

func (s *queueStore) MarkSent(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, id)
	return nil
}

func (s *queueStore) MarkFailed(_ context.Context, id string, next time.Time, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failed[id], s.errs[id] = next, errMsg
	return nil
}

type published struct {
	topic, key string
	payload    []byte
	headers    map[string]string
}

type recordingProducer struct {
	next Producer
	out  []published
}

func (p *recordingProducer) Publish(ctx context.Context, topic, key string, payload []byte, headers map[string]string) error {
	p.out = append(p.out, published{topic, key, payload, headers})
	return p.next.Publish(ctx, topic, key, payload, headers)
}

var relayNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func importedDoc(id, property string, attempts int) EventDocument {
	rec := appoutbox.EventRecord{
		ID:         id,
		Name:       "calendar.imported",
		Payload:    []byte(fmt.Sprintf(`{"PropertyID":%q,"Mode":"replace"}`, property)),
		OccurredAt: relayNow,
		Aggregate:  property,
		Headers:    map[string]string{"content-type": "application/json", "ce_id": id, "traceparent": "00-abc-def-01"},
	}
	doc := NewDocument(rec, relayNow)
	doc.Attempts = attempts
	return doc
}

func TestNewDocumentStartsNew(t *testing.T) {
	t.Parallel()

	doc := importedDoc("e1", "villa", 0)
	if doc.State != StateNew || !doc.NextAttempt.Equal(relayNow) || doc.Aggregate != "villa" || doc.Headers["ce_id"] != "e1" {
		t.Fatalf("unexpected document %+v", doc)
	}
}

func TestDrainPublishesCloudEvents(t *testing.T) {
	t.Parallel()

	sp := mocks.NewSyncProducer(t, nil)
	sp.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var evt map[string]any
		if err := json.Unmarshal(val, &evt); err != nil {
			return err
		}
		if evt["specversion"] != "1.0" || evt["type"] != "calendar.imported.v1" || evt["subject"] != "villa" ||
			evt["source"] != "app://staycal" || evt["traceparent"] != "00-abc-def-01" {
			return fmt.Errorf("unexpected envelope %v", evt)
		}
		data, _ := evt["data"].(map[string]any)
		if data["PropertyID"] != "villa" {
			return fmt.Errorf("unexpected data %v", evt["data"])
		}
		return nil
	})
	sp.ExpectSendMessageAndSucceed()

	producer := &recordingProducer{next: kafka.NewProducerFrom(sp)}
	store := newQueueStore(importedDoc("e1", "villa", 0), importedDoc("e2", "cabin", 0))
	w := &Worker{Store: store, Producer: producer, TopicPrefix: "staging.", Now: func() time.Time { return relayNow }}

	n, err := w.Drain(context.Background())
	if err != nil {
		t.Fatalf("drain: %v", err)
	}
	if n != 2 || len(store.sent) != 2 || store.sent[0] != "e1" {
		t.Fatalf("expected both events sent, got n=%d sent=%v", n, store.sent)
	}
	first := producer.out[0]
	if first.topic != "staging.calendar.events.v1" || first.key != "villa" {
		t.Fatalf("unexpected routing %s/%s", first.topic, first.key)
	}
	if first.headers["content-type"] != "application/cloudevents+json" || first.headers["ce_id"] != "e1" {
		t.Fatalf("unexpected headers %v", first.headers)
	}
	if err := sp.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestDrainBacksOffFailures(t *testing.T) {
	t.Parallel()

	sp := mocks.NewSyncProducer(t, nil)
	sp.ExpectSendMessageAndFail(errors.New("broker down"))
	sp.ExpectSendMessageAndFail(errors.New("broker down"))

	store := newQueueStore(importedDoc("e1", "villa", 0), importedDoc("e2", "villa", 7))
	w := &Worker{
		Store:    store,
		Producer: kafka.NewProducerFrom(sp),
		Backoff:  []time.Duration{time.Second, time.Minute},
		Now:      func() time.Time { return relayNow },
	}
	if _, err := w.Drain(context.Background()); err != nil {
		t.Fatalf("drain: %v", err)
	}
	if len(store.sent) != 0 {
		t.Fatalf("nothing should be marked sent: %v", store.sent)
	}
	if got := store.failed["e1"]; !got.Equal(relayNow.Add(time.Second)) {
		t.Fatalf("first attempt should retry after the first backoff, got %v", got)
	}
	if got := store.failed["e2"]; !got.Equal(relayNow.Add(time.Minute)) {
		t.Fatalf("late attempts should reuse the last backoff, got %v", got)
	}
	if store.errs["e1"] == "" {
		t.Fatalf("failure reason should be stored")
	}
	if err := sp.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestDrainStopsAtBatch(t *testing.T) {
	t.Parallel()

	sp := mocks.NewSyncProducer(t, nil)
	sp.ExpectSendMessageAndSucceed()
	store := newQueueStore(importedDoc("e1", "villa", 0), importedDoc("e2", "villa", 0))
	w := &Worker{Store: store, Producer: kafka.NewProducerFrom(sp), Batch: 1}

	if n, err := w.Drain(context.Background()); err != nil || n != 1 {
		t.Fatalf("expected one event per batch, got %d %v", n, err)
	}
	if len(store.queue) != 1 {
		t.Fatalf("second event should stay queued")
	}
	if err := sp.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestRunRequiresDependencies(t *testing.T) {
	t.Parallel()

	if err := (&Worker{}).Run(context.Background()); !errors.Is(err, ErrWorkerNotConfigured) {
		t.Fatalf("expected ErrWorkerNotConfigured, got %v", err)
	}
}
