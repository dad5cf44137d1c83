package memory

import (
	"context"
	"sync"
	"time"

	appoutbox "staycal/internal/app/outbox"
	infraoutbox "staycal/internal/infra/outbox"
)

// Outbox stages records until Flush and then serves them to the relay
// worker like the Mongo store does.
type Outbox struct {
	mu     sync.Mutex
	staged []appoutbox.EventRecord
	docs   []*infraoutbox.EventDocument
	now    func() time.Time
}

func NewOutbox() *Outbox {
	return &Outbox{now: time.Now}
}

func (o *Outbox) Add(ctx context.Context, record appoutbox.EventRecord) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.staged = append(o.staged, record)
	return nil
}

func (o *Outbox) Flush(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	now := o.now().UTC()
	for _, rec := range o.staged {
		doc := infraoutbox.NewDocument(rec, now)
		o.docs = append(o.docs, &doc)
	}
	o.staged = nil
	return nil
}

func (o *Outbox) Claim(ctx context.Context, workerID string) (*infraoutbox.EventDocument, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	now := o.now().UTC()
	for _, doc := range o.docs {
		if doc.State != infraoutbox.StateNew && doc.State != infraoutbox.StateFailed {
			continue
		}
		if doc.NextAttempt.After(now) {
			continue
		}
		doc.State = infraoutbox.StateClaimed
		doc.ClaimedBy = workerID
		doc.ClaimedAt = now
		claimed := *doc
		return &claimed, nil
	}
	return nil, nil
}

func (o *Outbox) MarkSent(ctx context.Context, id string) error {
	o.update(id, func(doc *infraoutbox.EventDocument) {
		doc.State = infraoutbox.StateSent
		doc.SentAt = o.now().UTC()
	})
	return nil
}

func (o *Outbox) MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error {
	o.update(id, func(doc *infraoutbox.EventDocument) {
		doc.State = infraoutbox.StateFailed
		doc.NextAttempt = next
		doc.LastError = errMsg
		doc.Attempts++
	})
	return nil
}

// Documents returns copies of every flushed record in insertion order.
func (o *Outbox) Documents() []infraoutbox.EventDocument {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]infraoutbox.EventDocument, 0, len(o.docs))
	for _, doc := range o.docs {
		out = append(out, *doc)
	}
	return out
}

func (o *Outbox) update(id string, fn func(doc *infraoutbox.EventDocument)) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, doc := range o.docs {
		if doc.ID == id {
			fn(doc)
			return
		}
	}
}

var (
	_ appoutbox.Outbox  = (*Outbox)(nil)
	_ infraoutbox.Store = (*Outbox)(nil)
)
