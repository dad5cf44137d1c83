package inbox

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Deduper remembers which broker messages a consumer already applied.
type Deduper interface {
	// Seen marks eventID as received and reports whether it was already known.
	Seen(ctx context.Context, eventID string) (bool, error)
}

// MongoStore relies on a unique (event_id, consumer) index.
type MongoStore struct {
	col      *mongo.Collection
	consumer string
}

func NewMongoStore(ctx context.Context, db *mongo.Database, consumer string) *MongoStore {
	col := db.Collection("app_inbox")
	_, _ = col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "event_id", Value: 1}, {Key: "consumer", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return &MongoStore{col: col, consumer: consumer}
}

func (s *MongoStore) Seen(ctx context.Context, eventID string) (bool, error) {
	doc := bson.M{"event_id": eventID, "consumer": s.consumer, "received_at": time.Now().UTC()}
	_, err := s.col.InsertOne(ctx, doc)
	if err == nil {
		return false, nil
	}
	if mongo.IsDuplicateKeyError(err) {
		return true, nil
	}
	return false, err
}

// MemoryStore is the single-process Deduper.
type MemoryStore struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{seen: make(map[string]struct{})}
}

func (s *MemoryStore) Seen(_ context.Context, eventID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.seen[eventID]; ok {
		return true, nil
	}
	s.seen[eventID] = struct{}{}
	return false, nil
}

var (
	_ Deduper = (*MongoStore)(nil)
	_ Deduper = (*MemoryStore)(nil)
)
