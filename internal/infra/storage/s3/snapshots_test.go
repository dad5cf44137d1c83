package s3

import (
	"context"
	"errors"
	"testing"
)

func TestObjectURLAndHost(t *testing.T) {
	t.Parallel()

	if got := ObjectURL("http://cdn.local/", "cals", "/calendars/villa.ics"); got != "http://cdn.local/cals/calendars/villa.ics" {
		t.Fatalf("ObjectURL = %q", got)
	}
	if got := hostOf("https://minio:9000"); got != "minio:9000" {
		t.Fatalf("hostOf = %q", got)
	}
	if got := hostOf("minio:9000"); got != "minio:9000" {
		t.Fatalf("hostOf bare = %q", got)
	}
}

func TestNewSnapshotStoreValidation(t *testing.T) {
	t.Parallel()

	if _, err := NewSnapshotStore(Options{Bucket: "b"}, nil); err == nil {
		t.Fatal("expected endpoint error")
	}
	if _, err := NewSnapshotStore(Options{Endpoint: "minio:9000"}, nil); err == nil {
		t.Fatal("expected bucket error")
	}
	store, err := NewSnapshotStore(Options{Endpoint: "http://minio:9000", Bucket: "cals"}, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if store.publicBaseURL != "http://minio:9000" {
		t.Fatalf("public base = %q", store.publicBaseURL)
	}
	if _, err := store.Put(context.Background(), " / ", nil, ""); err == nil {
		t.Fatal("expected key error")
	}
}

func TestNoopSnapshotStore(t *testing.T) {
	t.Parallel()

	if _, err := (NoopSnapshotStore{}).Put(context.Background(), "k", nil, ""); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}
