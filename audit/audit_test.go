package audit

import (
	"context"
	"testing"
	"time"
)

func TestInMemoryStoreAppendAndRecentOrdering(t *testing.T) {
	s := NewInMemoryStore(10)
	ctx := context.Background()

	base := time.Unix(1000, 0)
	for i := 0; i < 3; i++ {
		r := Record{
			Timestamp: base.Add(time.Duration(i) * time.Second),
			Kind:      KindCleanupComplete,
			Victim:    int32(i),
			RequestID: "req",
			Status:    "ok",
			Reason:    "test",
		}
		if err := s.Append(ctx, r); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	got, err := s.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d records, want 3", len(got))
	}
	// Newest first.
	if got[0].Victim != 2 || got[1].Victim != 1 || got[2].Victim != 0 {
		t.Fatalf("Recent order = %+v, want newest-first", got)
	}
}

func TestInMemoryStoreEvictsOldestPastCapacity(t *testing.T) {
	s := NewInMemoryStore(2)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_ = s.Append(ctx, Record{Timestamp: time.Unix(int64(i), 0), Kind: KindPanic, Victim: int32(i)})
	}

	got, err := s.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d records, want 2 (capacity)", len(got))
	}
	if got[0].Victim != 4 || got[1].Victim != 3 {
		t.Fatalf("Recent = %+v, want the two most recently appended", got)
	}
}

func TestInMemoryStoreRecentRespectsLimit(t *testing.T) {
	s := NewInMemoryStore(10)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_ = s.Append(ctx, Record{Timestamp: time.Unix(int64(i), 0), Kind: KindPanic})
	}
	got, err := s.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d records, want 2", len(got))
	}
}

func TestFactoryCreatesInMemoryByDefault(t *testing.T) {
	f := NewFactory()
	store, err := f.Create(context.Background(), "inmemory", nil)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer store.Close()
	if _, ok := store.(*InMemoryStore); !ok {
		t.Fatalf("Create(\"inmemory\") returned %T, want *InMemoryStore", store)
	}
}

func TestFactoryUnknownBackend(t *testing.T) {
	f := NewFactory()
	if _, err := f.Create(context.Background(), "filesystem", nil); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}

func TestFactoryPostgresRequiresMatchingConfigType(t *testing.T) {
	f := NewFactory()
	if _, err := f.Create(context.Background(), "postgres", MongoConfig{}); err == nil {
		t.Fatalf("expected error when cfg type does not match backend")
	}
}

func TestFactoryRejectsDuplicateRegistration(t *testing.T) {
	f := NewFactory()
	err := f.Register("inmemory", func(context.Context, interface{}) (Store, error) { return nil, nil })
	if err == nil {
		t.Fatalf("expected error re-registering inmemory backend")
	}
}
