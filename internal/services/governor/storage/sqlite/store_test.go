package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/arywk40-hue/budget-governor/internal/services/governor/storage"
)

func TestOpenRequiresPath(t *testing.T) {
	t.Parallel()

	if _, err := Open(""); err == nil {
		t.Fatal("expected empty path error")
	}
}

func TestGetMissingRecord(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	if _, err := store.Get(context.Background(), storage.KeyOwner); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("err = %v, want %v", err, storage.ErrNotFound)
	}
}

func TestSetGetRoundTripAndOverwrite(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	ctx := context.Background()
	if err := store.Set(ctx,
		storage.Entry{Key: storage.KeyOwner, Value: []byte(`"alice"`)},
		storage.Entry{Key: storage.KeyOperators, Value: []byte(`[]`)},
		storage.Entry{Key: storage.KeyBudget, Value: []byte(`{"current":1000,"min":0,"max":5000}`)},
	); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Set(ctx, storage.Entry{Key: storage.KeyBudget, Value: []byte(`{"current":1500,"min":0,"max":5000}`)}); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	owner, err := store.Get(ctx, storage.KeyOwner)
	if err != nil {
		t.Fatalf("get owner: %v", err)
	}
	if string(owner) != `"alice"` {
		t.Fatalf("owner = %s", owner)
	}
	budget, err := store.Get(ctx, storage.KeyBudget)
	if err != nil {
		t.Fatalf("get budget: %v", err)
	}
	if string(budget) != `{"current":1500,"min":0,"max":5000}` {
		t.Fatalf("budget = %s", budget)
	}
}

func TestSetRejectsInvalidBatchWithoutWriting(t *testing.T) {
	t.Parallel()

	store := openTempStore(t)
	err := store.Set(context.Background(),
		storage.Entry{Key: storage.KeyOwner, Value: []byte(`"alice"`)},
		storage.Entry{Key: storage.KeyOwner, Value: []byte(`"bob"`)},
	)
	if err == nil {
		t.Fatal("expected duplicate key error")
	}
	if _, err := store.Get(context.Background(), storage.KeyOwner); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("err = %v, want %v", err, storage.ErrNotFound)
	}
}

func TestRecordsSurviveReopen(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "governor.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := store.Set(context.Background(), storage.Entry{Key: storage.KeyOwner, Value: []byte(`"alice"`)}); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	t.Cleanup(func() { _ = reopened.Close() })
	owner, err := reopened.Get(context.Background(), storage.KeyOwner)
	if err != nil {
		t.Fatalf("get after reopen: %v", err)
	}
	if string(owner) != `"alice"` {
		t.Fatalf("owner = %s", owner)
	}
}

func TestNilStoreIsNotConfigured(t *testing.T) {
	t.Parallel()

	var store *Store
	if _, err := store.Get(context.Background(), storage.KeyOwner); err == nil {
		t.Fatal("expected not configured error")
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close nil store: %v", err)
	}
}

func openTempStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "governor.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("close store: %v", err)
		}
	})
	return store
}
