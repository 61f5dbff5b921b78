package storage

import (
	"context"
	"errors"
	"testing"
)

func TestMemoryStoreGetMissing(t *testing.T) {
	store := NewMemoryStore()
	if _, err := store.Get(context.Background(), KeyOwner); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want %v", err, ErrNotFound)
	}
}

func TestMemoryStoreSetGetCopies(t *testing.T) {
	store := NewMemoryStore()
	value := []byte(`"alice"`)
	if err := store.Set(context.Background(), Entry{Key: KeyOwner, Value: value}); err != nil {
		t.Fatalf("set: %v", err)
	}
	value[1] = 'X'

	got, err := store.Get(context.Background(), KeyOwner)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != `"alice"` {
		t.Fatalf("value = %s, want \"alice\"", got)
	}
	got[1] = 'Y'
	again, _ := store.Get(context.Background(), KeyOwner)
	if string(again) != `"alice"` {
		t.Fatalf("store shared buffer with caller: %s", again)
	}
}

func TestMemoryStoreRejectsInvalidBatchAtomically(t *testing.T) {
	store := NewMemoryStore()
	err := store.Set(context.Background(),
		Entry{Key: KeyOwner, Value: []byte(`"alice"`)},
		Entry{Key: Key("bogus"), Value: []byte(`1`)},
	)
	if err == nil {
		t.Fatal("expected invalid key error")
	}
	if store.Len() != 0 {
		t.Fatalf("partial batch persisted: %d records", store.Len())
	}
}

func TestMemoryStoreHonorsCancelledContext(t *testing.T) {
	store := NewMemoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := store.Set(ctx, Entry{Key: KeyOwner, Value: []byte(`"a"`)}); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want %v", err, context.Canceled)
	}
	if store.Len() != 0 {
		t.Fatal("cancelled set persisted")
	}
}

func TestValidateEntries(t *testing.T) {
	tests := []struct {
		name    string
		entries []Entry
		wantErr bool
	}{
		{name: "empty", wantErr: true},
		{name: "unknown key", entries: []Entry{{Key: "x", Value: []byte("1")}}, wantErr: true},
		{name: "duplicate", entries: []Entry{{Key: KeyBudget, Value: []byte("1")}, {Key: KeyBudget, Value: []byte("2")}}, wantErr: true},
		{name: "nil value", entries: []Entry{{Key: KeyBudget}}, wantErr: true},
		{name: "all keys", entries: []Entry{{Key: KeyOwner, Value: []byte("1")}, {Key: KeyOperators, Value: []byte("[]")}, {Key: KeyBudget, Value: []byte("{}")}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateEntries(tc.entries)
			if (err != nil) != tc.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}
