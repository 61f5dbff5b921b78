package redis

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/arywk40-hue/budget-governor/internal/services/governor/storage"
	goredis "github.com/redis/go-redis/v9"
)

func TestNewRequiresClient(t *testing.T) {
	if _, err := New(nil, "ns"); err == nil {
		t.Fatal("expected client error")
	}
}

func TestNewDefaultsNamespace(t *testing.T) {
	client, _ := newTestClient(t)
	store, err := New(client, "  ")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if store.Namespace() != DefaultNamespace {
		t.Fatalf("namespace = %q, want %q", store.Namespace(), DefaultNamespace)
	}
}

func TestGetMissingRecord(t *testing.T) {
	store := newTestStore(t, "gov")
	if _, err := store.Get(context.Background(), storage.KeyBudget); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("err = %v, want %v", err, storage.ErrNotFound)
	}
}

func TestSetWritesNamespacedKeys(t *testing.T) {
	client, server := newTestClient(t)
	store, err := New(client, "gov-a")
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ctx := context.Background()
	if err := store.Set(ctx,
		storage.Entry{Key: storage.KeyOwner, Value: []byte(`"alice"`)},
		storage.Entry{Key: storage.KeyOperators, Value: []byte(`[]`)},
	); err != nil {
		t.Fatalf("set: %v", err)
	}

	raw, err := server.Get("gov-a:record:owner")
	if err != nil {
		t.Fatalf("raw get: %v", err)
	}
	if raw != `"alice"` {
		t.Fatalf("raw owner = %q", raw)
	}

	got, err := store.Get(ctx, storage.KeyOperators)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != `[]` {
		t.Fatalf("operators = %s", got)
	}

	other, _ := New(client, "gov-b")
	if _, err := other.Get(ctx, storage.KeyOwner); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("namespaces leaked: err = %v", err)
	}
}

func TestSetRejectsInvalidBatch(t *testing.T) {
	store := newTestStore(t, "gov")
	if err := store.Set(context.Background()); err == nil {
		t.Fatal("expected empty batch error")
	}
	if err := store.Set(context.Background(), storage.Entry{Key: "nope", Value: []byte("1")}); err == nil {
		t.Fatal("expected unknown key error")
	}
}

func TestGetSurfacesConnectionErrors(t *testing.T) {
	client, server := newTestClient(t)
	store, _ := New(client, "gov")
	server.Close()
	_, err := store.Get(context.Background(), storage.KeyOwner)
	if err == nil || errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("err = %v, want connection error", err)
	}
}

func TestLockerSerializesCriticalSections(t *testing.T) {
	client, _ := newTestClient(t)
	locker, err := NewLocker(client, "gov", LockOptions{Expiry: 2 * time.Second, Tries: 200, RetryDelay: 5 * time.Millisecond}, nil)
	if err != nil {
		t.Fatalf("new locker: %v", err)
	}

	var (
		mu      sync.Mutex
		active  int
		maxSeen int
		wg      sync.WaitGroup
	)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := locker.WithLock(context.Background(), func(context.Context) error {
				mu.Lock()
				active++
				if active > maxSeen {
					maxSeen = active
				}
				mu.Unlock()
				time.Sleep(10 * time.Millisecond)
				mu.Lock()
				active--
				mu.Unlock()
				return nil
			})
			if err != nil {
				t.Errorf("with lock: %v", err)
			}
		}()
	}
	wg.Wait()
	if maxSeen != 1 {
		t.Fatalf("max concurrent holders = %d, want 1", maxSeen)
	}
}

func TestLockerReturnsFunctionError(t *testing.T) {
	client, _ := newTestClient(t)
	locker, err := NewLocker(client, "gov", DefaultLockOptions(), nil)
	if err != nil {
		t.Fatalf("new locker: %v", err)
	}
	boom := errors.New("boom")
	if err := locker.WithLock(context.Background(), func(context.Context) error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
	// the lock is free again
	if err := locker.WithLock(context.Background(), func(context.Context) error { return nil }); err != nil {
		t.Fatalf("second lock: %v", err)
	}
}

func TestNewLockerValidatesOptions(t *testing.T) {
	client, _ := newTestClient(t)
	tests := []struct {
		name string
		opts LockOptions
	}{
		{name: "zero expiry", opts: LockOptions{Tries: 1}},
		{name: "zero tries", opts: LockOptions{Expiry: time.Second}},
		{name: "negative delay", opts: LockOptions{Expiry: time.Second, Tries: 1, RetryDelay: -time.Millisecond}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewLocker(client, "gov", tc.opts, nil); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
	if _, err := NewLocker(nil, "gov", DefaultLockOptions(), nil); err == nil {
		t.Fatal("expected client error")
	}
}

func newTestClient(t *testing.T) (*goredis.Client, *miniredis.Miniredis) {
	t.Helper()
	server := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, server
}

func newTestStore(t *testing.T, namespace string) *Store {
	t.Helper()
	client, _ := newTestClient(t)
	store, err := New(client, namespace)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return store
}

func newClientFor(t *testing.T, addr string) *goredis.Client {
	t.Helper()
	client := goredis.NewClient(&goredis.Options{Addr: addr})
	t.Cleanup(func() { _ = client.Close() })
	return client
}
