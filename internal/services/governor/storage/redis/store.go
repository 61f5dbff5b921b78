// Package redis provides a Redis-backed governor store, a RedLock locker that
// serializes governor operations across processes, and a shared proof replay
// guard.
package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/arywk40-hue/budget-governor/internal/services/governor/storage"
	goredis "github.com/redis/go-redis/v9"
)

// DefaultNamespace prefixes every key when no namespace is configured.
const DefaultNamespace = "budget-governor"

// Store persists governor records as plain Redis strings under one namespace.
type Store struct {
	client    goredis.UniversalClient
	namespace string
}

// New wraps an existing client. The caller keeps ownership of client.
func New(client goredis.UniversalClient, namespace string) (*Store, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	namespace = strings.TrimSpace(namespace)
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &Store{client: client, namespace: namespace}, nil
}

// Dial connects to addr and verifies the connection with PING.
func Dial(ctx context.Context, addr, password string, db int) (goredis.UniversalClient, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, errors.New("redis address is required")
	}
	client := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	return client, nil
}

// Namespace returns the key prefix in use.
func (s *Store) Namespace() string {
	return s.namespace
}

func (s *Store) recordKey(key storage.Key) string {
	return s.namespace + ":record:" + string(key)
}

// Get returns the stored value for key or storage.ErrNotFound.
func (s *Store) Get(ctx context.Context, key storage.Key) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.client == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	if err := key.Validate(); err != nil {
		return nil, err
	}

	value, err := s.client.Get(ctx, s.recordKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get %s record: %w", key, err)
	}
	return value, nil
}

// Set writes every entry in one MULTI/EXEC block.
func (s *Store) Set(ctx context.Context, entries ...storage.Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.client == nil {
		return fmt.Errorf("storage is not configured")
	}
	if err := storage.ValidateEntries(entries); err != nil {
		return err
	}

	_, err := s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		for _, entry := range entries {
			pipe.Set(ctx, s.recordKey(entry.Key), entry.Value, 0)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("put records: %w", err)
	}
	return nil
}

var _ storage.Store = (*Store)(nil)
