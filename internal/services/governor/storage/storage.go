// Package storage defines persistence contracts for governor state.
package storage

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates a requested record is missing.
	ErrNotFound = errors.New("record not found")
)

// Key names one of the singleton records.
type Key string

const (
	// KeyOwner stores the owner address.
	KeyOwner Key = "owner"
	// KeyOperators stores the ordered operator list.
	KeyOperators Key = "operators"
	// KeyBudget stores the budget triple.
	KeyBudget Key = "budget"
)

// Keys lists every record key in a stable order.
func Keys() []Key {
	return []Key{KeyOwner, KeyOperators, KeyBudget}
}

// Validate reports whether k is a known record key.
func (k Key) Validate() error {
	switch k {
	case KeyOwner, KeyOperators, KeyBudget:
		return nil
	default:
		return fmt.Errorf("unknown record key %q", string(k))
	}
}

// Entry is one record write.
type Entry struct {
	Key   Key
	Value []byte
}

// Store persists governor records.
//
// Set applies every entry or none of them. Implementations copy values on the
// way in and out so callers never share buffers with the store.
type Store interface {
	Get(ctx context.Context, key Key) ([]byte, error)
	Set(ctx context.Context, entries ...Entry) error
}

// ValidateEntries checks a batch before it reaches a backend.
func ValidateEntries(entries []Entry) error {
	if len(entries) == 0 {
		return errors.New("at least one entry is required")
	}
	seen := make(map[Key]struct{}, len(entries))
	for _, entry := range entries {
		if err := entry.Key.Validate(); err != nil {
			return err
		}
		if _, dup := seen[entry.Key]; dup {
			return fmt.Errorf("duplicate entry for key %q", string(entry.Key))
		}
		seen[entry.Key] = struct{}{}
		if entry.Value == nil {
			return fmt.Errorf("value for key %q is required", string(entry.Key))
		}
	}
	return nil
}
