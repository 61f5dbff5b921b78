package governance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/arywk40-hue/budget-governor/internal/services/governor/domain"
	"github.com/arywk40-hue/budget-governor/internal/services/governor/storage"
)

func (g *Governor) loadOwner(ctx context.Context) (domain.Address, error) {
	var owner domain.Address
	if err := g.load(ctx, storage.KeyOwner, &owner); err != nil {
		return "", err
	}
	if err := owner.Validate(); err != nil {
		return "", fmt.Errorf("stored owner is malformed: %v", err)
	}
	return owner, nil
}

func (g *Governor) loadOperators(ctx context.Context) (domain.Roster, error) {
	var roster domain.Roster
	if err := g.load(ctx, storage.KeyOperators, &roster); err != nil {
		return domain.Roster{}, err
	}
	return roster, nil
}

func (g *Governor) loadBudget(ctx context.Context) (domain.Budget, error) {
	var budget domain.Budget
	if err := g.load(ctx, storage.KeyBudget, &budget); err != nil {
		return domain.Budget{}, err
	}
	if err := budget.Validate(); err != nil {
		return domain.Budget{}, fmt.Errorf("stored budget violates its bounds: %v", err)
	}
	return budget, nil
}

// load decodes one record. A missing record means the governor was never
// initialized, since initialization writes every record at once.
func (g *Governor) load(ctx context.Context, key storage.Key, target any) error {
	raw, err := g.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return domain.ErrNotInitialized
		}
		return fmt.Errorf("get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("decode %s: %v", key, err)
	}
	return nil
}

func (g *Governor) initialized(ctx context.Context) (bool, error) {
	_, err := g.store.Get(ctx, storage.KeyOwner)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, storage.ErrNotFound):
		return false, nil
	default:
		return false, fmt.Errorf("get %s: %w", storage.KeyOwner, err)
	}
}

func encodeEntry(key storage.Key, value any) (storage.Entry, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return storage.Entry{}, fmt.Errorf("encode %s: %w", key, err)
	}
	return storage.Entry{Key: key, Value: raw}, nil
}

// commit writes entries atomically unless ctx is already done.
func (g *Governor) commit(ctx context.Context, values map[storage.Key]any) error {
	entries := make([]storage.Entry, 0, len(values))
	for _, key := range storage.Keys() {
		value, ok := values[key]
		if !ok {
			continue
		}
		entry, err := encodeEntry(key, value)
		if err != nil {
			return err
		}
		entries = append(entries, entry)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("commit aborted: %w", err)
	}
	if err := g.store.Set(ctx, entries...); err != nil {
		return fmt.Errorf("commit records: %w", err)
	}
	return nil
}
