package domain

import (
	"strconv"

	apperrors "github.com/arywk40-hue/budget-governor/internal/platform/errors"
)

// Budget is the bounded value. Min and Max are fixed at initialization;
// Current always satisfies Min <= Current <= Max.
type Budget struct {
	Current int64 `json:"current"`
	Min     int64 `json:"min"`
	Max     int64 `json:"max"`
}

// NewBudget validates the initial triple.
func NewBudget(initial, min, max int64) (Budget, error) {
	b := Budget{Current: initial, Min: min, Max: max}
	if err := b.Validate(); err != nil {
		return Budget{}, err
	}
	return b, nil
}

// Validate reports whether the bound invariant holds.
func (b Budget) Validate() error {
	if b.Min > b.Current || b.Current > b.Max {
		return apperrors.WithMetadata(apperrors.CodeInvalidBounds, ErrInvalidBounds.Message, map[string]string{
			"current": strconv.FormatInt(b.Current, 10),
			"min":     strconv.FormatInt(b.Min, 10),
			"max":     strconv.FormatInt(b.Max, 10),
		})
	}
	return nil
}

// Increase returns the budget raised by amount. Range overflow is reported
// before the upper bound is checked.
func (b Budget) Increase(amount int64) (Budget, error) {
	if amount < 0 {
		return b, ErrInvalidAmount
	}
	next, ok := CheckedAdd(b.Current, amount)
	if !ok {
		return b, ErrOverflow
	}
	if next > b.Max {
		return b, apperrors.WithMetadata(apperrors.CodeExceedsMax, ErrExceedsMax.Message, map[string]string{
			"max":       strconv.FormatInt(b.Max, 10),
			"requested": strconv.FormatInt(next, 10),
		})
	}
	b.Current = next
	return b, nil
}

// Decrease returns the budget lowered by amount. Range underflow is reported
// before the lower bound is checked.
func (b Budget) Decrease(amount int64) (Budget, error) {
	if amount < 0 {
		return b, ErrInvalidAmount
	}
	next, ok := CheckedSub(b.Current, amount)
	if !ok {
		return b, ErrUnderflow
	}
	if next < b.Min {
		return b, apperrors.WithMetadata(apperrors.CodeBelowMin, ErrBelowMin.Message, map[string]string{
			"min":       strconv.FormatInt(b.Min, 10),
			"requested": strconv.FormatInt(next, 10),
		})
	}
	b.Current = next
	return b, nil
}
