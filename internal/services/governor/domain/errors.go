package domain

import apperrors "github.com/arywk40-hue/budget-governor/internal/platform/errors"

var (
	// ErrNotOwner indicates an owner-gated call by anyone else, or by an identity that could not be verified.
	ErrNotOwner = apperrors.New(apperrors.CodeNotOwner, "caller is not the owner")
	// ErrNotOperator indicates an operator-gated call by a non-operator.
	ErrNotOperator = apperrors.New(apperrors.CodeNotOperator, "caller is not an operator")
	// ErrOperatorExists indicates an attempt to add a duplicate operator.
	ErrOperatorExists = apperrors.New(apperrors.CodeOperatorExists, "operator already exists")
	// ErrOperatorNotFound indicates an attempt to remove a non-member.
	ErrOperatorNotFound = apperrors.New(apperrors.CodeOperatorNotFound, "operator not found")
	// ErrOverflow indicates checked addition left the int64 range.
	ErrOverflow = apperrors.New(apperrors.CodeOverflow, "budget addition overflows")
	// ErrUnderflow indicates checked subtraction left the int64 range.
	ErrUnderflow = apperrors.New(apperrors.CodeUnderflow, "budget subtraction underflows")
	// ErrExceedsMax indicates an increase past the upper bound.
	ErrExceedsMax = apperrors.New(apperrors.CodeExceedsMax, "budget would exceed max")
	// ErrBelowMin indicates a decrease past the lower bound.
	ErrBelowMin = apperrors.New(apperrors.CodeBelowMin, "budget would fall below min")
	// ErrInvalidBounds indicates min > initial or initial > max.
	ErrInvalidBounds = apperrors.New(apperrors.CodeInvalidBounds, "bounds must satisfy min <= initial <= max")
	// ErrAlreadyInitialized indicates a second initialization.
	ErrAlreadyInitialized = apperrors.New(apperrors.CodeAlreadyInitialized, "governor is already initialized")
	// ErrNotInitialized indicates an operation before initialization.
	ErrNotInitialized = apperrors.New(apperrors.CodeNotInitialized, "governor is not initialized")
	// ErrInvalidAmount indicates a negative amount.
	ErrInvalidAmount = apperrors.New(apperrors.CodeInvalidAmount, "amount must not be negative")
	// ErrInvalidIdentity indicates a malformed address.
	ErrInvalidIdentity = apperrors.New(apperrors.CodeInvalidIdentity, "identity is malformed")
)
