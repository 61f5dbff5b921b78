// Package errors provides the structured error type shared by the governor
// core and its transports.
package errors

import (
	"strconv"

	"google.golang.org/grpc/codes"
)

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Authorization errors
	CodeNotOwner    Code = "NOT_OWNER"
	CodeNotOperator Code = "NOT_OPERATOR"

	// Roster errors
	CodeOperatorExists   Code = "OPERATOR_EXISTS"
	CodeOperatorNotFound Code = "OPERATOR_NOT_FOUND"

	// Arithmetic errors
	CodeOverflow  Code = "OVERFLOW"
	CodeUnderflow Code = "UNDERFLOW"

	// Bound errors
	CodeExceedsMax    Code = "EXCEEDS_MAX"
	CodeBelowMin      Code = "BELOW_MIN"
	CodeInvalidBounds Code = "INVALID_BOUNDS"

	// Lifecycle errors
	CodeAlreadyInitialized Code = "ALREADY_INITIALIZED"
	CodeNotInitialized     Code = "NOT_INITIALIZED"

	// Input errors
	CodeInvalidAmount   Code = "INVALID_AMOUNT"
	CodeInvalidIdentity Code = "INVALID_IDENTITY"
)

// contractCodes are the stable numeric wire codes. Existing values never
// change; new codes are appended.
var contractCodes = map[Code]uint32{
	CodeNotOwner:           1,
	CodeNotOperator:        2,
	CodeOperatorExists:     3,
	CodeOperatorNotFound:   4,
	CodeOverflow:           5,
	CodeUnderflow:          6,
	CodeExceedsMax:         7,
	CodeBelowMin:           8,
	CodeInvalidBounds:      9,
	CodeAlreadyInitialized: 10,
	CodeNotInitialized:     11,
	CodeInvalidAmount:      12,
	CodeInvalidIdentity:    13,
}

// ContractCode returns the stable numeric code for c, or 0 when c has none.
func (c Code) ContractCode() uint32 {
	return contractCodes[c]
}

func (c Code) contractCodeString() string {
	return strconv.FormatUint(uint64(c.ContractCode()), 10)
}

// GRPCCode maps domain codes to gRPC status codes.
func (c Code) GRPCCode() codes.Code {
	switch c {
	// InvalidArgument - validation failures, bad input
	case CodeInvalidBounds,
		CodeInvalidAmount,
		CodeInvalidIdentity:
		return codes.InvalidArgument

	// PermissionDenied - caller lacks the role
	case CodeNotOwner,
		CodeNotOperator:
		return codes.PermissionDenied

	// AlreadyExists - unique record constraint
	case CodeAlreadyInitialized,
		CodeOperatorExists:
		return codes.AlreadyExists

	// NotFound - resource doesn't exist
	case CodeOperatorNotFound:
		return codes.NotFound

	// FailedPrecondition - state doesn't allow operation
	case CodeExceedsMax,
		CodeBelowMin,
		CodeNotInitialized:
		return codes.FailedPrecondition

	// OutOfRange - arithmetic left the representable range
	case CodeOverflow,
		CodeUnderflow:
		return codes.OutOfRange

	default:
		return codes.Internal
	}
}
