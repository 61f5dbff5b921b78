package errors

import (
	stderrors "errors"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/status"
)

// Domain is the error domain for budget governor errors.
const Domain = "budget-governor"

// ContractCodeKey is the ErrorInfo metadata key carrying Code.ContractCode.
const ContractCodeKey = "contract_code"

// Error is the domain error type with structured metadata.
type Error struct {
	Code     Code              // Machine-readable error code
	Message  string            // Internal message (for logs/telemetry)
	Metadata map[string]string // Additional context for clients
	Cause    error             // Wrapped underlying error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// New creates a simple domain error with a code and message.
func New(code Code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// WithMetadata creates a domain error with metadata for clients.
func WithMetadata(code Code, message string, metadata map[string]string) *Error {
	return &Error{
		Code:     code,
		Message:  message,
		Metadata: metadata,
	}
}

// Wrap creates a domain error that wraps an underlying cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// CodeOf returns the domain code carried by err, or CodeUnknown.
func CodeOf(err error) Code {
	var domainErr *Error
	if stderrors.As(err, &domainErr) {
		return domainErr.Code
	}
	return CodeUnknown
}

// ToGRPCStatus converts the error to a gRPC status with errdetails.
// The ErrorInfo reason is the code and its metadata always carries the
// numeric contract code.
func (e *Error) ToGRPCStatus() error {
	grpcCode := e.Code.GRPCCode()
	st := status.New(grpcCode, e.Message)

	metadata := make(map[string]string, len(e.Metadata)+1)
	for key, value := range e.Metadata {
		metadata[key] = value
	}
	if e.Code.ContractCode() != 0 {
		metadata[ContractCodeKey] = e.Code.contractCodeString()
	}

	detailed, err := st.WithDetails(&errdetails.ErrorInfo{
		Reason:   string(e.Code),
		Domain:   Domain,
		Metadata: metadata,
	})
	if err != nil {
		// If we can't attach details, return the basic status
		return st.Err()
	}
	return detailed.Err()
}

// FromGRPCStatus recovers a domain error from a status produced by
// ToGRPCStatus. It returns nil when err carries no governor ErrorInfo.
func FromGRPCStatus(err error) *Error {
	st, ok := status.FromError(err)
	if !ok || st == nil {
		return nil
	}
	for _, detail := range st.Details() {
		info, ok := detail.(*errdetails.ErrorInfo)
		if !ok || info.GetDomain() != Domain {
			continue
		}
		metadata := make(map[string]string, len(info.GetMetadata()))
		for key, value := range info.GetMetadata() {
			if key == ContractCodeKey {
				continue
			}
			metadata[key] = value
		}
		if len(metadata) == 0 {
			metadata = nil
		}
		return &Error{
			Code:     Code(info.GetReason()),
			Message:  st.Message(),
			Metadata: metadata,
		}
	}
	return nil
}
