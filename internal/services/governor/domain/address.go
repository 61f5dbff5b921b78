package domain

import (
	"fmt"
	"strings"

	apperrors "github.com/arywk40-hue/budget-governor/internal/platform/errors"
)

// MaxAddressLength bounds the stored size of one identity.
const MaxAddressLength = 128

// Address identifies a principal. In production it is the unpadded base64url
// encoding of an Ed25519 public key; the domain only requires it to be a
// compact printable token.
type Address string

// ParseAddress trims and validates a raw identity.
func ParseAddress(raw string) (Address, error) {
	value := strings.TrimSpace(raw)
	if err := Address(value).Validate(); err != nil {
		return "", err
	}
	return Address(value), nil
}

// Validate reports whether a is a well-formed identity.
func (a Address) Validate() error {
	value := string(a)
	if value == "" {
		return apperrors.WithMetadata(apperrors.CodeInvalidIdentity, "identity is required", map[string]string{"reason": "empty"})
	}
	if len(value) > MaxAddressLength {
		return apperrors.WithMetadata(
			apperrors.CodeInvalidIdentity,
			fmt.Sprintf("identity exceeds %d bytes", MaxAddressLength),
			map[string]string{"reason": "too_long"},
		)
	}
	for i := 0; i < len(value); i++ {
		// printable ASCII without space
		if value[i] <= 0x20 || value[i] > 0x7e {
			return apperrors.WithMetadata(
				apperrors.CodeInvalidIdentity,
				"identity contains non-printable or whitespace characters",
				map[string]string{"reason": "charset"},
			)
		}
	}
	return nil
}

// String returns the address text.
func (a Address) String() string {
	return string(a)
}
