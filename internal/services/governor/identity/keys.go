package identity

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/arywk40-hue/budget-governor/internal/services/governor/domain"
)

// GenerateKey returns a fresh Ed25519 key pair and its address.
func GenerateKey() (domain.Address, ed25519.PrivateKey, error) {
	return GenerateKeyFrom(rand.Reader)
}

// GenerateKeyFrom is GenerateKey with an explicit entropy source. A nil
// reader uses crypto/rand.
func GenerateKeyFrom(reader io.Reader) (domain.Address, ed25519.PrivateKey, error) {
	if reader == nil {
		reader = rand.Reader
	}
	pub, priv, err := ed25519.GenerateKey(reader)
	if err != nil {
		return "", nil, fmt.Errorf("generate ed25519 key: %w", err)
	}
	return AddressFromPublicKey(pub), priv, nil
}

// AddressFromPublicKey encodes an Ed25519 public key as an address.
func AddressFromPublicKey(pub ed25519.PublicKey) domain.Address {
	return domain.Address(base64.RawURLEncoding.EncodeToString(pub))
}

// PublicKeyFromAddress decodes the Ed25519 public key behind addr.
func PublicKeyFromAddress(addr domain.Address) (ed25519.PublicKey, error) {
	if err := addr.Validate(); err != nil {
		return nil, err
	}
	raw, err := base64.RawURLEncoding.DecodeString(string(addr))
	if err != nil {
		return nil, fmt.Errorf("decode address: %w", err)
	}
	if len(raw) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("address must encode %d bytes, got %d", ed25519.PublicKeySize, len(raw))
	}
	return ed25519.PublicKey(raw), nil
}

// EncodePrivateKey encodes the 32-byte seed of priv as standard base64.
func EncodePrivateKey(priv ed25519.PrivateKey) string {
	return base64.StdEncoding.EncodeToString(priv.Seed())
}

// DecodePrivateKey accepts a base64 seed (32 bytes) or full private key
// (64 bytes), padded or not.
func DecodePrivateKey(value string) (ed25519.PrivateKey, error) {
	raw, err := decodeBase64(strings.TrimSpace(value))
	if err != nil {
		return nil, fmt.Errorf("decode private key: %w", err)
	}
	switch len(raw) {
	case ed25519.SeedSize:
		return ed25519.NewKeyFromSeed(raw), nil
	case ed25519.PrivateKeySize:
		return ed25519.PrivateKey(raw), nil
	default:
		return nil, fmt.Errorf("private key must be %d or %d bytes, got %d", ed25519.SeedSize, ed25519.PrivateKeySize, len(raw))
	}
}

func decodeBase64(value string) ([]byte, error) {
	if value == "" {
		return nil, errors.New("empty base64 value")
	}
	decoded, err := base64.RawStdEncoding.DecodeString(value)
	if err == nil {
		return decoded, nil
	}
	return base64.StdEncoding.DecodeString(value)
}
