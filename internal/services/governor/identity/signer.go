package identity

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/arywk40-hue/budget-governor/internal/services/governor/domain"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultProofTTL is the lifetime of proofs minted by a Signer.
const DefaultProofTTL = 30 * time.Second

// proofClaims is the JWT body of a caller proof.
type proofClaims struct {
	jwt.RegisteredClaims
	Method string `json:"method"`
}

// Signer mints caller proofs for one private key.
type Signer struct {
	key      ed25519.PrivateKey
	address  domain.Address
	audience string
	ttl      time.Duration
	now      func() time.Time
	newID    func() string
}

// NewSigner creates a signer for key targeting audience.
func NewSigner(key ed25519.PrivateKey, audience string) (*Signer, error) {
	if len(key) != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("private key must be %d bytes", ed25519.PrivateKeySize)
	}
	audience = strings.TrimSpace(audience)
	if audience == "" {
		return nil, errors.New("proof audience is required")
	}
	return &Signer{
		key:      key,
		address:  AddressFromPublicKey(key.Public().(ed25519.PublicKey)),
		audience: audience,
		ttl:      DefaultProofTTL,
		now:      time.Now,
		newID:    uuid.NewString,
	}, nil
}

// Address returns the address this signer proves.
func (s *Signer) Address() domain.Address {
	return s.address
}

// Sign returns a proof bound to method.
func (s *Signer) Sign(method string) (string, error) {
	method = strings.TrimSpace(method)
	if method == "" {
		return "", errors.New("proof method is required")
	}
	now := s.now().UTC()
	claims := proofClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    string(s.address),
			Subject:   string(s.address),
			Audience:  jwt.ClaimStrings{s.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			ID:        s.newID(),
		},
		Method: method,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims).SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("sign proof: %w", err)
	}
	return token, nil
}
