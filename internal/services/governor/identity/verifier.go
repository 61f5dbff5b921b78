package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/arywk40-hue/budget-governor/internal/platform/requestctx"
	"github.com/arywk40-hue/budget-governor/internal/services/governor/domain"
	"github.com/golang-jwt/jwt/v5"
)

// DefaultMaxProofAge caps exp-iat of accepted proofs.
const DefaultMaxProofAge = 2 * time.Minute

// clockLeeway absorbs skew between caller and governor clocks.
const clockLeeway = 5 * time.Second

var (
	// ErrProofMissing indicates the call carried no proof.
	ErrProofMissing = errors.New("caller proof is missing")
	// ErrProofInvalid indicates a proof that does not authenticate the claimed address.
	ErrProofInvalid = errors.New("caller proof is invalid")
	// ErrProofReplayed indicates a proof id that was already accepted.
	ErrProofReplayed = errors.New("caller proof was already used")
)

// Verifier confirms that the current call was authorized by addr. It returns
// nil only when the proof carried by ctx authenticates addr.
type Verifier interface {
	VerifyCaller(ctx context.Context, addr domain.Address) error
}

// ReplayGuard records accepted proof ids. Use reports false when id was
// already accepted and has not yet expired.
type ReplayGuard interface {
	Use(ctx context.Context, id string, expires time.Time) (bool, error)
}

// ProofConfig configures a ProofVerifier.
type ProofConfig struct {
	Audience string
	MaxAge   time.Duration
	Now      func() time.Time
	// Replay defaults to a MemoryReplayGuard. Processes sharing one store
	// must share one guard.
	Replay ReplayGuard
}

// ProofVerifier verifies EdDSA JWT caller proofs.
type ProofVerifier struct {
	audience string
	maxAge   time.Duration
	now      func() time.Time
	replay   ReplayGuard
}

// NewProofVerifier validates cfg and returns a verifier.
func NewProofVerifier(cfg ProofConfig) (*ProofVerifier, error) {
	audience := strings.TrimSpace(cfg.Audience)
	if audience == "" {
		return nil, errors.New("proof audience is required")
	}
	maxAge := cfg.MaxAge
	if maxAge <= 0 {
		maxAge = DefaultMaxProofAge
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	replay := cfg.Replay
	if replay == nil {
		replay = NewMemoryReplayGuard(now)
	}
	return &ProofVerifier{
		audience: audience,
		maxAge:   maxAge,
		now:      now,
		replay:   replay,
	}, nil
}

// VerifyCaller implements Verifier.
func (v *ProofVerifier) VerifyCaller(ctx context.Context, addr domain.Address) error {
	if v == nil {
		return errors.New("proof verifier is not configured")
	}
	proof, ok := requestctx.ProofFromContext(ctx)
	if !ok {
		return ErrProofMissing
	}
	key, err := PublicKeyFromAddress(addr)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrProofInvalid, err)
	}

	var claims proofClaims
	_, err = jwt.ParseWithClaims(strings.TrimSpace(proof.Token), &claims, func(*jwt.Token) (any, error) {
		return key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodEdDSA.Alg()}),
		jwt.WithAudience(v.audience),
		jwt.WithIssuer(string(addr)),
		jwt.WithSubject(string(addr)),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithLeeway(clockLeeway),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrProofInvalid, err)
	}

	if claims.IssuedAt == nil {
		return fmt.Errorf("%w: iat is required", ErrProofInvalid)
	}
	if claims.ExpiresAt.Sub(claims.IssuedAt.Time) > v.maxAge {
		return fmt.Errorf("%w: lifetime exceeds %s", ErrProofInvalid, v.maxAge)
	}
	if strings.TrimSpace(proof.Method) == "" || claims.Method != proof.Method {
		return fmt.Errorf("%w: method mismatch", ErrProofInvalid)
	}
	if strings.TrimSpace(claims.ID) == "" {
		return fmt.Errorf("%w: jti is required", ErrProofInvalid)
	}
	fresh, err := v.replay.Use(ctx, claims.ID, claims.ExpiresAt.Add(clockLeeway))
	if err != nil {
		return fmt.Errorf("record proof id: %w", err)
	}
	if !fresh {
		return ErrProofReplayed
	}
	return nil
}

// MemoryReplayGuard keeps accepted proof ids in process memory. It only
// protects a single process.
type MemoryReplayGuard struct {
	mu        sync.Mutex
	now       func() time.Time
	seen      map[string]time.Time
	nextSweep time.Time
}

// NewMemoryReplayGuard returns an empty guard. A nil now uses time.Now.
func NewMemoryReplayGuard(now func() time.Time) *MemoryReplayGuard {
	if now == nil {
		now = time.Now
	}
	return &MemoryReplayGuard{now: now, seen: make(map[string]time.Time)}
}

// Use implements ReplayGuard. Expired ids are swept at most once per
// clockLeeway.
func (g *MemoryReplayGuard) Use(_ context.Context, id string, expires time.Time) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	now := g.now()
	if !now.Before(g.nextSweep) {
		for seenID, until := range g.seen {
			if !until.After(now) {
				delete(g.seen, seenID)
			}
		}
		g.nextSweep = now.Add(clockLeeway)
	}
	if until, ok := g.seen[id]; ok && until.After(now) {
		return false, nil
	}
	g.seen[id] = expires
	return true, nil
}

// Len reports how many ids are currently retained.
func (g *MemoryReplayGuard) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.seen)
}

var (
	_ Verifier    = (*ProofVerifier)(nil)
	_ ReplayGuard = (*MemoryReplayGuard)(nil)
)
