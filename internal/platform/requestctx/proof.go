// Package requestctx carries per-call caller proofs from the transport to
// the identity verifier.
package requestctx

import "context"

// proofContextKey is the context key for the caller's signed proof.
type proofContextKey struct{}

// Proof is the raw material a verifier needs to authenticate one call.
type Proof struct {
	// Token is the signed proof presented by the caller.
	Token string
	// Method is the operation the proof must be bound to.
	Method string
}

// WithProof stores a caller proof in context.
func WithProof(ctx context.Context, proof Proof) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, proofContextKey{}, proof)
}

// ProofFromContext returns the caller proof stored in context.
func ProofFromContext(ctx context.Context) (Proof, bool) {
	if ctx == nil {
		return Proof{}, false
	}
	proof, ok := ctx.Value(proofContextKey{}).(Proof)
	if !ok || proof.Token == "" {
		return Proof{}, false
	}
	return proof, true
}
