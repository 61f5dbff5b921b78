package requestctx

import (
	"context"
	"testing"
)

func TestProofFromContextRoundTrip(t *testing.T) {
	want := Proof{Token: "tok", Method: "/budget.v1.BudgetGovernorService/IncreaseBudget"}
	got, ok := ProofFromContext(WithProof(context.Background(), want))
	if !ok {
		t.Fatal("expected proof")
	}
	if got != want {
		t.Fatalf("proof = %+v, want %+v", got, want)
	}
}

func TestProofFromContextMissing(t *testing.T) {
	if _, ok := ProofFromContext(context.Background()); ok {
		t.Fatal("expected no proof")
	}
	if _, ok := ProofFromContext(nil); ok {
		t.Fatal("expected no proof for nil context")
	}
}

func TestProofFromContextRejectsEmptyToken(t *testing.T) {
	ctx := WithProof(context.Background(), Proof{Method: "/x"})
	if _, ok := ProofFromContext(ctx); ok {
		t.Fatal("expected empty token to be treated as missing")
	}
}

func TestWithProofNilContext(t *testing.T) {
	ctx := WithProof(nil, Proof{Token: "tok"})
	if ctx == nil {
		t.Fatal("expected non-nil context")
	}
	if _, ok := ProofFromContext(ctx); !ok {
		t.Fatal("expected proof")
	}
}
