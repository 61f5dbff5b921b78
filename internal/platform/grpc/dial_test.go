package grpc

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	gogrpc "google.golang.org/grpc"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
)

func TestDialWithHealthSuccess(t *testing.T) {
	fixture := newHealthFixture(t)
	fixture.set("", grpc_health_v1.HealthCheckResponse_SERVING)

	conn, err := DialWithHealth(context.Background(), fixture.addr, 2*time.Second, nil)
	if err != nil {
		t.Fatalf("dial with health: %v", err)
	}
	if err := conn.Close(); err != nil {
		t.Fatalf("close conn: %v", err)
	}
}

func TestDialWithHealthTimesOutWhenNotServing(t *testing.T) {
	fixture := newHealthFixture(t)
	fixture.set("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)

	start := time.Now()
	conn, err := DialWithHealth(context.Background(), fixture.addr, 150*time.Millisecond, nil)
	if err == nil {
		_ = conn.Close()
		t.Fatal("expected error")
	}
	var dialErr *DialError
	if !errors.As(err, &dialErr) {
		t.Fatalf("expected DialError, got %T", err)
	}
	if dialErr.Stage != DialStageHealth {
		t.Fatalf("expected stage %q, got %q", DialStageHealth, dialErr.Stage)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("expected timeout to bound health wait, took %v", elapsed)
	}
}

func TestDialWithHealthRejectsMissingCredentials(t *testing.T) {
	// No transport credentials makes client construction fail.
	_, err := DialWithHealth(context.Background(), "127.0.0.1:1", time.Second, nil, gogrpc.WithUserAgent("test"))
	var dialErr *DialError
	if !errors.As(err, &dialErr) {
		t.Fatalf("expected DialError, got %T (%v)", err, err)
	}
	if dialErr.Stage != DialStageConnect {
		t.Fatalf("expected stage %q, got %q", DialStageConnect, dialErr.Stage)
	}
}

func TestDialErrorFormatting(t *testing.T) {
	wrapped := &DialError{Stage: DialStageConnect, Err: fmt.Errorf("boom")}
	if !strings.Contains(wrapped.Error(), "gRPC connect") {
		t.Fatalf("unexpected error: %s", wrapped.Error())
	}
	if wrapped.Unwrap() == nil {
		t.Fatal("expected wrapped error")
	}

	var nilErr *DialError
	if nilErr.Error() == "" {
		t.Fatal("expected fallback error message")
	}
	if nilErr.Unwrap() != nil {
		t.Fatal("expected nil unwrap for nil error")
	}
}
