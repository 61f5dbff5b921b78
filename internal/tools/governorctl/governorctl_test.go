package governorctl

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"io"
	"strings"
	"testing"
	"time"

	server "github.com/arywk40-hue/budget-governor/internal/services/governor/app"
	"github.com/arywk40-hue/budget-governor/internal/services/governor/identity"
)

const testAudience = "governorctl-test"

func startGovernor(t *testing.T) string {
	t.Helper()
	t.Setenv("BUDGET_GOVERNOR_STORE", server.StoreMemory)
	t.Setenv("BUDGET_GOVERNOR_PROOF_AUDIENCE", testAudience)

	srv, err := server.NewWithAddr(context.Background(), "127.0.0.1:0", nil)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- srv.Serve(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Error("timeout waiting for server shutdown")
		}
	})
	return srv.Addr()
}

type keyPair struct {
	address string
	private string
}

func newKeyPair(t *testing.T) keyPair {
	t.Helper()
	addr, priv, err := identity.GenerateKey()
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return keyPair{address: string(addr), private: identity.EncodePrivateKey(priv)}
}

func runCommand(t *testing.T, addr string, key keyPair, args ...string) (string, error) {
	t.Helper()
	environ := map[string]string{
		"BUDGET_GOVERNOR_ADDR":           addr,
		"BUDGET_GOVERNOR_PRIVATE_KEY":    key.private,
		"BUDGET_GOVERNOR_PROOF_AUDIENCE": testAudience,
	}
	fs := flag.NewFlagSet("governorctl", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	cfg, err := ParseConfig(fs, args, environ)
	if err != nil {
		t.Fatalf("parse config %v: %v", args, err)
	}
	var out bytes.Buffer
	err = Run(context.Background(), cfg, &out)
	return out.String(), err
}

func TestParseConfigDefaults(t *testing.T) {
	fs := flag.NewFlagSet("governorctl", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, []string{"budget"}, map[string]string{})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Addr != "127.0.0.1:8095" {
		t.Fatalf("expected default addr, got %q", cfg.Addr)
	}
	if cfg.ProofAudience != "budget-governor" {
		t.Fatalf("expected default audience, got %q", cfg.ProofAudience)
	}
	if cfg.Timeout != 10*time.Second {
		t.Fatalf("expected default timeout, got %v", cfg.Timeout)
	}
	if cfg.Command != "budget" || len(cfg.Args) != 0 {
		t.Fatalf("unexpected command %q %v", cfg.Command, cfg.Args)
	}
}

func TestParseConfigFlagsOverrideEnv(t *testing.T) {
	fs := flag.NewFlagSet("governorctl", flag.ContinueOnError)
	environ := map[string]string{"BUDGET_GOVERNOR_ADDR": "env:1"}
	cfg, err := ParseConfig(fs, []string{"-addr", "flag:2", "-json", "increase", "5"}, environ)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Addr != "flag:2" {
		t.Fatalf("expected flag addr, got %q", cfg.Addr)
	}
	if !cfg.JSONOutput {
		t.Fatal("expected json output")
	}
	if cfg.Command != "increase" || len(cfg.Args) != 1 || cfg.Args[0] != "5" {
		t.Fatalf("unexpected command %q %v", cfg.Command, cfg.Args)
	}
}

func TestParseConfigRequiresCommand(t *testing.T) {
	fs := flag.NewFlagSet("governorctl", flag.ContinueOnError)
	if _, err := ParseConfig(fs, nil, map[string]string{}); err == nil {
		t.Fatal("expected missing command error")
	}
}

func TestRunRejectsBadInvocations(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{name: "unknown command", cfg: Config{Command: "mint"}, want: "unknown command"},
		{name: "wrong arity", cfg: Config{Command: "increase"}, want: "expects 1 argument"},
		{name: "missing key", cfg: Config{Command: "increase", Args: []string{"1"}}, want: "BUDGET_GOVERNOR_PRIVATE_KEY"},
		{name: "bad key", cfg: Config{Command: "increase", Args: []string{"1"}, PrivateKey: "%%%"}, want: "private key"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Run(context.Background(), tt.cfg, nil)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestRunScenario(t *testing.T) {
	addr := startGovernor(t)
	owner := newKeyPair(t)
	operator := newKeyPair(t)

	out, err := runCommand(t, addr, owner, "init", "1000", "0", "5000")
	if err != nil {
		t.Fatalf("init: %v", err)
	}
	if out != "current=1000 min=0 max=5000\n" {
		t.Fatalf("unexpected init output %q", out)
	}
	if _, err := runCommand(t, addr, owner, "add-operator", operator.address); err != nil {
		t.Fatalf("add operator: %v", err)
	}

	out, err = runCommand(t, addr, operator, "increase", "500")
	if err != nil {
		t.Fatalf("increase: %v", err)
	}
	if out != "1500\n" {
		t.Fatalf("unexpected increase output %q", out)
	}

	_, err = runCommand(t, addr, operator, "decrease", "2000")
	if err == nil || !strings.Contains(err.Error(), "BELOW_MIN (contract code 8)") {
		t.Fatalf("expected BELOW_MIN, got %v", err)
	}
	_, err = runCommand(t, addr, operator, "increase", "4000")
	if err == nil || !strings.Contains(err.Error(), "EXCEEDS_MAX (contract code 7)") {
		t.Fatalf("expected EXCEEDS_MAX, got %v", err)
	}
	_, err = runCommand(t, addr, operator, "add-operator", owner.address)
	if err == nil || !strings.Contains(err.Error(), "NOT_OWNER (contract code 1)") {
		t.Fatalf("expected NOT_OWNER, got %v", err)
	}

	out, err = runCommand(t, addr, keyPair{}, "budget")
	if err != nil {
		t.Fatalf("budget: %v", err)
	}
	if out != "current=1500 min=0 max=5000\n" {
		t.Fatalf("unexpected budget output %q", out)
	}
	out, err = runCommand(t, addr, keyPair{}, "operators")
	if err != nil {
		t.Fatalf("operators: %v", err)
	}
	if out != operator.address+"\n" {
		t.Fatalf("unexpected operators output %q", out)
	}
	out, err = runCommand(t, addr, keyPair{}, "owner")
	if err != nil {
		t.Fatalf("owner: %v", err)
	}
	if out != owner.address+"\n" {
		t.Fatalf("unexpected owner output %q", out)
	}
	out, err = runCommand(t, addr, keyPair{}, "is-operator", owner.address)
	if err != nil {
		t.Fatalf("is-operator: %v", err)
	}
	if out != "false\n" {
		t.Fatalf("unexpected is-operator output %q", out)
	}

	if _, err := runCommand(t, addr, owner, "remove-operator", operator.address); err != nil {
		t.Fatalf("remove operator: %v", err)
	}
	out, err = runCommand(t, addr, keyPair{}, "-json", "budget")
	if err != nil {
		t.Fatalf("budget json: %v", err)
	}
	var decoded map[string]int64
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("decode json output %q: %v", out, err)
	}
	if len(decoded) != 3 {
		t.Fatalf("unexpected json budget %v", decoded)
	}
}

func TestRunReportsUnreachableGovernor(t *testing.T) {
	cfg := Config{Addr: "127.0.0.1:1", Command: "budget", Timeout: 500 * time.Millisecond}
	err := Run(context.Background(), cfg, nil)
	if err == nil || !strings.Contains(err.Error(), "connect to governor") {
		t.Fatalf("expected connect error, got %v", err)
	}
}

func TestDescribeErrorPassesThroughPlainErrors(t *testing.T) {
	err := describeError(io.EOF)
	if err != io.EOF {
		t.Fatalf("expected plain error unchanged, got %v", err)
	}
}
