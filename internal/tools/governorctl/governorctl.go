// Package governorctl implements the budget governor command-line client.
package governorctl

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	entrypoint "github.com/arywk40-hue/budget-governor/internal/platform/cmd"
	"github.com/arywk40-hue/budget-governor/internal/platform/config"
	apperrors "github.com/arywk40-hue/budget-governor/internal/platform/errors"
	platformgrpc "github.com/arywk40-hue/budget-governor/internal/platform/grpc"
	"github.com/arywk40-hue/budget-governor/internal/platform/timeouts"
	budgetservice "github.com/arywk40-hue/budget-governor/internal/services/governor/api/grpc/budget"
	"github.com/arywk40-hue/budget-governor/internal/services/governor/domain"
	"github.com/arywk40-hue/budget-governor/internal/services/governor/identity"
	"google.golang.org/grpc"
)

const usage = `usage: governorctl [flags] <command> [args]

commands:
  init <initial> <min> <max>   initialize with the signing key as owner
  add-operator <address>       add an operator (owner only)
  remove-operator <address>    remove an operator (owner only)
  increase <amount>            raise the budget (operators only)
  decrease <amount>            lower the budget (operators only)
  budget                       print the budget and its bounds
  operators                    list operators in insertion order
  owner                        print the owner address
  is-operator <address>        report whether address is an operator`

// Config holds governorctl configuration.
type Config struct {
	Addr          string        `env:"BUDGET_GOVERNOR_ADDR" envDefault:"127.0.0.1:8095"`
	PrivateKey    string        `env:"BUDGET_GOVERNOR_PRIVATE_KEY"`
	ProofAudience string        `env:"BUDGET_GOVERNOR_PROOF_AUDIENCE" envDefault:"budget-governor"`
	Timeout       time.Duration `env:"BUDGET_GOVERNOR_TIMEOUT" envDefault:"10s"`
	JSONOutput    bool
	Command       string
	Args          []string
}

// ParseConfig reads environ and then flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string, environ map[string]string) (Config, error) {
	var cfg Config
	if err := config.ParseEnvFrom(&cfg, environ); err != nil {
		return Config{}, err
	}
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "governor gRPC address (default: BUDGET_GOVERNOR_ADDR)")
	fs.StringVar(&cfg.ProofAudience, "audience", cfg.ProofAudience, "proof audience expected by the governor")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "overall timeout")
	fs.BoolVar(&cfg.JSONOutput, "json", false, "output JSON")
	fs.Usage = func() { fmt.Fprintln(fs.Output(), usage) }
	if err := entrypoint.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}
	rest := fs.Args()
	if len(rest) == 0 {
		return Config{}, errors.New("a command is required\n" + usage)
	}
	cfg.Command = rest[0]
	cfg.Args = rest[1:]
	return cfg, nil
}

// command is one governorctl subcommand.
type command struct {
	args   int
	signed bool
	run    func(ctx context.Context, client *budgetservice.Client, args []string) (any, error)
}

var commands = map[string]command{
	"init": {args: 3, signed: true, run: func(ctx context.Context, client *budgetservice.Client, args []string) (any, error) {
		values, err := parseInts(args)
		if err != nil {
			return nil, err
		}
		return client.Initialize(ctx, values[0], values[1], values[2])
	}},
	"add-operator": {args: 1, signed: true, run: func(ctx context.Context, client *budgetservice.Client, args []string) (any, error) {
		return nil, client.AddOperator(ctx, domain.Address(args[0]))
	}},
	"remove-operator": {args: 1, signed: true, run: func(ctx context.Context, client *budgetservice.Client, args []string) (any, error) {
		return nil, client.RemoveOperator(ctx, domain.Address(args[0]))
	}},
	"increase": {args: 1, signed: true, run: func(ctx context.Context, client *budgetservice.Client, args []string) (any, error) {
		values, err := parseInts(args)
		if err != nil {
			return nil, err
		}
		return client.IncreaseBudget(ctx, values[0])
	}},
	"decrease": {args: 1, signed: true, run: func(ctx context.Context, client *budgetservice.Client, args []string) (any, error) {
		values, err := parseInts(args)
		if err != nil {
			return nil, err
		}
		return client.DecreaseBudget(ctx, values[0])
	}},
	"budget": {run: func(ctx context.Context, client *budgetservice.Client, _ []string) (any, error) {
		return client.Budget(ctx)
	}},
	"operators": {run: func(ctx context.Context, client *budgetservice.Client, _ []string) (any, error) {
		return client.Operators(ctx)
	}},
	"owner": {run: func(ctx context.Context, client *budgetservice.Client, _ []string) (any, error) {
		return client.Owner(ctx)
	}},
	"is-operator": {args: 1, run: func(ctx context.Context, client *budgetservice.Client, args []string) (any, error) {
		return client.IsOperator(ctx, domain.Address(args[0]))
	}},
}

// Run executes one governorctl command.
func Run(ctx context.Context, cfg Config, out io.Writer) error {
	if out == nil {
		out = io.Discard
	}
	if ctx == nil {
		ctx = context.Background()
	}
	cmd, ok := commands[cfg.Command]
	if !ok {
		return fmt.Errorf("unknown command %q\n%s", cfg.Command, usage)
	}
	if len(cfg.Args) != cmd.args {
		return fmt.Errorf("%s expects %d argument(s), got %d", cfg.Command, cmd.args, len(cfg.Args))
	}

	var signer *identity.Signer
	if cmd.signed {
		if strings.TrimSpace(cfg.PrivateKey) == "" {
			return fmt.Errorf("%s requires BUDGET_GOVERNOR_PRIVATE_KEY", cfg.Command)
		}
		key, err := identity.DecodePrivateKey(cfg.PrivateKey)
		if err != nil {
			return err
		}
		signer, err = identity.NewSigner(key, cfg.ProofAudience)
		if err != nil {
			return err
		}
	}

	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}
	conn, err := platformgrpc.DialWithHealth(ctx, cfg.Addr, timeouts.GRPCDial, nil)
	if err != nil {
		return fmt.Errorf("connect to governor at %s: %w", cfg.Addr, err)
	}
	defer conn.Close()

	return execute(ctx, conn, signer, cfg, cmd, out)
}

func execute(ctx context.Context, conn grpc.ClientConnInterface, signer *identity.Signer, cfg Config, cmd command, out io.Writer) error {
	var proofSigner budgetservice.ProofSigner
	if signer != nil {
		proofSigner = signer
	}
	client, err := budgetservice.NewClient(conn, proofSigner)
	if err != nil {
		return err
	}
	callCtx, cancel := context.WithTimeout(ctx, timeouts.GRPCRequest)
	defer cancel()

	result, err := cmd.run(callCtx, client, cfg.Args)
	if err != nil {
		return describeError(err)
	}
	return printResult(out, cfg, result)
}

func printResult(out io.Writer, cfg Config, result any) error {
	if cfg.JSONOutput {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		if result == nil {
			result = map[string]bool{"ok": true}
		}
		return encoder.Encode(result)
	}

	var err error
	switch value := result.(type) {
	case nil:
		_, err = fmt.Fprintln(out, "ok")
	case budgetservice.Budget:
		_, err = fmt.Fprintf(out, "current=%d min=%d max=%d\n", value.Current, value.Min, value.Max)
	case []domain.Address:
		for _, addr := range value {
			if _, err = fmt.Fprintln(out, addr); err != nil {
				break
			}
		}
	default:
		_, err = fmt.Fprintln(out, value)
	}
	return err
}

// describeError renders governor rejections with their stable codes.
func describeError(err error) error {
	info := apperrors.FromGRPCStatus(err)
	if info == nil {
		return err
	}
	return fmt.Errorf("%s (contract code %d): %s", info.Code, info.Code.ContractCode(), info.Message)
}

func parseInts(args []string) ([]int64, error) {
	values := make([]int64, 0, len(args))
	for _, arg := range args {
		value, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q: %w", arg, err)
		}
		values = append(values, value)
	}
	return values, nil
}
