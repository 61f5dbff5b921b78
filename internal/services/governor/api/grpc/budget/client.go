package budget

import (
	"context"
	"errors"
	"fmt"

	"github.com/arywk40-hue/budget-governor/internal/services/governor/domain"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

// ProofSigner mints a caller proof bound to one full method name.
type ProofSigner interface {
	Address() domain.Address
	Sign(method string) (string, error)
}

// Client calls the budget governor. Mutating calls are signed with the
// configured signer; reads are sent without a proof.
type Client struct {
	conn   grpc.ClientConnInterface
	signer ProofSigner
}

// NewClient creates a client over conn. signer may be nil for read-only use.
func NewClient(conn grpc.ClientConnInterface, signer ProofSigner) (*Client, error) {
	if conn == nil {
		return nil, errors.New("gRPC connection is required")
	}
	return &Client{conn: conn, signer: signer}, nil
}

// Initialize makes the signer's address the owner.
func (c *Client) Initialize(ctx context.Context, initial, min, max int64) (Budget, error) {
	owner, err := c.caller()
	if err != nil {
		return Budget{}, err
	}
	var out InitializeResponse
	in := &InitializeRequest{Owner: owner.String(), Initial: initial, Min: min, Max: max}
	if err := c.invokeSigned(ctx, InitializeMethod, in, &out); err != nil {
		return Budget{}, err
	}
	return out.Budget, nil
}

// AddOperator appends op to the roster.
func (c *Client) AddOperator(ctx context.Context, op domain.Address) error {
	return c.invokeSigned(ctx, AddOperatorMethod, &AddOperatorRequest{Operator: op.String()}, &AddOperatorResponse{})
}

// RemoveOperator drops op from the roster.
func (c *Client) RemoveOperator(ctx context.Context, op domain.Address) error {
	return c.invokeSigned(ctx, RemoveOperatorMethod, &RemoveOperatorRequest{Operator: op.String()}, &RemoveOperatorResponse{})
}

// IncreaseBudget raises the budget and returns the new value.
func (c *Client) IncreaseBudget(ctx context.Context, amount int64) (int64, error) {
	var out AdjustBudgetResponse
	if err := c.invokeSigned(ctx, IncreaseBudgetMethod, &AdjustBudgetRequest{Amount: amount}, &out); err != nil {
		return 0, err
	}
	return out.Current, nil
}

// DecreaseBudget lowers the budget and returns the new value.
func (c *Client) DecreaseBudget(ctx context.Context, amount int64) (int64, error) {
	var out AdjustBudgetResponse
	if err := c.invokeSigned(ctx, DecreaseBudgetMethod, &AdjustBudgetRequest{Amount: amount}, &out); err != nil {
		return 0, err
	}
	return out.Current, nil
}

// Budget returns the budget and its bounds.
func (c *Client) Budget(ctx context.Context) (Budget, error) {
	var out GetBudgetResponse
	if err := c.invoke(ctx, GetBudgetMethod, &GetBudgetRequest{}, &out); err != nil {
		return Budget{}, err
	}
	return out.Budget, nil
}

// Operators lists operators in insertion order.
func (c *Client) Operators(ctx context.Context) ([]domain.Address, error) {
	var out GetOperatorsResponse
	if err := c.invoke(ctx, GetOperatorsMethod, &GetOperatorsRequest{}, &out); err != nil {
		return nil, err
	}
	operators := make([]domain.Address, 0, len(out.Operators))
	for _, op := range out.Operators {
		operators = append(operators, domain.Address(op))
	}
	return operators, nil
}

// Owner returns the owner address.
func (c *Client) Owner(ctx context.Context) (domain.Address, error) {
	var out GetOwnerResponse
	if err := c.invoke(ctx, GetOwnerMethod, &GetOwnerRequest{}, &out); err != nil {
		return "", err
	}
	return domain.Address(out.Owner), nil
}

// IsOperator reports whether addr is on the roster.
func (c *Client) IsOperator(ctx context.Context, addr domain.Address) (bool, error) {
	var out IsOperatorResponse
	if err := c.invoke(ctx, IsOperatorMethod, &IsOperatorRequest{Address: addr.String()}, &out); err != nil {
		return false, err
	}
	return out.IsOperator, nil
}

func (c *Client) caller() (domain.Address, error) {
	if c.signer == nil {
		return "", errors.New("a signing key is required for this call")
	}
	return c.signer.Address(), nil
}

func (c *Client) invokeSigned(ctx context.Context, method string, in, out any) error {
	caller, err := c.caller()
	if err != nil {
		return err
	}
	token, err := c.signer.Sign(method)
	if err != nil {
		return fmt.Errorf("sign %s: %w", method, err)
	}
	ctx = metadata.AppendToOutgoingContext(ctx,
		CallerHeader, caller.String(),
		AuthorizationHeader, "Bearer "+token,
	)
	return c.invoke(ctx, method, in, out)
}

func (c *Client) invoke(ctx context.Context, method string, in, out any) error {
	return c.conn.Invoke(ctx, method, in, out, grpc.CallContentSubtype(CodecName))
}
