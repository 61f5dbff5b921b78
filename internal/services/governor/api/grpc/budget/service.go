package budget

import (
	"context"
	"errors"

	apperrors "github.com/arywk40-hue/budget-governor/internal/platform/errors"
	"github.com/arywk40-hue/budget-governor/internal/services/governor/domain"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Governor is the state machine behind the service.
type Governor interface {
	Initialize(ctx context.Context, owner domain.Address, initial, min, max int64) error
	AddOperator(ctx context.Context, caller, op domain.Address) error
	RemoveOperator(ctx context.Context, caller, target domain.Address) error
	IncreaseBudget(ctx context.Context, caller domain.Address, amount int64) (int64, error)
	DecreaseBudget(ctx context.Context, caller domain.Address, amount int64) (int64, error)
	Budget(ctx context.Context) (domain.Budget, error)
	Operators(ctx context.Context) ([]domain.Address, error)
	Owner(ctx context.Context) (domain.Address, error)
	IsOperator(ctx context.Context, addr domain.Address) (bool, error)
}

// Service exposes budget.v1 gRPC operations.
type Service struct {
	governor Governor
	logger   *zap.Logger
}

// NewService creates a budget service backed by governor.
func NewService(governor Governor, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{governor: governor, logger: logger}
}

// Initialize records the owner and budget bounds.
func (s *Service) Initialize(ctx context.Context, in *InitializeRequest) (*InitializeResponse, error) {
	if in == nil {
		return nil, status.Error(codes.InvalidArgument, "initialize request is required")
	}
	if err := s.ready(); err != nil {
		return nil, err
	}
	owner, err := domain.ParseAddress(in.Owner)
	if err != nil {
		return nil, s.statusError(err)
	}
	if err := s.governor.Initialize(ctx, owner, in.Initial, in.Min, in.Max); err != nil {
		return nil, s.statusError(err)
	}
	return &InitializeResponse{Budget: Budget{Current: in.Initial, Min: in.Min, Max: in.Max}}, nil
}

// AddOperator appends an operator on behalf of the owner.
func (s *Service) AddOperator(ctx context.Context, in *AddOperatorRequest) (*AddOperatorResponse, error) {
	if in == nil {
		return nil, status.Error(codes.InvalidArgument, "add operator request is required")
	}
	if err := s.ready(); err != nil {
		return nil, err
	}
	caller, err := callerFromContext(ctx)
	if err != nil {
		return nil, s.statusError(err)
	}
	op, err := domain.ParseAddress(in.Operator)
	if err != nil {
		return nil, s.statusError(err)
	}
	if err := s.governor.AddOperator(ctx, caller, op); err != nil {
		return nil, s.statusError(err)
	}
	return &AddOperatorResponse{}, nil
}

// RemoveOperator drops an operator on behalf of the owner.
func (s *Service) RemoveOperator(ctx context.Context, in *RemoveOperatorRequest) (*RemoveOperatorResponse, error) {
	if in == nil {
		return nil, status.Error(codes.InvalidArgument, "remove operator request is required")
	}
	if err := s.ready(); err != nil {
		return nil, err
	}
	caller, err := callerFromContext(ctx)
	if err != nil {
		return nil, s.statusError(err)
	}
	target, err := domain.ParseAddress(in.Operator)
	if err != nil {
		return nil, s.statusError(err)
	}
	if err := s.governor.RemoveOperator(ctx, caller, target); err != nil {
		return nil, s.statusError(err)
	}
	return &RemoveOperatorResponse{}, nil
}

// IncreaseBudget raises the budget on behalf of an operator.
func (s *Service) IncreaseBudget(ctx context.Context, in *AdjustBudgetRequest) (*AdjustBudgetResponse, error) {
	return s.adjust(ctx, in, s.governorIncrease)
}

// DecreaseBudget lowers the budget on behalf of an operator.
func (s *Service) DecreaseBudget(ctx context.Context, in *AdjustBudgetRequest) (*AdjustBudgetResponse, error) {
	return s.adjust(ctx, in, s.governorDecrease)
}

func (s *Service) governorIncrease(ctx context.Context, caller domain.Address, amount int64) (int64, error) {
	return s.governor.IncreaseBudget(ctx, caller, amount)
}

func (s *Service) governorDecrease(ctx context.Context, caller domain.Address, amount int64) (int64, error) {
	return s.governor.DecreaseBudget(ctx, caller, amount)
}

func (s *Service) adjust(ctx context.Context, in *AdjustBudgetRequest, apply func(context.Context, domain.Address, int64) (int64, error)) (*AdjustBudgetResponse, error) {
	if in == nil {
		return nil, status.Error(codes.InvalidArgument, "adjust budget request is required")
	}
	if err := s.ready(); err != nil {
		return nil, err
	}
	caller, err := callerFromContext(ctx)
	if err != nil {
		return nil, s.statusError(err)
	}
	current, err := apply(ctx, caller, in.Amount)
	if err != nil {
		return nil, s.statusError(err)
	}
	return &AdjustBudgetResponse{Current: current}, nil
}

// GetBudget returns the budget and its bounds.
func (s *Service) GetBudget(ctx context.Context, in *GetBudgetRequest) (*GetBudgetResponse, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	budget, err := s.governor.Budget(ctx)
	if err != nil {
		return nil, s.statusError(err)
	}
	return &GetBudgetResponse{Budget: Budget{Current: budget.Current, Min: budget.Min, Max: budget.Max}}, nil
}

// GetOperators lists operators in insertion order.
func (s *Service) GetOperators(ctx context.Context, in *GetOperatorsRequest) (*GetOperatorsResponse, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	operators, err := s.governor.Operators(ctx)
	if err != nil {
		return nil, s.statusError(err)
	}
	out := make([]string, 0, len(operators))
	for _, op := range operators {
		out = append(out, op.String())
	}
	return &GetOperatorsResponse{Operators: out}, nil
}

// GetOwner returns the owner address.
func (s *Service) GetOwner(ctx context.Context, in *GetOwnerRequest) (*GetOwnerResponse, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	owner, err := s.governor.Owner(ctx)
	if err != nil {
		return nil, s.statusError(err)
	}
	return &GetOwnerResponse{Owner: owner.String()}, nil
}

// IsOperator reports roster membership for an address.
func (s *Service) IsOperator(ctx context.Context, in *IsOperatorRequest) (*IsOperatorResponse, error) {
	if in == nil {
		return nil, status.Error(codes.InvalidArgument, "is operator request is required")
	}
	if err := s.ready(); err != nil {
		return nil, err
	}
	addr, err := domain.ParseAddress(in.Address)
	if err != nil {
		return nil, s.statusError(err)
	}
	ok, err := s.governor.IsOperator(ctx, addr)
	if err != nil {
		return nil, s.statusError(err)
	}
	return &IsOperatorResponse{IsOperator: ok}, nil
}

func (s *Service) ready() error {
	if s == nil || s.governor == nil {
		return status.Error(codes.Internal, "budget governor is not configured")
	}
	return nil
}

// statusError converts governor errors to gRPC statuses. Domain errors keep
// their code and metadata; anything else is logged and reported as Internal.
func (s *Service) statusError(err error) error {
	var domainErr *apperrors.Error
	if errors.As(err, &domainErr) {
		return domainErr.ToGRPCStatus()
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return status.FromContextError(err).Err()
	}
	s.logger.Error("budget governor call failed", zap.Error(err))
	return status.Error(codes.Internal, "internal error")
}

// callerFromContext reads the claimed caller from request metadata.
func callerFromContext(ctx context.Context) (domain.Address, error) {
	return domain.ParseAddress(firstMetadataValue(ctx, CallerHeader))
}

var _ BudgetGovernorServiceServer = (*Service)(nil)
