package budget

import (
	"context"

	"google.golang.org/grpc"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "budget.v1.BudgetGovernorService"

// Full method names, as bound into caller proofs.
const (
	InitializeMethod     = "/" + ServiceName + "/Initialize"
	AddOperatorMethod    = "/" + ServiceName + "/AddOperator"
	RemoveOperatorMethod = "/" + ServiceName + "/RemoveOperator"
	IncreaseBudgetMethod = "/" + ServiceName + "/IncreaseBudget"
	DecreaseBudgetMethod = "/" + ServiceName + "/DecreaseBudget"
	GetBudgetMethod      = "/" + ServiceName + "/GetBudget"
	GetOperatorsMethod   = "/" + ServiceName + "/GetOperators"
	GetOwnerMethod       = "/" + ServiceName + "/GetOwner"
	IsOperatorMethod     = "/" + ServiceName + "/IsOperator"
)

// BudgetGovernorServiceServer is the server API for the budget governor.
type BudgetGovernorServiceServer interface {
	Initialize(context.Context, *InitializeRequest) (*InitializeResponse, error)
	AddOperator(context.Context, *AddOperatorRequest) (*AddOperatorResponse, error)
	RemoveOperator(context.Context, *RemoveOperatorRequest) (*RemoveOperatorResponse, error)
	IncreaseBudget(context.Context, *AdjustBudgetRequest) (*AdjustBudgetResponse, error)
	DecreaseBudget(context.Context, *AdjustBudgetRequest) (*AdjustBudgetResponse, error)
	GetBudget(context.Context, *GetBudgetRequest) (*GetBudgetResponse, error)
	GetOperators(context.Context, *GetOperatorsRequest) (*GetOperatorsResponse, error)
	GetOwner(context.Context, *GetOwnerRequest) (*GetOwnerResponse, error)
	IsOperator(context.Context, *IsOperatorRequest) (*IsOperatorResponse, error)
}

// RegisterBudgetGovernorServiceServer registers srv on registrar.
func RegisterBudgetGovernorServiceServer(registrar grpc.ServiceRegistrar, srv BudgetGovernorServiceServer) {
	registrar.RegisterService(&ServiceDesc, srv)
}

// ServiceDesc describes the budget governor service for grpc.Server.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*BudgetGovernorServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Initialize", Handler: unaryHandler(InitializeMethod, BudgetGovernorServiceServer.Initialize)},
		{MethodName: "AddOperator", Handler: unaryHandler(AddOperatorMethod, BudgetGovernorServiceServer.AddOperator)},
		{MethodName: "RemoveOperator", Handler: unaryHandler(RemoveOperatorMethod, BudgetGovernorServiceServer.RemoveOperator)},
		{MethodName: "IncreaseBudget", Handler: unaryHandler(IncreaseBudgetMethod, BudgetGovernorServiceServer.IncreaseBudget)},
		{MethodName: "DecreaseBudget", Handler: unaryHandler(DecreaseBudgetMethod, BudgetGovernorServiceServer.DecreaseBudget)},
		{MethodName: "GetBudget", Handler: unaryHandler(GetBudgetMethod, BudgetGovernorServiceServer.GetBudget)},
		{MethodName: "GetOperators", Handler: unaryHandler(GetOperatorsMethod, BudgetGovernorServiceServer.GetOperators)},
		{MethodName: "GetOwner", Handler: unaryHandler(GetOwnerMethod, BudgetGovernorServiceServer.GetOwner)},
		{MethodName: "IsOperator", Handler: unaryHandler(IsOperatorMethod, BudgetGovernorServiceServer.IsOperator)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "budget/v1/budget.json",
}

// unaryHandler adapts a typed server method to grpc.MethodHandler.
func unaryHandler[Req, Resp any](fullMethod string, call func(BudgetGovernorServiceServer, context.Context, *Req) (*Resp, error)) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		server := srv.(BudgetGovernorServiceServer)
		if interceptor == nil {
			return call(server, ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(server, ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}
