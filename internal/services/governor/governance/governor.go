package governance

import (
	"context"
	"errors"
	"strconv"
	"sync"

	apperrors "github.com/arywk40-hue/budget-governor/internal/platform/errors"
	"github.com/arywk40-hue/budget-governor/internal/platform/logging"
	"github.com/arywk40-hue/budget-governor/internal/services/governor/domain"
	"github.com/arywk40-hue/budget-governor/internal/services/governor/identity"
	"github.com/arywk40-hue/budget-governor/internal/services/governor/storage"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const tracerName = "github.com/arywk40-hue/budget-governor/internal/services/governor/governance"

// Locker provides mutual exclusion across processes sharing one store.
type Locker interface {
	WithLock(ctx context.Context, fn func(context.Context) error) error
}

// Option configures a Governor.
type Option func(*Governor)

// WithLocker serializes mutations through locker in addition to the
// in-process mutex.
func WithLocker(locker Locker) Option {
	return func(g *Governor) {
		g.locker = locker
	}
}

// WithLogger sets the logger for committed and rejected transitions.
func WithLogger(logger *zap.Logger) Option {
	return func(g *Governor) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithTracer overrides the tracer used for operation spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(g *Governor) {
		if tracer != nil {
			g.tracer = tracer
		}
	}
}

// Governor applies owner and operator rules to the stored budget.
type Governor struct {
	store    storage.Store
	verifier identity.Verifier
	locker   Locker
	logger   *zap.Logger
	tracer   trace.Tracer

	mu sync.RWMutex
}

// New creates a governor over store, authenticating callers with verifier.
func New(store storage.Store, verifier identity.Verifier, opts ...Option) (*Governor, error) {
	if store == nil {
		return nil, errors.New("store is required")
	}
	if verifier == nil {
		return nil, errors.New("identity verifier is required")
	}
	g := &Governor{
		store:    store,
		verifier: verifier,
		logger:   zap.NewNop(),
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	return g, nil
}

// Initialize records owner, an empty roster and the initial budget. It
// succeeds at most once.
func (g *Governor) Initialize(ctx context.Context, owner domain.Address, initial, min, max int64) (err error) {
	ctx, finish := g.start(ctx, "Initialize",
		attribute.String("governor.owner", owner.String()),
		attribute.Int64("governor.initial", initial),
		attribute.Int64("governor.min", min),
		attribute.Int64("governor.max", max),
	)
	defer func() { finish(err) }()

	return g.exclusive(ctx, func(ctx context.Context) error {
		done, err := g.initialized(ctx)
		if err != nil {
			return err
		}
		if done {
			return domain.ErrAlreadyInitialized
		}
		if err := owner.Validate(); err != nil {
			return err
		}
		budget, err := domain.NewBudget(initial, min, max)
		if err != nil {
			return err
		}
		if err := g.verifier.VerifyCaller(ctx, owner); err != nil {
			return apperrors.Wrap(apperrors.CodeNotOwner, "owner identity could not be verified", err)
		}
		if err := g.commit(ctx, map[storage.Key]any{
			storage.KeyOwner:     owner,
			storage.KeyOperators: domain.Roster{},
			storage.KeyBudget:    budget,
		}); err != nil {
			return err
		}
		logging.FromContext(ctx, g.logger).Info("governor initialized",
			zap.String("owner", owner.String()),
			zap.Int64("current", budget.Current),
			zap.Int64("min", budget.Min),
			zap.Int64("max", budget.Max),
		)
		return nil
	})
}

// AddOperator appends op to the roster. Only the owner may call it.
func (g *Governor) AddOperator(ctx context.Context, caller, op domain.Address) (err error) {
	ctx, finish := g.start(ctx, "AddOperator",
		attribute.String("governor.caller", caller.String()),
		attribute.String("governor.operator", op.String()),
	)
	defer func() { finish(err) }()

	return g.exclusive(ctx, func(ctx context.Context) error {
		if err := g.authorizeOwner(ctx, caller); err != nil {
			return err
		}
		roster, err := g.loadOperators(ctx)
		if err != nil {
			return err
		}
		next, err := roster.Add(op)
		if err != nil {
			return err
		}
		if err := g.commit(ctx, map[storage.Key]any{storage.KeyOperators: next}); err != nil {
			return err
		}
		logging.FromContext(ctx, g.logger).Info("operator added",
			zap.String("operator", op.String()),
			zap.Int("operators", next.Len()),
		)
		return nil
	})
}

// RemoveOperator deletes target from the roster, keeping the order of the
// rest. Only the owner may call it.
func (g *Governor) RemoveOperator(ctx context.Context, caller, target domain.Address) (err error) {
	ctx, finish := g.start(ctx, "RemoveOperator",
		attribute.String("governor.caller", caller.String()),
		attribute.String("governor.operator", target.String()),
	)
	defer func() { finish(err) }()

	return g.exclusive(ctx, func(ctx context.Context) error {
		if err := g.authorizeOwner(ctx, caller); err != nil {
			return err
		}
		roster, err := g.loadOperators(ctx)
		if err != nil {
			return err
		}
		next, err := roster.Remove(target)
		if err != nil {
			return err
		}
		if err := g.commit(ctx, map[storage.Key]any{storage.KeyOperators: next}); err != nil {
			return err
		}
		logging.FromContext(ctx, g.logger).Info("operator removed",
			zap.String("operator", target.String()),
			zap.Int("operators", next.Len()),
		)
		return nil
	})
}

// IncreaseBudget raises the budget by amount and returns the new value.
// Only operators may call it.
func (g *Governor) IncreaseBudget(ctx context.Context, caller domain.Address, amount int64) (int64, error) {
	return g.adjust(ctx, "IncreaseBudget", caller, amount, domain.Budget.Increase)
}

// DecreaseBudget lowers the budget by amount and returns the new value.
// Only operators may call it.
func (g *Governor) DecreaseBudget(ctx context.Context, caller domain.Address, amount int64) (int64, error) {
	return g.adjust(ctx, "DecreaseBudget", caller, amount, domain.Budget.Decrease)
}

func (g *Governor) adjust(ctx context.Context, name string, caller domain.Address, amount int64, apply func(domain.Budget, int64) (domain.Budget, error)) (current int64, err error) {
	ctx, finish := g.start(ctx, name,
		attribute.String("governor.caller", caller.String()),
		attribute.Int64("governor.amount", amount),
	)
	defer func() { finish(err) }()

	err = g.exclusive(ctx, func(ctx context.Context) error {
		if err := g.authorizeOperator(ctx, caller); err != nil {
			return err
		}
		budget, err := g.loadBudget(ctx)
		if err != nil {
			return err
		}
		next, err := apply(budget, amount)
		if err != nil {
			return err
		}
		if err := g.commit(ctx, map[storage.Key]any{storage.KeyBudget: next}); err != nil {
			return err
		}
		current = next.Current
		logging.FromContext(ctx, g.logger).Info("budget changed",
			zap.String("operation", name),
			zap.String("operator", caller.String()),
			zap.Int64("amount", amount),
			zap.Int64("previous", budget.Current),
			zap.Int64("current", next.Current),
		)
		return nil
	})
	if err != nil {
		return 0, err
	}
	trace.SpanFromContext(ctx).SetAttributes(attribute.Int64("governor.current", current))
	return current, nil
}

// Budget returns the current budget with its bounds.
func (g *Governor) Budget(ctx context.Context) (budget domain.Budget, err error) {
	ctx, finish := g.start(ctx, "Budget")
	defer func() { finish(err) }()

	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.loadBudget(ctx)
}

// Operators returns the roster in insertion order.
func (g *Governor) Operators(ctx context.Context) (operators []domain.Address, err error) {
	ctx, finish := g.start(ctx, "Operators")
	defer func() { finish(err) }()

	g.mu.RLock()
	defer g.mu.RUnlock()
	roster, err := g.loadOperators(ctx)
	if err != nil {
		return nil, err
	}
	return roster.Members(), nil
}

// Owner returns the owner recorded at initialization.
func (g *Governor) Owner(ctx context.Context) (owner domain.Address, err error) {
	ctx, finish := g.start(ctx, "Owner")
	defer func() { finish(err) }()

	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.loadOwner(ctx)
}

// IsOperator reports whether addr is on the roster.
func (g *Governor) IsOperator(ctx context.Context, addr domain.Address) (ok bool, err error) {
	ctx, finish := g.start(ctx, "IsOperator", attribute.String("governor.address", addr.String()))
	defer func() { finish(err) }()

	g.mu.RLock()
	defer g.mu.RUnlock()
	roster, err := g.loadOperators(ctx)
	if err != nil {
		return false, err
	}
	return roster.Contains(addr), nil
}

// authorizeOwner verifies caller and compares it with the stored owner.
func (g *Governor) authorizeOwner(ctx context.Context, caller domain.Address) error {
	owner, err := g.loadOwner(ctx)
	if err != nil {
		return err
	}
	if err := g.verifier.VerifyCaller(ctx, caller); err != nil {
		return apperrors.Wrap(apperrors.CodeNotOwner, domain.ErrNotOwner.Message, err)
	}
	if caller != owner {
		return domain.ErrNotOwner
	}
	return nil
}

// authorizeOperator verifies caller and looks it up in the roster.
func (g *Governor) authorizeOperator(ctx context.Context, caller domain.Address) error {
	roster, err := g.loadOperators(ctx)
	if err != nil {
		return err
	}
	if err := g.verifier.VerifyCaller(ctx, caller); err != nil {
		return apperrors.Wrap(apperrors.CodeNotOperator, domain.ErrNotOperator.Message, err)
	}
	if !roster.Contains(caller) {
		return domain.ErrNotOperator
	}
	return nil
}

// exclusive runs fn under the in-process mutex and, when configured, the
// cross-process lock.
func (g *Governor) exclusive(ctx context.Context, fn func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.locker == nil {
		return fn(ctx)
	}
	return g.locker.WithLock(ctx, fn)
}

// start opens an operation span. The returned func ends it, recording err
// and logging rejections.
func (g *Governor) start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, span := g.tracer.Start(ctx, "governor."+name, trace.WithAttributes(attrs...))
	return ctx, func(err error) {
		defer span.End()
		if err == nil {
			return
		}
		code := apperrors.CodeOf(err)
		span.SetAttributes(attribute.String("governor.error_code", string(code)))
		logger := logging.FromContext(ctx, g.logger)
		if code == apperrors.CodeUnknown {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			logger.Error("governor operation failed", zap.String("operation", name), zap.Error(err))
			return
		}
		logger.Debug("governor operation rejected",
			zap.String("operation", name),
			zap.String("code", string(code)),
			zap.String("contract_code", strconv.FormatUint(uint64(code.ContractCode()), 10)),
			zap.Error(err),
		)
	}
}
