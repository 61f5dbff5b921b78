// Package server wires the budget governor runtime and gRPC lifecycle.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/arywk40-hue/budget-governor/internal/platform/config"
	"github.com/arywk40-hue/budget-governor/internal/platform/logging"
	"github.com/arywk40-hue/budget-governor/internal/platform/timeouts"
	budgetservice "github.com/arywk40-hue/budget-governor/internal/services/governor/api/grpc/budget"
	"github.com/arywk40-hue/budget-governor/internal/services/governor/governance"
	"github.com/arywk40-hue/budget-governor/internal/services/governor/identity"
	"github.com/arywk40-hue/budget-governor/internal/services/governor/storage"
	governorredis "github.com/arywk40-hue/budget-governor/internal/services/governor/storage/redis"
	governorsqlite "github.com/arywk40-hue/budget-governor/internal/services/governor/storage/sqlite"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"
)

// Store backends selectable with BUDGET_GOVERNOR_STORE.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
)

type serverEnv struct {
	Store          string        `env:"BUDGET_GOVERNOR_STORE" envDefault:"sqlite"`
	DBPath         string        `env:"BUDGET_GOVERNOR_DB_PATH"`
	RedisAddr      string        `env:"BUDGET_GOVERNOR_REDIS_ADDR" envDefault:"127.0.0.1:6379"`
	RedisPassword  string        `env:"BUDGET_GOVERNOR_REDIS_PASSWORD"`
	RedisDB        int           `env:"BUDGET_GOVERNOR_REDIS_DB"`
	RedisNamespace string        `env:"BUDGET_GOVERNOR_REDIS_NAMESPACE"`
	LockExpiry     time.Duration `env:"BUDGET_GOVERNOR_LOCK_EXPIRY" envDefault:"8s"`
	ProofAudience  string        `env:"BUDGET_GOVERNOR_PROOF_AUDIENCE" envDefault:"budget-governor"`
	ProofMaxAge    time.Duration `env:"BUDGET_GOVERNOR_PROOF_MAX_AGE" envDefault:"2m"`
}

func loadServerEnv() (serverEnv, error) {
	var cfg serverEnv
	if err := config.ParseEnv(&cfg); err != nil {
		return serverEnv{}, err
	}
	cfg.Store = strings.ToLower(strings.TrimSpace(cfg.Store))
	if strings.TrimSpace(cfg.DBPath) == "" {
		cfg.DBPath = filepath.Join("data", "governor.db")
	}
	return cfg, nil
}

// Server hosts the budget governor gRPC API and storage lifecycle.
type Server struct {
	listener   net.Listener
	grpcServer *grpc.Server
	health     *health.Server
	logger     *zap.Logger
	closers    []func() error
}

// New creates a configured governor server listening on the provided port.
func New(ctx context.Context, port int, logger *zap.Logger) (*Server, error) {
	return NewWithAddr(ctx, fmt.Sprintf(":%d", port), logger)
}

// NewWithAddr creates a configured governor server for the provided address.
func NewWithAddr(ctx context.Context, addr string, logger *zap.Logger) (*Server, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	env, err := loadServerEnv()
	if err != nil {
		return nil, err
	}
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}
	srv := &Server{listener: listener, logger: logger}

	store, err := srv.openStore(ctx, env)
	if err != nil {
		srv.Close()
		return nil, err
	}
	verifier, err := identity.NewProofVerifier(identity.ProofConfig{
		Audience: env.ProofAudience,
		MaxAge:   env.ProofMaxAge,
		Replay:   store.replay,
	})
	if err != nil {
		srv.Close()
		return nil, fmt.Errorf("configure proof verifier: %w", err)
	}
	opts := append(store.options, governance.WithLogger(logger))
	governor, err := governance.New(store.store, verifier, opts...)
	if err != nil {
		srv.Close()
		return nil, err
	}

	srv.grpcServer = grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.UnaryInterceptor(budgetservice.ProofInterceptor()),
	)
	srv.health = health.NewServer()
	budgetservice.RegisterBudgetGovernorServiceServer(srv.grpcServer, budgetservice.NewService(governor, logger))
	grpc_health_v1.RegisterHealthServer(srv.grpcServer, srv.health)
	srv.health.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	srv.health.SetServingStatus(budgetservice.ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

	logger.Info("governor configured",
		zap.String("store", env.Store),
		zap.String("proof_audience", env.ProofAudience),
		zap.Duration("proof_max_age", env.ProofMaxAge),
	)
	return srv, nil
}

// backend is an opened store with the collaborators it contributes.
type backend struct {
	store   storage.Store
	options []governance.Option
	// replay is nil for single-process backends, which use the in-memory guard.
	replay identity.ReplayGuard
}

// openStore opens the configured backend and registers its closers. The
// Redis backend also contributes a cross-process locker and replay guard.
func (s *Server) openStore(ctx context.Context, env serverEnv) (backend, error) {
	switch env.Store {
	case StoreMemory:
		return backend{store: storage.NewMemoryStore()}, nil
	case StoreSQLite, "":
		store, err := openSQLiteStore(env.DBPath)
		if err != nil {
			return backend{}, err
		}
		s.closers = append(s.closers, store.Close)
		return backend{store: store}, nil
	case StoreRedis:
		dialCtx, cancel := context.WithTimeout(ctx, timeouts.GRPCDial)
		defer cancel()
		client, err := governorredis.Dial(dialCtx, env.RedisAddr, env.RedisPassword, env.RedisDB)
		if err != nil {
			return backend{}, fmt.Errorf("open redis store: %w", err)
		}
		s.closers = append(s.closers, client.Close)
		store, err := governorredis.New(client, env.RedisNamespace)
		if err != nil {
			return backend{}, err
		}
		lockOpts := governorredis.DefaultLockOptions()
		lockOpts.Expiry = env.LockExpiry
		locker, err := governorredis.NewLocker(client, store.Namespace(), lockOpts, s.logger)
		if err != nil {
			return backend{}, err
		}
		replay, err := governorredis.NewReplayGuard(client, store.Namespace())
		if err != nil {
			return backend{}, err
		}
		return backend{
			store:   store,
			options: []governance.Option{governance.WithLocker(locker)},
			replay:  replay,
		}, nil
	default:
		return backend{}, fmt.Errorf("unknown store backend %q", env.Store)
	}
}

// Addr returns the listener address for the server.
func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Run creates and serves a governor server until context cancellation.
func Run(ctx context.Context, port int, logger *zap.Logger) error {
	server, err := New(ctx, port, logger)
	if err != nil {
		return err
	}
	return server.Serve(ctx)
}

// Serve starts the gRPC server until context cancellation.
func (s *Server) Serve(ctx context.Context) error {
	if s == nil || s.grpcServer == nil {
		return errors.New("server is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	defer s.Close()

	logging.FromContext(ctx, s.logger).Info("governor server listening", zap.String("addr", s.Addr()))
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.grpcServer.Serve(s.listener)
	}()

	select {
	case <-ctx.Done():
		s.health.Shutdown()
		s.gracefulStop()
		err := <-serveErr
		if err == nil || errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return fmt.Errorf("serve gRPC: %w", err)
	case err := <-serveErr:
		if err == nil || errors.Is(err, grpc.ErrServerStopped) {
			return nil
		}
		return fmt.Errorf("serve gRPC: %w", err)
	}
}

// gracefulStop drains in-flight calls, forcing a stop after timeouts.Shutdown.
func (s *Server) gracefulStop() {
	done := make(chan struct{})
	go func() {
		s.grpcServer.GracefulStop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(timeouts.Shutdown):
		s.logger.Warn("graceful stop timed out; forcing stop")
		s.grpcServer.Stop()
	}
}

// Close releases governor server resources.
func (s *Server) Close() {
	if s == nil {
		return
	}
	if s.health != nil {
		s.health.Shutdown()
	}
	if s.grpcServer != nil {
		s.grpcServer.Stop()
	}
	if s.listener != nil {
		_ = s.listener.Close()
	}
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			s.logger.Warn("close governor store", zap.Error(err))
		}
	}
	s.closers = nil
}

func openSQLiteStore(path string) (*governorsqlite.Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}
	store, err := governorsqlite.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open governor sqlite store: %w", err)
	}
	return store, nil
}
