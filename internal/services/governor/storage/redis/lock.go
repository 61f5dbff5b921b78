package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/arywk40-hue/budget-governor/internal/platform/timeouts"
	"github.com/go-redsync/redsync/v4"
	redsyncgoredis "github.com/go-redsync/redsync/v4/redis/goredis/v9"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// LockOptions configures lock acquisition.
type LockOptions struct {
	Expiry     time.Duration
	Tries      int
	RetryDelay time.Duration
}

// DefaultLockOptions returns options sized for one governor operation.
func DefaultLockOptions() LockOptions {
	return LockOptions{
		Expiry:     8 * time.Second,
		Tries:      32,
		RetryDelay: 50 * time.Millisecond,
	}
}

// Locker serializes governor read-modify-write sequences across every process
// sharing the same Redis namespace.
type Locker struct {
	redsync *redsync.Redsync
	name    string
	opts    LockOptions
	logger  *zap.Logger
}

// NewLocker creates a RedLock locker for namespace. A nil logger discards
// release warnings.
func NewLocker(client goredis.UniversalClient, namespace string, opts LockOptions, logger *zap.Logger) (*Locker, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	if opts.Expiry <= 0 {
		return nil, errors.New("lock expiry must be greater than 0")
	}
	if opts.Tries < 1 {
		return nil, errors.New("lock tries must be at least 1")
	}
	if opts.RetryDelay < 0 {
		return nil, errors.New("lock retry delay cannot be negative")
	}
	if namespace == "" {
		namespace = DefaultNamespace
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Locker{
		redsync: redsync.New(redsyncgoredis.NewPool(client)),
		name:    namespace + ":lock",
		opts:    opts,
		logger:  logger,
	}, nil
}

// WithLock runs fn while holding the namespace lock. Release failures are
// logged, not returned; the lock expires on its own.
func (l *Locker) WithLock(ctx context.Context, fn func(context.Context) error) error {
	if l == nil || l.redsync == nil {
		return errors.New("locker is not configured")
	}
	if fn == nil {
		return errors.New("lock function is required")
	}

	mutex := l.redsync.NewMutex(
		l.name,
		redsync.WithExpiry(l.opts.Expiry),
		redsync.WithTries(l.opts.Tries),
		redsync.WithRetryDelay(l.opts.RetryDelay),
	)
	if err := mutex.LockContext(ctx); err != nil {
		return fmt.Errorf("acquire governor lock: %w", err)
	}
	defer func() {
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeouts.LockRelease)
		defer cancel()
		ok, err := mutex.UnlockContext(releaseCtx)
		if err != nil {
			l.logger.Warn("release governor lock", zap.String("lock", l.name), zap.Error(err))
		} else if !ok {
			l.logger.Warn("governor lock expired before release", zap.String("lock", l.name))
		}
	}()

	return fn(ctx)
}
