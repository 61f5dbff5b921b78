package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// minReplayTTL keeps near-expired ids long enough to reject a racing replay.
const minReplayTTL = time.Second

// ReplayGuard records accepted proof ids in Redis so every process sharing
// the namespace rejects the same replay.
type ReplayGuard struct {
	client    goredis.UniversalClient
	namespace string
	now       func() time.Time
}

// NewReplayGuard wraps client. An empty namespace uses DefaultNamespace.
func NewReplayGuard(client goredis.UniversalClient, namespace string) (*ReplayGuard, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	namespace = strings.TrimSpace(namespace)
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &ReplayGuard{client: client, namespace: namespace, now: time.Now}, nil
}

func (g *ReplayGuard) proofKey(id string) string {
	return g.namespace + ":proof:" + id
}

// Use stores id with SET NX until expires. It reports false when the id is
// already present.
func (g *ReplayGuard) Use(ctx context.Context, id string, expires time.Time) (bool, error) {
	if g == nil || g.client == nil {
		return false, fmt.Errorf("replay guard is not configured")
	}
	if strings.TrimSpace(id) == "" {
		return false, errors.New("proof id is required")
	}
	ttl := max(expires.Sub(g.now()), minReplayTTL)
	fresh, err := g.client.SetNX(ctx, g.proofKey(id), 1, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("record proof id: %w", err)
	}
	return fresh, nil
}
