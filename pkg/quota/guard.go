package quota

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"mercator-hq/ganymede/pkg/quota/storage"
)

// Guard admits or rejects requests per identity using token buckets.
// Buckets are created lazily at full capacity on first sight of an
// identity and swept after a long idle period to bound memory on
// churny identity sets.
//
// The guard holds no reference to anything downstream: a rejection
// costs one map lookup and some arithmetic, never an external call.
//
// All bucket state sits behind a single mutex. Check performs its
// refill, the availability check, and the decrement under that one
// lock, so two racing checks for the same identity can never both
// consume the last token.
type Guard struct {
	config  Config
	logger  *slog.Logger
	store   storage.Store
	metrics *Metrics

	mu      sync.Mutex
	buckets map[string]*bucket

	done      chan struct{}
	closeOnce sync.Once
}

// Option customizes a Guard.
type Option func(*Guard)

// WithStore attaches a usage ledger. Every decision is recorded there
// after it is made; ledger failures are logged and never affect the
// decision. The caller retains ownership of the store and closes it.
func WithStore(store storage.Store) Option {
	return func(g *Guard) { g.store = store }
}

// WithMetrics attaches Prometheus metrics.
func WithMetrics(m *Metrics) Option {
	return func(g *Guard) { g.metrics = m }
}

// WithLogger overrides the default logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Guard) { g.logger = logger }
}

// NewGuard creates a guard and starts its background sweeper. Call
// Close to stop the sweeper.
func NewGuard(config Config, opts ...Option) *Guard {
	g := &Guard{
		config:  config.withDefaults(),
		logger:  slog.Default().With("component", "quota"),
		buckets: make(map[string]*bucket),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(g)
	}

	go g.sweepLoop()

	return g
}

// Check consumes one token for the identity if available and returns
// the decision. An identity never seen before starts with a full
// bucket. The decision always carries the remaining count and a reset
// hint, admitted or not.
func (g *Guard) Check(ctx context.Context, identity string) Decision {
	now := time.Now()

	g.mu.Lock()
	b, ok := g.buckets[identity]
	if !ok {
		b = newBucket(g.config.MaxTokens, now)
		g.buckets[identity] = b
	}

	b.refill(now, g.config.MaxTokens, g.config.RefillInterval)
	allowed := b.take()

	decision := Decision{
		Allowed:   allowed,
		Limit:     g.config.MaxTokens,
		Remaining: b.tokens,
		ResetHint: b.resetHint(now, g.config.MaxTokens, g.config.RefillInterval),
	}
	size := len(g.buckets)
	g.mu.Unlock()

	if g.metrics != nil {
		g.metrics.RecordCheck(allowed)
		g.metrics.UpdateActiveBuckets(size)
	}

	if !allowed {
		g.logger.Debug("quota rejected",
			"identity", identity,
			"retry_after_ms", decision.ResetHint.Milliseconds(),
		)
	}

	if g.store != nil {
		if err := g.store.RecordDecision(ctx, identity, allowed); err != nil {
			g.logger.Warn("failed to record quota decision", "error", err)
		}
	}

	return decision
}

// Len returns the number of live buckets.
func (g *Guard) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.buckets)
}

// Close stops the background sweeper. It does not close an attached
// usage store.
func (g *Guard) Close() {
	g.closeOnce.Do(func() {
		close(g.done)
	})
}

// sweepLoop periodically removes buckets whose last refill is older
// than the staleness threshold. A bucket untouched that long would
// refill to capacity on its next check anyway, so dropping it is
// equivalent to the fresh full bucket an unknown identity gets.
func (g *Guard) sweepLoop() {
	ticker := time.NewTicker(g.config.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			swept := g.sweep(time.Now())
			if swept > 0 {
				g.logger.Debug("swept stale quota buckets", "count", swept)
			}
		case <-g.done:
			return
		}
	}
}

// sweep removes stale buckets and returns how many were removed.
func (g *Guard) sweep(now time.Time) int {
	g.mu.Lock()
	swept := 0
	for identity, b := range g.buckets {
		if now.Sub(b.lastRefill) > g.config.StaleAfter {
			delete(g.buckets, identity)
			swept++
		}
	}
	size := len(g.buckets)
	g.mu.Unlock()

	if g.metrics != nil && swept > 0 {
		g.metrics.RecordSwept(swept)
		g.metrics.UpdateActiveBuckets(size)
	}

	return swept
}
