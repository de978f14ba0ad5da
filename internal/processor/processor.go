// Package processor orchestrates query cycles across user identities. Each
// identity owns its own session tracker and query helper; cycles for one
// identity are serialized, cycles for different identities may run in
// parallel.
package processor

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/thebtf/rapport/internal/checkpoint"
	"github.com/thebtf/rapport/internal/usage"
	"github.com/thebtf/rapport/pkg/models"
)

// SourceFunc supplies the raw event source for one user identity.
type SourceFunc func(userID string) usage.EventSource

// UserStatus is a point-in-time snapshot of one identity's processing state.
type UserStatus struct {
	UserID       string `json:"user_id"`
	Watermark    int64  `json:"watermark"`
	OpenSessions int    `json:"open_sessions"`
}

// Processor owns one runner per user identity and advances each identity's
// checkpoint after productive cycles.
type Processor struct {
	resolver    usage.Resolver
	store       usage.EventAppender
	checkpoints checkpoint.Store
	sources     SourceFunc
	metrics     *cycleMetrics

	mu      sync.Mutex
	runners map[string]*runner
}

// runner is the per-identity processing context. Its mutex serializes
// cycles: one cycle fully completes, including all appends, before the next
// begins for the same identity, so pending-session state never races.
type runner struct {
	mu      sync.Mutex
	tracker *usage.SessionTracker
	helper  *usage.QueryHelper
}

// New creates a processor.
func New(resolver usage.Resolver, store usage.EventAppender, checkpoints checkpoint.Store, sources SourceFunc) *Processor {
	p := &Processor{
		resolver:    resolver,
		checkpoints: checkpoints,
		sources:     sources,
		runners:     make(map[string]*runner),
		metrics:     newCycleMetrics(),
	}
	p.store = p.metrics.wrapAppender(store)
	return p
}

// RunCycle executes one query cycle for a user identity: fetch everything
// since the stored checkpoint, classify it, and advance the checkpoint to
// the new watermark iff the cycle was productive. Returns whether at least
// one event was delivered.
func (p *Processor) RunCycle(ctx context.Context, userID string) (bool, error) {
	r := p.runner(userID)
	r.mu.Lock()
	defer r.mu.Unlock()

	cycleID := uuid.NewString()
	since, err := p.checkpoints.Get(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("load checkpoint for %s: %w", userID, err)
	}

	productive := r.helper.RunSince(ctx, since)
	p.metrics.recordCycle(ctx, productive)
	if !productive {
		return false, nil
	}

	watermark := r.helper.LastObservedTimestamp()
	if err := p.checkpoints.Set(ctx, userID, watermark); err != nil {
		// The cycle itself succeeded; a failed checkpoint write only
		// means the next cycle re-reads tolerated duplicates.
		log.Warn().Err(err).Str("user_id", userID).Str("cycle_id", cycleID).
			Msg("Failed to persist checkpoint")
	}
	log.Debug().
		Str("user_id", userID).
		Str("cycle_id", cycleID).
		Int64("since", since).
		Int64("watermark", watermark).
		Msg("Query cycle completed")
	return true, nil
}

// RunAll runs one cycle for every known identity, in parallel across
// identities. The first error is returned after all cycles finish.
func (p *Processor) RunAll(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, userID := range p.Users() {
		userID := userID
		g.Go(func() error {
			_, err := p.RunCycle(ctx, userID)
			return err
		})
	}
	return g.Wait()
}

// EnsureUser creates the processing context for an identity if it does not
// exist yet. Ingesting events or triggering a cycle does this implicitly.
func (p *Processor) EnsureUser(userID string) {
	p.runner(userID)
}

// Users returns the identities with a processing context, unordered.
func (p *Processor) Users() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	users := make([]string, 0, len(p.runners))
	for userID := range p.runners {
		users = append(users, userID)
	}
	return users
}

// Status reports per-identity watermarks and open session counts.
func (p *Processor) Status() []UserStatus {
	p.mu.Lock()
	runners := make(map[string]*runner, len(p.runners))
	for userID, r := range p.runners {
		runners[userID] = r
	}
	p.mu.Unlock()

	out := make([]UserStatus, 0, len(runners))
	for userID, r := range runners {
		r.mu.Lock()
		out = append(out, UserStatus{
			UserID:       userID,
			Watermark:    r.helper.LastObservedTimestamp(),
			OpenSessions: r.tracker.Len(),
		})
		r.mu.Unlock()
	}
	return out
}

// DerivedEvents reports the number of derived events appended since start.
func (p *Processor) DerivedEvents() int64 {
	return p.metrics.derivedTotal.Load()
}

func (p *Processor) runner(userID string) *runner {
	p.mu.Lock()
	defer p.mu.Unlock()
	if r, ok := p.runners[userID]; ok {
		return r
	}
	tracker := usage.NewSessionTracker()
	classifier := usage.NewClassifier(p.resolver, tracker, p.store)
	r := &runner{
		tracker: tracker,
		helper:  usage.NewQueryHelper(userID, p.sources(userID), classifier),
	}
	p.runners[userID] = r
	return r
}

var _ usage.EventAppender = (*countingAppender)(nil)

// countingAppender decorates the aggregate store to count successful appends.
type countingAppender struct {
	inner   usage.EventAppender
	metrics *cycleMetrics
}

func (c *countingAppender) AppendEvent(agg usage.Aggregate, category models.EventCategory, key string, ev models.ConversationEvent) error {
	if err := c.inner.AppendEvent(agg, category, key, ev); err != nil {
		return err
	}
	c.metrics.recordDerived(category)
	return nil
}
