package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/goliatone/go-formflow/pkg/defaults"
	"github.com/goliatone/go-formflow/pkg/descriptor"
	"github.com/goliatone/go-formflow/pkg/validation"
)

// State enumerates the re-hydration lifecycle.
type State int

const (
	StateIdle State = iota
	StatePendingDebounce
	StateFetching
	StateApplying
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePendingDebounce:
		return "pending-debounce"
	case StateFetching:
		return "fetching"
	case StateApplying:
		return "applying"
	default:
		return "unknown"
	}
}

// Snapshot is the consumer-visible output of the pipeline. Merge and compile
// results swap in atomically; no interleaved partial state is observable.
type Snapshot struct {
	Descriptor descriptor.Descriptor
	Schema     validation.Schema
	Seq        uint64
}

const defaultDebounce = 300 * time.Millisecond

// RehydratorOption customises a Rehydrator.
type RehydratorOption func(*Rehydrator)

// WithDebounce overrides the debounce window applied to discriminant edits.
func WithDebounce(window time.Duration) RehydratorOption {
	return func(r *Rehydrator) {
		if window > 0 {
			r.debounce = window
		}
	}
}

// WithOnApply registers a callback invoked with every accepted snapshot.
func WithOnApply(fn func(Snapshot)) RehydratorOption {
	return func(r *Rehydrator) {
		r.onApply = fn
	}
}

// withTimer injects the timer factory. Tests drive debounce expiry manually.
func withTimer(after func(time.Duration, func()) *time.Timer) RehydratorOption {
	return func(r *Rehydrator) {
		r.after = after
	}
}

// Rehydrator is the explicit state machine behind rule re-hydration:
// Idle → PendingDebounce → Fetching → Applying → Idle. Every discriminant
// edit bumps a monotonically increasing sequence number; a fetched delta is
// applied only when its sequence is still the latest issued, so stale
// responses are discarded rather than raced.
type Rehydrator struct {
	engine   *Engine
	resolved descriptor.Descriptor
	debounce time.Duration
	after    func(time.Duration, func()) *time.Timer
	onApply  func(Snapshot)

	mu      sync.Mutex
	state   State
	seq     uint64
	caseCtx descriptor.CaseContext
	pending descriptor.CaseContext
	timer   *time.Timer
	current Snapshot
}

// NewRehydrator compiles the initial schema for the resolved descriptor and
// returns a machine in the Idle state.
func NewRehydrator(engine *Engine, resolved descriptor.Descriptor, options ...RehydratorOption) (*Rehydrator, error) {
	schema, err := engine.CompileSchema(resolved)
	if err != nil {
		return nil, err
	}
	r := &Rehydrator{
		engine:   engine,
		resolved: resolved,
		debounce: defaultDebounce,
		after:    time.AfterFunc,
		current:  Snapshot{Descriptor: resolved, Schema: schema},
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(r)
	}
	return r, nil
}

// Snapshot returns the current merged descriptor and compiled schema.
func (r *Rehydrator) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// State reports the machine state.
func (r *Rehydrator) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// ValuesChanged feeds the live form values into the machine. When the
// discriminant context derived from them differs from the last submitted one
// a debounce window starts; edits arriving inside the window supersede the
// pending one (last edit wins). The returned sequence identifies the pending
// fetch; zero means the values did not change the context.
func (r *Rehydrator) ValuesChanged(formValues map[string]any) uint64 {
	next := r.engine.UpdateCaseContext(r.resolved, r.snapshotCaseCtx(), formValues)

	r.mu.Lock()
	defer r.mu.Unlock()

	if !defaults.HasContextChanged(r.pendingOrCurrent(), next) {
		return 0
	}

	r.seq++
	seq := r.seq
	r.pending = next
	r.state = StatePendingDebounce

	if r.timer != nil {
		r.timer.Stop()
	}
	r.timer = r.after(r.debounce, func() {
		r.debounceElapsed(seq)
	})
	return seq
}

func (r *Rehydrator) snapshotCaseCtx() descriptor.CaseContext {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pendingOrCurrent().Clone()
}

func (r *Rehydrator) pendingOrCurrent() descriptor.CaseContext {
	if r.pending != nil {
		return r.pending
	}
	return r.caseCtx
}

func (r *Rehydrator) debounceElapsed(seq uint64) {
	r.mu.Lock()
	if seq != r.seq || r.state != StatePendingDebounce {
		// A newer edit superseded this window.
		r.mu.Unlock()
		return
	}
	r.state = StateFetching
	submitted := r.pending.Clone()
	r.mu.Unlock()

	go r.fetch(context.Background(), seq, submitted)
}

func (r *Rehydrator) fetch(ctx context.Context, seq uint64, cc descriptor.CaseContext) {
	provider := r.engine.ruleProvider
	if provider == nil {
		r.Apply(seq, descriptor.RuleDelta{})
		return
	}
	delta, err := provider.Rules(ctx, cc)
	if err != nil {
		r.engine.logger.Printf("formflow: rule fetch failed (seq %d): %v", seq, err)
		r.mu.Lock()
		if seq == r.seq {
			r.state = StateIdle
		}
		r.mu.Unlock()
		return
	}
	r.Apply(seq, delta)
}

// Apply merges a fetched delta and recompiles the schema, swapping the
// snapshot atomically. A response whose sequence is no longer the latest is
// discarded and Apply reports false.
func (r *Rehydrator) Apply(seq uint64, delta descriptor.RuleDelta) bool {
	r.mu.Lock()
	if seq != r.seq {
		r.mu.Unlock()
		return false
	}
	r.state = StateApplying
	submitted := r.pending
	r.mu.Unlock()

	merged := r.engine.MergeRules(r.resolved, delta)
	schema, err := r.engine.CompileSchema(merged)

	r.mu.Lock()
	defer r.mu.Unlock()
	if seq != r.seq {
		return false
	}
	if err != nil {
		r.engine.logger.Printf("formflow: schema compile failed (seq %d): %v", seq, err)
		r.state = StateIdle
		return false
	}
	r.current = Snapshot{Descriptor: merged, Schema: schema, Seq: seq}
	if submitted != nil {
		r.caseCtx = submitted
		r.pending = nil
	}
	r.state = StateIdle
	if r.onApply != nil {
		r.onApply(r.current)
	}
	return true
}

// Flush short-circuits a pending debounce window, submitting the pending
// context immediately. It reports the sequence that was flushed, or zero when
// nothing was pending.
func (r *Rehydrator) Flush(ctx context.Context) uint64 {
	r.mu.Lock()
	if r.state != StatePendingDebounce {
		r.mu.Unlock()
		return 0
	}
	if r.timer != nil {
		r.timer.Stop()
	}
	seq := r.seq
	r.state = StateFetching
	submitted := r.pending.Clone()
	r.mu.Unlock()

	r.fetch(ctx, seq, submitted)
	return seq
}
