package switchyard

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/aretw0/switchyard/internal/graph"
	"github.com/aretw0/switchyard/internal/index"
	"github.com/aretw0/switchyard/internal/logging"
	"github.com/aretw0/switchyard/pkg/domain"
	"github.com/aretw0/switchyard/pkg/observability"
	"github.com/aretw0/switchyard/pkg/ports"
)

// Bin is the auto-routing element. It owns the factory index, the
// endpoints and the live graph; one structural lock plus a condition
// variable serialize endpoint changes, planning and graph swaps against
// the streaming threads.
type Bin struct {
	mu    sync.Mutex
	cond  *sync.Cond
	state domain.BuildState

	policy ports.Policy
	host   ports.Host
	idx    *index.Index

	inputs  []*Input
	outputs []*Output

	live    *graph.Live
	plan    *domain.Plan
	planned bool
	fatal   error

	pendingDrain map[string]struct{}

	maxChainLength int
	exhaustive     bool
	klassOrdering  bool
	store          ports.PlanStore
	metrics        *observability.Metrics
	logger         *slog.Logger
}

// Option defines a functional option for configuring the Bin.
type Option func(*Bin)

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bin) { b.logger = logger }
}

// WithMaxChainLength overrides the chain length bound.
func WithMaxChainLength(n int) Option {
	return func(b *Bin) { b.maxChainLength = n }
}

// WithPlanStore enables plan caching: selected plans are stored under a
// signature of the configuration and reused when the same configuration
// comes back.
func WithPlanStore(store ports.PlanStore) Option {
	return func(b *Bin) { b.store = store }
}

// WithMetrics registers planning and rebuild metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(b *Bin) { b.metrics = m }
}

// WithKlassOrdering enables the class-ordering chain validator
// (parser, decoder, converter, encoder stages must not run backwards).
func WithKlassOrdering() Option {
	return func(b *Bin) { b.klassOrdering = true }
}

// WithExhaustiveSearch explores every chain length up to the bound for
// each route instead of stopping at the first productive length, letting
// the selector choose among more alternatives at higher planning cost.
func WithExhaustiveSearch() Option {
	return func(b *Bin) { b.exhaustive = true }
}

// New creates a Bin and indexes the policy's factory catalog.
// The policy must provide GetFactories; domain.ErrNoCatalog is returned
// otherwise.
func New(policy ports.Policy, host ports.Host, opts ...Option) (*Bin, error) {
	if policy.GetFactories == nil {
		return nil, domain.ErrNoCatalog
	}

	b := &Bin{
		policy:         policy,
		host:           host,
		state:          domain.StateIdle,
		maxChainLength: domain.DefaultMaxChainLength,
		logger:         logging.NewNop(),
	}
	b.cond = sync.NewCond(&b.mu)

	for _, opt := range opts {
		opt(b)
	}

	b.idx = index.Build(policy.GetFactories())
	b.logger.Debug("factory catalog indexed", "entries", b.idx.Len())
	return b, nil
}

// Reindex rebuilds the factory index from the policy catalog. The caller
// triggers this explicitly when the catalog changed; entries are otherwise
// immutable.
func (b *Bin) Reindex() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.idx = index.Build(b.policy.GetFactories())
	b.logger.Debug("factory catalog reindexed", "entries", b.idx.Len())
}

// AddInput adds an input endpoint with a stable identity.
func (b *Bin) AddInput(id string) (*Input, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, in := range b.inputs {
		if in.id == id {
			return nil, fmt.Errorf("input %q already exists", id)
		}
	}
	in := &Input{bin: b, id: id}
	b.inputs = append(b.inputs, in)
	return in, nil
}

// AddOutput adds an output endpoint delivering into the downstream pad,
// which advertises the consumer's acceptable caps.
func (b *Bin) AddOutput(id string, downstream ports.Pad) (*Output, error) {
	if downstream == nil {
		return nil, fmt.Errorf("output %q needs a downstream pad", id)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, out := range b.outputs {
		if out.id == id {
			return nil, fmt.Errorf("output %q already exists", id)
		}
	}
	out := &Output{bin: b, id: id, downstream: downstream}
	out.proxy = &outputProxy{out: out}
	b.outputs = append(b.outputs, out)
	return out, nil
}

// RemoveInput removes an input endpoint. The live graph is not touched;
// the caller follows up with Reset or relies on reconfiguration.
func (b *Bin) RemoveInput(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, in := range b.inputs {
		if in.id == id {
			b.inputs = append(b.inputs[:i], b.inputs[i+1:]...)
			return
		}
	}
}

// RemoveOutput removes an output endpoint.
func (b *Bin) RemoveOutput(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, out := range b.outputs {
		if out.id == id {
			out.proxy.Unlink()
			b.outputs = append(b.outputs[:i], b.outputs[i+1:]...)
			return
		}
	}
}

// Reset tears down the live graph and forgets every input's declared
// caps; the next time all inputs have declared caps again, a fresh
// planning pass runs.
func (b *Bin) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.clearGraphLocked()
	b.planned = false
	b.plan = nil
	b.fatal = nil
	for _, in := range b.inputs {
		in.resetLocked()
	}
	for _, out := range b.outputs {
		out.needsReconfigure.Store(false)
	}
}

// Plan returns the most recently committed plan, or nil before the first
// planning pass.
func (b *Bin) Plan() *domain.Plan {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.plan
}

// Err returns the sticky fatal error from a failed graph commit, if any.
func (b *Bin) Err() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.fatal
}

// State returns the rebuild state, for introspection.
func (b *Bin) State() domain.BuildState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// checkSinkBlock parks the calling streaming thread until the bin is
// idle. Input-side operations call this before touching the graph.
func (b *Bin) checkSinkBlock() {
	b.mu.Lock()
	for b.state != domain.StateIdle {
		b.cond.Wait()
	}
	b.mu.Unlock()
}

// needsReconfigure reports whether any output has latched a
// reconfiguration request.
func (b *Bin) needsReconfigure() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, out := range b.outputs {
		if out.needsReconfigure.Load() {
			return true
		}
	}
	return false
}
