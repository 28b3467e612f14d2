package switchyard

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aretw0/switchyard/internal/chaingen"
	"github.com/aretw0/switchyard/internal/graph"
	"github.com/aretw0/switchyard/internal/planner"
	"github.com/aretw0/switchyard/internal/sandbox"
	"github.com/aretw0/switchyard/pkg/caps"
	"github.com/aretw0/switchyard/pkg/domain"
	"github.com/aretw0/switchyard/pkg/ports"
)

// handleInputCaps records the declared caps of an input. The first time
// every input has concrete caps, the initial planning pass runs; later
// changes latch a reconfiguration request on every output instead.
func (b *Bin) handleInputCaps(in *Input, e ports.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if caps.Equal(in.caps, e.Caps) {
		return
	}
	in.caps = e.Caps
	in.sticky = upsertSticky(in.sticky, e)

	for _, other := range b.inputs {
		if other.caps.IsEmpty() {
			return
		}
	}

	if !b.planned {
		b.buildGraphLocked()
		b.planned = true
		return
	}
	for _, out := range b.outputs {
		out.needsReconfigure.Store(true)
	}
}

func upsertSticky(sticky []ports.Event, e ports.Event) []ports.Event {
	for i, s := range sticky {
		if s.Type == e.Type {
			sticky[i] = e
			return sticky
		}
	}
	return append(sticky, e)
}

// dispatchEvent forwards an event into the live graph. Events arriving
// before a graph exists are absorbed; sticky ones replay at build time.
func (b *Bin) dispatchEvent(in *Input, e ports.Event) bool {
	b.mu.Lock()
	target := in.target
	b.mu.Unlock()

	if target == nil {
		return e.Sticky()
	}
	return target.PushEvent(e)
}

// dispatchBuffer forwards a buffer into the live graph. The caller has
// already cleared the sink block; the lock is not held across the push.
func (b *Bin) dispatchBuffer(in *Input, buf ports.Buffer) error {
	b.mu.Lock()
	target := in.target
	b.mu.Unlock()

	if target == nil {
		return fmt.Errorf("input %q: not negotiated", in.id)
	}
	return target.Push(buf)
}

// rebuild runs the drain protocol: mark the connected outputs as awaiting
// drain, inject the drain marker into every live input, and hand over to
// graphDrained once the last acknowledgment arrives. Reentrant calls while
// a rebuild is in flight coalesce into waiting for it.
func (b *Bin) rebuild() {
	b.mu.Lock()
	if b.state != domain.StateIdle {
		b.mu.Unlock()
		b.checkSinkBlock()
		return
	}
	b.state = domain.StateDraining
	b.logger.Debug("rebuild: draining")

	b.pendingDrain = make(map[string]struct{})
	for _, out := range b.outputs {
		if out.proxy.Peer() != nil || out.fedDirectlyLocked() {
			b.pendingDrain[out.id] = struct{}{}
		}
	}

	targets := make([]ports.Pad, 0, len(b.inputs))
	for _, in := range b.inputs {
		if in.target != nil {
			targets = append(targets, in.target)
		}
	}
	awaiting := len(b.pendingDrain) > 0
	b.mu.Unlock()

	if awaiting {
		for _, t := range targets {
			t.PushEvent(ports.Event{Type: ports.EventDrain})
		}
	} else {
		// Nothing can acknowledge a drain; swap immediately.
		b.graphDrained()
	}
}

// drainAck consumes one output's drain acknowledgment. Returns true when
// the event must be dropped rather than forwarded downstream.
func (b *Bin) drainAck(out *Output) bool {
	b.mu.Lock()
	if b.state != domain.StateDraining {
		b.mu.Unlock()
		return false
	}
	if _, ok := b.pendingDrain[out.id]; !ok {
		b.mu.Unlock()
		return false
	}
	delete(b.pendingDrain, out.id)
	last := len(b.pendingDrain) == 0
	b.mu.Unlock()

	if last {
		b.graphDrained()
	}
	return true
}

// graphDrained tears the prior graph down, commits the new plan and wakes
// the blocked streaming threads.
func (b *Bin) graphDrained() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.state = domain.StateRebuilding
	b.logger.Debug("rebuild: rebuilding")

	b.clearGraphLocked()
	b.buildGraphLocked()

	b.state = domain.StateIdle
	b.pendingDrain = nil
	b.cond.Broadcast()
}

func (b *Bin) clearGraphLocked() {
	if b.live != nil {
		b.live.Teardown()
		b.live = nil
	}
	for _, out := range b.outputs {
		out.proxy.Unlink()
	}
	for _, in := range b.inputs {
		in.target = nil
	}
}

// buildGraphLocked runs one planning pass and commits the result. Called
// with the structural lock held, either for the initial build or from the
// rebuild protocol.
func (b *Bin) buildGraphLocked() {
	started := time.Now()
	if b.policy.BeginBuild != nil {
		b.policy.BeginBuild()
	}

	inputs := make([]planner.Port, 0, len(b.inputs))
	inputIDs := make([]string, 0, len(b.inputs))
	for _, in := range b.inputs {
		if in.caps.IsEmpty() {
			b.logger.Debug("planning skipped: input without caps", "input", in.id)
			return
		}
		inputs = append(inputs, planner.Port{ID: in.id, Caps: in.caps})
		inputIDs = append(inputIDs, in.id)
	}

	outputs := make([]planner.Port, 0, len(b.outputs))
	outputSinks := make(map[string]ports.Pad, len(b.outputs))
	for _, out := range b.outputs {
		outputs = append(outputs, planner.Port{ID: out.id, Caps: out.downstream.QueryCaps(caps.NewAny())})
		outputSinks[out.id] = out.proxy
	}

	plan := b.lookupOrPlan(inputs, outputs)

	live, err := graph.NewBuilder(b.idx, b.host, b.logger).Build(plan, inputIDs, outputSinks)
	if err != nil {
		b.fatal = err
		b.plan = plan
		b.logger.Error("graph commit failed", "error", err)
		return
	}

	b.plan = plan
	b.live = live
	for _, in := range b.inputs {
		in.target = live.InputTargets[in.id]
	}

	// Replay sticky boundary events into the fresh subgraph; the drain
	// marker never replays.
	for _, in := range b.inputs {
		if in.target == nil {
			continue
		}
		for _, e := range in.sticky {
			if e.Type == ports.EventDrain {
				continue
			}
			in.target.PushEvent(e)
		}
	}

	for _, out := range b.outputs {
		out.needsReconfigure.Store(false)
	}

	if b.metrics != nil {
		b.metrics.RebuildSeconds.Observe(time.Since(started).Seconds())
	}
	b.logger.Info("graph committed",
		"selected", len(plan.Selected),
		"cost", plan.TotalCost,
		"elements", len(live.Elements()))
}

// lookupOrPlan consults the plan store before searching. Cached plans are
// validated against the live index; stale entries are regenerated and
// overwritten.
func (b *Bin) lookupOrPlan(inputs, outputs []planner.Port) *domain.Plan {
	ctx := context.Background()
	sig := b.signature(inputs, outputs)

	if b.store != nil {
		if cached, err := b.store.Load(ctx, sig); err == nil && b.planUsable(cached) {
			if b.metrics != nil {
				b.metrics.PlanCacheHits.Inc()
			}
			b.logger.Debug("plan cache hit", "signature", sig)
			return cached
		}
		if b.metrics != nil {
			b.metrics.PlanCacheMisses.Inc()
		}
	}

	cache := sandbox.NewCache()
	defer cache.Close()

	tester := sandbox.NewTester(b.idx, b.host, cache, b.policy.CostStep, b.logger)
	plan, stats := planner.New(planner.Config{
		Index:          b.idx,
		Tester:         tester,
		Validate:       b.chainValidator(),
		ValidateRoute:  b.policy.ValidateRoute,
		MaxChainLength: b.maxChainLength,
		Exhaustive:     b.exhaustive,
		Logger:         b.logger,
	}).Plan(inputs, outputs)

	if b.metrics != nil {
		b.metrics.PlanningPasses.Inc()
		b.metrics.ChainsTested.Add(float64(stats.ChainsTested))
		b.metrics.ProposalsGenerated.Add(float64(stats.ProposalsGenerated))
	}

	if b.store != nil {
		if err := b.store.Save(ctx, sig, plan); err != nil {
			b.logger.Warn("plan cache save failed", "error", err)
		}
	}
	return plan
}

func (b *Bin) chainValidator() chaingen.ValidateFunc {
	if b.policy.ValidateChain != nil {
		return chaingen.ValidateFunc(b.policy.ValidateChain)
	}
	if b.klassOrdering {
		return chaingen.Compose(
			chaingen.ValidateChainCaps,
			chaingen.ValidateNoConsecutiveDuplicates,
			chaingen.ValidateKlassOrdering,
		)
	}
	return chaingen.Default()
}

// planUsable verifies that a cached plan only references factories the
// current index can resolve.
func (b *Bin) planUsable(plan *domain.Plan) bool {
	for _, h := range plan.Selected {
		if h < 0 || h >= len(plan.Proposals) {
			return false
		}
	}
	for _, p := range plan.Proposals {
		for _, step := range p.Steps {
			if _, ok := b.idx.Factory(step.FactoryID); !ok {
				return false
			}
		}
	}
	return true
}

// signature derives the plan-cache key from everything the search depends
// on: catalog identity, search options, and the endpoint configuration.
func (b *Bin) signature(inputs, outputs []planner.Port) string {
	var sb strings.Builder
	for _, e := range b.idx.Entries() {
		fmt.Fprintf(&sb, "f:%s;", e.FactoryID)
	}
	fmt.Fprintf(&sb, "max:%d;exh:%t;klass:%t;", b.maxChainLength, b.exhaustive, b.klassOrdering)

	ins := make([]string, 0, len(inputs))
	for _, p := range inputs {
		ins = append(ins, p.ID+"="+p.Caps.String())
	}
	sort.Strings(ins)
	outs := make([]string, 0, len(outputs))
	for _, p := range outputs {
		outs = append(outs, p.ID+"="+p.Caps.String())
	}
	sort.Strings(outs)
	fmt.Fprintf(&sb, "in:%s;out:%s", strings.Join(ins, ","), strings.Join(outs, ","))

	sum := sha256.Sum256([]byte(sb.String()))
	return hex.EncodeToString(sum[:])
}
