package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/switchyard/internal/chaingen"
	"github.com/aretw0/switchyard/internal/index"
	"github.com/aretw0/switchyard/internal/logging"
	"github.com/aretw0/switchyard/internal/sandbox"
	"github.com/aretw0/switchyard/pkg/adapters/memory"
	"github.com/aretw0/switchyard/pkg/caps"
	"github.com/aretw0/switchyard/pkg/domain"
	"github.com/aretw0/switchyard/pkg/ports"
)

type fixture struct {
	cfg Config
}

func newFixture(t *testing.T, factories []ports.ElementFactory, mutate func(*Config)) *fixture {
	t.Helper()

	idx := index.Build(factories)
	cache := sandbox.NewCache()
	t.Cleanup(cache.Close)

	cfg := Config{
		Index:  idx,
		Tester: sandbox.NewTester(idx, memory.NewHost(), cache, nil, logging.NewNop()),
		Logger: logging.NewNop(),
	}
	if mutate != nil {
		mutate(&cfg)
	}
	return &fixture{cfg: cfg}
}

func (f *fixture) plan(inputs, outputs []Port) *domain.Plan {
	plan, _ := New(f.cfg).Plan(inputs, outputs)
	return plan
}

func in(id, c string) Port  { return Port{ID: id, Caps: caps.MustParse(c)} }
func out(id, c string) Port { return Port{ID: id, Caps: caps.MustParse(c)} }

func selectedByOutput(plan *domain.Plan) map[string]*domain.Proposal {
	got := make(map[string]*domain.Proposal)
	for _, h := range plan.Selected {
		got[plan.Proposals[h].SrcEndpoint] = &plan.Proposals[h]
	}
	return got
}

// Scenario: a matching output short-circuits to a passthrough even though
// converters could round-trip the format.
func TestPlan_PassthroughWins(t *testing.T) {
	f := newFixture(t, []ports.ElementFactory{
		memory.MustFactory("a", "Filter/Converter", "video/x-raw, format=RGB", "video/x-raw, format=I420"),
		memory.MustFactory("b", "Filter/Converter", "video/x-raw, format=I420", "video/x-raw, format=RGB"),
	}, nil)

	plan := f.plan(
		[]Port{in("sink_0", "video/x-raw, format=RGB")},
		[]Port{out("src_0", "video/x-raw, format=RGB")},
	)

	require.Len(t, plan.Selected, 1)
	p := plan.Proposals[plan.Selected[0]]
	assert.True(t, p.Passthrough())
	assert.Equal(t, uint32(0), plan.TotalCost)
}

// Scenario: one converter bridges the formats at cost 1.
func TestPlan_SingleStep(t *testing.T) {
	f := newFixture(t, []ports.ElementFactory{
		memory.MustFactory("a", "Filter/Converter", "video/x-raw, format=RGB", "video/x-raw, format=I420"),
	}, nil)

	plan := f.plan(
		[]Port{in("sink_0", "video/x-raw, format=RGB")},
		[]Port{out("src_0", "video/x-raw, format=I420")},
	)

	require.Len(t, plan.Selected, 1)
	p := plan.Proposals[plan.Selected[0]]
	require.Len(t, p.Steps, 1)
	assert.Equal(t, "a", p.Steps[0].FactoryID)
	assert.Equal(t, uint32(1), plan.TotalCost)
}

// Scenario: converter then encoder, cost 2.
func TestPlan_TwoStepChain(t *testing.T) {
	f := newFixture(t, []ports.ElementFactory{
		memory.MustFactory("a", "Filter/Converter", "video/x-raw, format=RGB", "video/x-raw, format=I420"),
		memory.MustFactory("b", "Codec/Encoder", "video/x-raw, format=I420", "video/x-h264"),
	}, nil)

	plan := f.plan(
		[]Port{in("sink_0", "video/x-raw, format=RGB")},
		[]Port{out("src_0", "video/x-h264")},
	)

	require.Len(t, plan.Selected, 1)
	p := plan.Proposals[plan.Selected[0]]
	require.Len(t, p.Steps, 2)
	assert.Equal(t, "a", p.Steps[0].FactoryID)
	assert.Equal(t, "b", p.Steps[1].FactoryID)
	assert.Equal(t, uint32(2), plan.TotalCost)
}

// Scenario: two outputs share the converter; the encoder branches off its
// intermediate result, so the total stays at 2 instead of 3.
func TestPlan_BranchSharesIntermediate(t *testing.T) {
	f := newFixture(t, []ports.ElementFactory{
		memory.MustFactory("a", "Filter/Converter", "video/x-raw, format=RGB", "video/x-raw, format=I420"),
		memory.MustFactory("b", "Codec/Encoder", "video/x-raw, format=I420", "video/x-h264"),
	}, nil)

	plan := f.plan(
		[]Port{in("sink_0", "video/x-raw, format=RGB")},
		[]Port{out("src_yuv", "video/x-raw, format=I420"), out("src_h264", "video/x-h264")},
	)

	require.Len(t, plan.Selected, 2)
	assert.Equal(t, uint32(2), plan.TotalCost)

	byOutput := selectedByOutput(plan)
	direct := byOutput["src_yuv"]
	branch := byOutput["src_h264"]
	require.NotNil(t, direct)
	require.NotNil(t, branch)

	require.Len(t, direct.Steps, 1)
	assert.Equal(t, "a", direct.Steps[0].FactoryID)
	assert.Equal(t, domain.ParentRootInput, direct.Parent.Kind)

	assert.Equal(t, domain.ParentBranch, branch.Parent.Kind)
	assert.Equal(t, 0, branch.Parent.Step, "branch hangs off the converter's output")
	require.Len(t, branch.Steps, 1)
	assert.Equal(t, "b", branch.Steps[0].FactoryID)
}

// Scenario: the class-ordering validator rejects an encoder feeding a
// decoder even though the caps line up.
func TestPlan_KlassOrderingRejectsBackwardChains(t *testing.T) {
	factories := []ports.ElementFactory{
		memory.MustFactory("enc", "Codec/Encoder", "video/x-raw, format=RGB", "video/x-h264"),
		memory.MustFactory("dec", "Codec/Decoder", "video/x-h264", "video/x-raw, format=I420"),
	}
	ordered := newFixture(t, factories, func(cfg *Config) {
		cfg.Validate = chaingen.Compose(
			chaingen.ValidateChainCaps,
			chaingen.ValidateNoConsecutiveDuplicates,
			chaingen.ValidateKlassOrdering,
		)
	})

	plan := ordered.plan(
		[]Port{in("sink_0", "video/x-raw, format=RGB")},
		[]Port{out("src_0", "video/x-raw, format=I420")},
	)
	assert.Empty(t, plan.Selected, "enc->dec is rejected by the stage ordering")

	// Without the ordering validator the same route resolves.
	free := newFixture(t, factories, nil)
	plan = free.plan(
		[]Port{in("sink_0", "video/x-raw, format=RGB")},
		[]Port{out("src_0", "video/x-raw, format=I420")},
	)
	assert.NotEmpty(t, plan.Selected)
}

// Scenario: two alternative chains cover the same output; the selector
// takes the cheaper one.
func TestPlan_SelectorPrefersCheaper(t *testing.T) {
	f := newFixture(t, []ports.ElementFactory{
		memory.MustFactory("costly", "Codec/Encoder", "video/x-raw, format=RGB", "video/x-h264"),
		memory.MustFactory("cheap", "Codec/Encoder", "video/x-raw, format=RGB", "video/x-h264"),
	}, func(cfg *Config) {
		cache := sandbox.NewCache()
		cost := func(step *domain.TransformationStep) uint32 {
			if step.FactoryID == "costly" {
				return 5
			}
			return 3
		}
		cfg.Tester = sandbox.NewTester(cfg.Index, memory.NewHost(), cache, cost, logging.NewNop())
	})

	plan := f.plan(
		[]Port{in("sink_0", "video/x-raw, format=RGB")},
		[]Port{out("src_0", "video/x-h264")},
	)

	require.Len(t, plan.Selected, 1)
	p := plan.Proposals[plan.Selected[0]]
	assert.Equal(t, "cheap", p.Steps[0].FactoryID)
	assert.Equal(t, uint32(3), plan.TotalCost)
}

func TestPlan_MaxChainLengthHonored(t *testing.T) {
	// A five-stage ladder: the default bound of 4 cannot bridge it.
	f := newFixture(t, []ports.ElementFactory{
		memory.MustFactory("s1", "Filter", "video/x-s0", "video/x-s1"),
		memory.MustFactory("s2", "Filter", "video/x-s1", "video/x-s2"),
		memory.MustFactory("s3", "Filter", "video/x-s2", "video/x-s3"),
		memory.MustFactory("s4", "Filter", "video/x-s3", "video/x-s4"),
		memory.MustFactory("s5", "Filter", "video/x-s4", "video/x-s5"),
	}, nil)

	plan := f.plan(
		[]Port{in("sink_0", "video/x-s0")},
		[]Port{out("src_0", "video/x-s5")},
	)
	assert.Empty(t, plan.Selected)

	for _, p := range plan.Proposals {
		assert.LessOrEqual(t, len(p.Steps), domain.DefaultMaxChainLength)
	}

	// Raising the bound makes the ladder reachable.
	wide := newFixture(t, []ports.ElementFactory{
		memory.MustFactory("s1", "Filter", "video/x-s0", "video/x-s1"),
		memory.MustFactory("s2", "Filter", "video/x-s1", "video/x-s2"),
		memory.MustFactory("s3", "Filter", "video/x-s2", "video/x-s3"),
		memory.MustFactory("s4", "Filter", "video/x-s3", "video/x-s4"),
		memory.MustFactory("s5", "Filter", "video/x-s4", "video/x-s5"),
	}, func(cfg *Config) {
		cfg.MaxChainLength = 5
	})
	plan = wide.plan(
		[]Port{in("sink_0", "video/x-s0")},
		[]Port{out("src_0", "video/x-s5")},
	)
	require.Len(t, plan.Selected, 1)
	assert.Len(t, plan.Proposals[plan.Selected[0]].Steps, 5)
}

func TestPlan_EmptyCatalogOnlyPassthrough(t *testing.T) {
	f := newFixture(t, nil, nil)

	plan := f.plan(
		[]Port{in("sink_0", "video/x-raw, format=RGB")},
		[]Port{out("src_0", "video/x-raw, format=RGB")},
	)
	require.Len(t, plan.Selected, 1)
	assert.True(t, plan.Proposals[plan.Selected[0]].Passthrough())

	plan = f.plan(
		[]Port{in("sink_0", "video/x-raw, format=RGB")},
		[]Port{out("src_0", "video/x-h264")},
	)
	assert.Empty(t, plan.Selected)
	assert.Empty(t, plan.Proposals)
}

func TestPlan_NoViableCover(t *testing.T) {
	f := newFixture(t, []ports.ElementFactory{
		memory.MustFactory("a", "Filter/Converter", "video/x-raw, format=RGB", "video/x-raw, format=I420"),
	}, nil)

	plan := f.plan(
		[]Port{in("sink_0", "video/x-raw, format=RGB")},
		[]Port{out("src_ok", "video/x-raw, format=I420"), out("src_impossible", "audio/x-opus")},
	)

	// A partial cover is not a cover: the selection stays empty.
	assert.Empty(t, plan.Selected)
	assert.NotEmpty(t, plan.Proposals, "the reachable output still generated proposals")
}

func TestPlan_ValidateRouteVeto(t *testing.T) {
	f := newFixture(t, []ports.ElementFactory{
		memory.MustFactory("a", "Filter/Converter", "video/x-raw, format=RGB", "video/x-raw, format=I420"),
	}, func(cfg *Config) {
		cfg.ValidateRoute = func(route domain.TransformRoute) bool {
			return route.SinkEndpoint != "sink_forbidden"
		}
	})

	plan := f.plan(
		[]Port{in("sink_forbidden", "video/x-raw, format=RGB")},
		[]Port{out("src_0", "video/x-raw, format=I420")},
	)
	assert.Empty(t, plan.Proposals)
}

// Ancestor chains never visit the same output endpoint twice.
func TestPlan_AncestorEndpointsDistinct(t *testing.T) {
	f := newFixture(t, []ports.ElementFactory{
		memory.MustFactory("a", "Filter/Converter", "video/x-raw, format=RGB", "video/x-raw, format=I420"),
		memory.MustFactory("b", "Codec/Encoder", "video/x-raw, format=I420", "video/x-h264, parsed=0"),
		memory.MustFactory("c", "Codec/Parser", "video/x-h264, parsed=0", "video/x-h264, parsed=1"),
	}, nil)

	plan := f.plan(
		[]Port{in("sink_0", "video/x-raw, format=RGB")},
		[]Port{
			out("src_a", "video/x-raw, format=I420"),
			out("src_b", "video/x-h264, parsed=0"),
			out("src_c", "video/x-h264, parsed=1"),
		},
	)

	for h := range plan.Proposals {
		seen := map[string]bool{}
		for _, a := range plan.Ancestors(h) {
			ep := plan.Proposals[a].SrcEndpoint
			assert.False(t, seen[ep], "endpoint %s appears twice in ancestry of %d", ep, h)
			seen[ep] = true
		}
	}

	require.Len(t, plan.Selected, 3)
	assert.Equal(t, uint32(3), plan.TotalCost, "each output costs exactly one new step")
}

func TestPlan_DeterministicAcrossRuns(t *testing.T) {
	factories := []ports.ElementFactory{
		memory.MustFactory("a", "Filter/Converter", "video/x-raw, format=RGB", "video/x-raw, format=I420"),
		memory.MustFactory("b", "Codec/Encoder", "video/x-raw, format=I420", "video/x-h264"),
	}
	inputs := []Port{in("sink_0", "video/x-raw, format=RGB")}
	outputs := []Port{out("src_yuv", "video/x-raw, format=I420"), out("src_h264", "video/x-h264")}

	a := newFixture(t, factories, nil).plan(inputs, outputs)
	b := newFixture(t, factories, nil).plan(inputs, outputs)

	require.Equal(t, len(a.Proposals), len(b.Proposals))
	assert.Equal(t, a.Selected, b.Selected)
	assert.Equal(t, a.TotalCost, b.TotalCost)
	for i := range a.Proposals {
		assert.Equal(t, a.Proposals[i].SrcEndpoint, b.Proposals[i].SrcEndpoint)
		assert.Equal(t, a.Proposals[i].Cost, b.Proposals[i].Cost)
	}
}
