package sandbox

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/switchyard/internal/index"
	"github.com/aretw0/switchyard/internal/logging"
	"github.com/aretw0/switchyard/pkg/adapters/memory"
	"github.com/aretw0/switchyard/pkg/caps"
	"github.com/aretw0/switchyard/pkg/domain"
	"github.com/aretw0/switchyard/pkg/ports"
)

func testIndex() *index.Index {
	return index.Build([]ports.ElementFactory{
		memory.MustFactory("vconvert", "Filter/Converter/Video",
			"video/x-raw, format=RGB|I420", "video/x-raw, format=RGB|I420"),
		memory.MustFactory("h264enc", "Codec/Encoder/Video",
			"video/x-raw, format=I420", "video/x-h264"),
	})
}

func TestCache_ReusesIdleInstances(t *testing.T) {
	cache := NewCache()
	defer cache.Close()

	factory := memory.MustFactory("f", "Filter", "ANY", "ANY")

	a, err := cache.Acquire(factory)
	require.NoError(t, err)
	b, err := cache.Acquire(factory)
	require.NoError(t, err)
	assert.NotSame(t, a, b, "busy instances are not shared")

	cache.Release(a)
	c, err := cache.Acquire(factory)
	require.NoError(t, err)
	assert.Same(t, a, c, "released instances are reused")
}

func TestTryPassthrough(t *testing.T) {
	tester := NewTester(testIndex(), memory.NewHost(), NewCache(), nil, logging.NewNop())

	rgb := caps.MustParse("video/x-raw, format=RGB")
	parent := domain.RootInput("sink_0")

	p := tester.TryPassthrough(parent, rgb, "src_0", caps.MustParse("video/x-raw, format=RGB|I420"))
	require.NotNil(t, p)
	assert.True(t, p.Passthrough())
	assert.Equal(t, uint32(0), p.Cost)
	assert.Equal(t, parent, p.Parent)

	assert.Nil(t, tester.TryPassthrough(parent, rgb, "src_0", caps.MustParse("video/x-h264")))
}

func TestTryChain_CostsAndFixates(t *testing.T) {
	idx := testIndex()
	cache := NewCache()
	defer cache.Close()
	tester := NewTester(idx, memory.NewHost(), cache, nil, logging.NewNop())

	chain := []*domain.FactoryEntry{idx.Entries()[0], idx.Entries()[1]}
	p := tester.TryChain(chain,
		domain.RootInput("sink_0"),
		caps.MustParse("video/x-raw, format=RGB"),
		"src_0",
		caps.MustParse("video/x-h264"))

	require.NotNil(t, p)
	require.Len(t, p.Steps, 2)
	assert.Equal(t, uint32(2), p.Cost, "default cost is 1 per step")

	for i, step := range p.Steps {
		assert.True(t, step.SinkCaps.Fixed(), "step %d sink caps fixated", i)
		assert.True(t, step.SrcCaps.Fixed(), "step %d src caps fixated", i)
	}
	// Adjacent steps connect.
	assert.True(t, caps.Intersects(p.Steps[0].SrcCaps, p.Steps[1].SinkCaps))
	assert.Equal(t, "vconvert", p.Steps[0].FactoryID)
	assert.Equal(t, "h264enc", p.Steps[1].FactoryID)
}

func TestTryChain_CustomCost(t *testing.T) {
	idx := testIndex()
	cache := NewCache()
	defer cache.Close()

	cost := func(step *domain.TransformationStep) uint32 {
		if step.FactoryID == "h264enc" {
			return 10
		}
		return 1
	}
	tester := NewTester(idx, memory.NewHost(), cache, cost, logging.NewNop())

	p := tester.TryChain([]*domain.FactoryEntry{idx.Entries()[1]},
		domain.RootInput("sink_0"),
		caps.MustParse("video/x-raw, format=I420"),
		"src_0",
		caps.MustParse("video/x-h264"))

	require.NotNil(t, p)
	assert.Equal(t, uint32(10), p.Cost)
}

func TestTryChain_NegotiationFailure(t *testing.T) {
	idx := testIndex()
	cache := NewCache()
	defer cache.Close()
	tester := NewTester(idx, memory.NewHost(), cache, nil, logging.NewNop())

	// The encoder cannot accept h264 input.
	p := tester.TryChain([]*domain.FactoryEntry{idx.Entries()[1]},
		domain.RootInput("sink_0"),
		caps.MustParse("video/x-h264"),
		"src_0",
		caps.MustParse("video/x-h264"))
	assert.Nil(t, p)

	// The downstream probe rejects what the chain produces.
	p = tester.TryChain([]*domain.FactoryEntry{idx.Entries()[1]},
		domain.RootInput("sink_0"),
		caps.MustParse("video/x-raw, format=I420"),
		"src_0",
		caps.MustParse("audio/x-opus"))
	assert.Nil(t, p)
}

func TestTryChain_ReleasesInstances(t *testing.T) {
	idx := testIndex()
	cache := NewCache()
	defer cache.Close()
	tester := NewTester(idx, memory.NewHost(), cache, nil, logging.NewNop())

	chain := []*domain.FactoryEntry{idx.Entries()[0]}
	sink := caps.MustParse("video/x-raw, format=RGB")
	src := caps.MustParse("video/x-raw, format=I420")

	require.NotNil(t, tester.TryChain(chain, domain.RootInput("sink_0"), sink, "src_0", src))
	require.NotNil(t, tester.TryChain(chain, domain.RootInput("sink_0"), sink, "src_0", src))

	entry := cache.entries["vconvert"]
	require.NotNil(t, entry)
	assert.Len(t, entry.instances, 1, "sequential tests share one instance")
	assert.False(t, entry.inUse[0])
}
