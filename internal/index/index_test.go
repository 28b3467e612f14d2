package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/switchyard/pkg/adapters/memory"
	"github.com/aretw0/switchyard/pkg/caps"
	"github.com/aretw0/switchyard/pkg/domain"
	"github.com/aretw0/switchyard/pkg/ports"
)

func testCatalog() []ports.ElementFactory {
	return []ports.ElementFactory{
		memory.MustFactory("vconvert", "Filter/Converter/Video",
			"video/x-raw, format=RGB|I420", "video/x-raw, format=RGB|I420"),
		memory.MustFactory("h264enc", "Codec/Encoder/Video",
			"video/x-raw, format=I420", "video/x-h264"),
	}
}

func TestBuild_IndexesSingleSinkSingleSrc(t *testing.T) {
	idx := Build(testCatalog())
	require.Equal(t, 2, idx.Len())

	entries := idx.Entries()
	assert.Equal(t, "vconvert", entries[0].FactoryID)
	assert.Equal(t, domain.KlassConverter, entries[0].Klass)
	assert.Equal(t, "sink", entries[0].SinkPadName)
	assert.Equal(t, "src", entries[0].SrcPadName)
	assert.Equal(t, domain.KlassEncoder, entries[1].Klass)

	_, ok := idx.Factory("h264enc")
	assert.True(t, ok)
	_, ok = idx.Factory("missing")
	assert.False(t, ok)
}

func TestBuild_SkipsWrongShapes(t *testing.T) {
	host := memory.NewHost()
	catalog := append(testCatalog(),
		host.NullSinkFactory(), // sink only
		host.TeeFactory(),      // tee still has one sink and one src template, so it indexes
	)

	idx := Build(catalog)

	_, ok := idx.Factory("nullsink")
	assert.False(t, ok, "sink-only factories are skipped")
	assert.Equal(t, 3, idx.Len())
}

func TestBuild_CapsUnions(t *testing.T) {
	idx := Build(testCatalog())

	assert.True(t, caps.Intersects(idx.AllSinkCaps(), caps.MustParse("video/x-raw, format=RGB")))
	assert.True(t, caps.Intersects(idx.AllSrcCaps(), caps.MustParse("video/x-h264")))
	assert.False(t, caps.Intersects(idx.AllSinkCaps(), caps.MustParse("video/x-h264")))
}

func TestBuild_Idempotent(t *testing.T) {
	catalog := testCatalog()
	a := Build(catalog)
	b := Build(catalog)

	require.Equal(t, a.Len(), b.Len())
	for i := range a.Entries() {
		ea, eb := a.Entries()[i], b.Entries()[i]
		assert.Equal(t, ea.FactoryID, eb.FactoryID)
		assert.Equal(t, ea.Klass, eb.Klass)
		assert.True(t, caps.Equal(ea.SinkCaps, eb.SinkCaps))
		assert.True(t, caps.Equal(ea.SrcCaps, eb.SrcCaps))
	}
}

func TestBuild_EmptyCatalog(t *testing.T) {
	idx := Build(nil)
	assert.Equal(t, 0, idx.Len())
	assert.True(t, idx.AllSinkCaps().IsEmpty())
	assert.True(t, idx.AllSrcCaps().IsEmpty())
}
