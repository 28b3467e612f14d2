package caps

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_RoundTrip(t *testing.T) {
	cases := []string{
		"video/x-raw",
		"video/x-raw, format=RGB",
		"video/x-raw, format=I420|RGB, width=[64,1920]",
		"video/x-raw, format=RGB; video/x-h264",
		"ANY",
		"EMPTY",
	}

	for _, text := range cases {
		c, err := Parse(text)
		require.NoError(t, err, text)
		back, err := Parse(c.String())
		require.NoError(t, err, text)
		assert.True(t, Equal(c, back), "round trip of %q gave %q", text, back.String())
	}
}

func TestParse_Errors(t *testing.T) {
	for _, text := range []string{
		"video/x-raw, format",
		"video/x-raw, width=[10,abc]",
		"video/x-raw, width=[20,10]",
		"video/x-raw, ; other",
	} {
		_, err := Parse(text)
		assert.Error(t, err, text)
	}
}

func TestIntersects(t *testing.T) {
	rgb := MustParse("video/x-raw, format=RGB")
	yuv := MustParse("video/x-raw, format=I420")
	either := MustParse("video/x-raw, format=RGB|I420")
	h264 := MustParse("video/x-h264")

	assert.True(t, Intersects(rgb, either))
	assert.True(t, Intersects(either, yuv))
	assert.False(t, Intersects(rgb, yuv))
	assert.False(t, Intersects(rgb, h264))

	assert.True(t, Intersects(NewAny(), rgb))
	assert.False(t, Intersects(NewAny(), NewEmpty()))
	assert.False(t, Intersects(NewEmpty(), rgb))
}

func TestIntersect_Ranges(t *testing.T) {
	a := MustParse("video/x-raw, width=[64,1920]")
	b := MustParse("video/x-raw, width=[1280,4096]")

	got := Intersect(a, b)
	require.Len(t, got.Structures, 1)
	assert.True(t, Equal(got, MustParse("video/x-raw, width=[1280,1920]")))

	// Disjoint ranges do not intersect.
	c := MustParse("video/x-raw, width=[1,10]")
	assert.True(t, Intersect(b, c).IsEmpty())
}

func TestIntersect_KeepsBothConstraints(t *testing.T) {
	a := MustParse("video/x-raw, format=RGB")
	b := MustParse("video/x-raw, width=640")

	got := Intersect(a, b)
	require.Len(t, got.Structures, 1)
	fields := got.Structures[0].Fields
	assert.Equal(t, Str("RGB"), fields["format"])
	assert.Equal(t, Int(640), fields["width"])
}

func TestMerge_SubsumesDuplicates(t *testing.T) {
	wide := MustParse("video/x-raw, format=RGB|I420")
	narrow := MustParse("video/x-raw, format=RGB")

	merged := Merge(wide, narrow)
	assert.Len(t, merged.Structures, 1, "narrow structure is subsumed")

	both := Merge(narrow, MustParse("video/x-h264"))
	assert.Len(t, both.Structures, 2)

	assert.True(t, Merge(NewAny(), narrow).Any)
}

func TestNormalize_ExpandsLists(t *testing.T) {
	c := MustParse("video/x-raw, format=RGB|I420, depth=8|10")
	n := c.Normalize()
	assert.Len(t, n.Structures, 4)
	for _, s := range n.Structures {
		for _, v := range s.Fields {
			assert.NotEqual(t, KindList, v.Kind)
		}
	}
}

func TestFixate(t *testing.T) {
	c := MustParse("video/x-raw, format=RGB|I420, width=[64,1920]; video/x-h264")
	assert.False(t, c.Fixed())

	f := c.Fixate()
	assert.True(t, f.Fixed())
	require.Len(t, f.Structures, 1)
	assert.Equal(t, "video/x-raw", f.Structures[0].Name)
	assert.Equal(t, Str("RGB"), f.Structures[0].Fields["format"])
	assert.Equal(t, Int(64), f.Structures[0].Fields["width"])

	// Fixating twice is stable.
	assert.True(t, Equal(f, f.Fixate()))
}

func TestFixed_Boundaries(t *testing.T) {
	assert.False(t, NewAny().Fixed())
	assert.False(t, NewEmpty().Fixed())
	assert.True(t, MustParse("video/x-h264").Fixed())
	assert.False(t, MustParse("video/x-raw; video/x-h264").Fixed())
	assert.True(t, MustParse("video/x-raw, width=[5,5]").Fixed())
}

func TestClone_Isolation(t *testing.T) {
	a := MustParse("video/x-raw, format=RGB")
	b := a.Clone()
	b.Structures[0].Fields["format"] = Str("I420")
	assert.Equal(t, Str("RGB"), a.Structures[0].Fields["format"])
}
