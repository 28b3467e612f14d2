package catalog_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/switchyard/pkg/catalog"
	"github.com/aretw0/switchyard/pkg/domain"
)

const sampleCatalog = `
factories:
  - name: vconvert
    klass: Filter/Converter/Video
    sink: "video/x-raw, format=RGB|I420"
    src: "video/x-raw, format=RGB|I420"
  - name: h264enc
    klass: Codec/Encoder/Video
    sink: "video/x-raw, format=I420"
    src: "video/x-h264"
    cost: 8
    extra:
      hardware: true
      rank: 5
`

func TestParse(t *testing.T) {
	cat, err := catalog.Parse(strings.NewReader(sampleCatalog))
	require.NoError(t, err)

	factories := cat.Factories()
	require.Len(t, factories, 2)
	assert.Equal(t, "vconvert", factories[0].ID())
	assert.Equal(t, "Codec/Encoder/Video", factories[1].Klass())

	extras := cat.Extras("h264enc")
	assert.True(t, extras.Hardware)
	assert.Equal(t, 5, extras.Rank)
	assert.False(t, cat.Extras("vconvert").Hardware)
}

func TestCostStep(t *testing.T) {
	cat, err := catalog.Parse(strings.NewReader(sampleCatalog))
	require.NoError(t, err)

	assert.Equal(t, uint32(8), cat.CostStep(&domain.TransformationStep{FactoryID: "h264enc"}))
	assert.Equal(t, uint32(1), cat.CostStep(&domain.TransformationStep{FactoryID: "vconvert"}), "undeclared costs default to 1")
}

func TestPolicy(t *testing.T) {
	cat, err := catalog.Parse(strings.NewReader(sampleCatalog))
	require.NoError(t, err)

	policy := cat.Policy()
	require.NotNil(t, policy.GetFactories)
	assert.Len(t, policy.GetFactories(), 2)
	require.NotNil(t, policy.CostStep)
}

func TestParse_Errors(t *testing.T) {
	cases := map[string]string{
		"empty document":  `factories: []`,
		"missing name":    "factories:\n  - klass: Filter\n    sink: ANY\n    src: ANY",
		"duplicate name":  "factories:\n  - name: a\n    sink: ANY\n    src: ANY\n  - name: a\n    sink: ANY\n    src: ANY",
		"bad caps":        "factories:\n  - name: a\n    sink: \"video/x-raw, width=[9,1]\"\n    src: ANY",
		"malformed yaml":  `factories: {{`,
		"bad extra field": "factories:\n  - name: a\n    sink: ANY\n    src: ANY\n    extra:\n      rank: not-a-number",
	}

	for label, doc := range cases {
		_, err := catalog.Parse(strings.NewReader(doc))
		assert.Error(t, err, label)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleCatalog), 0644))

	cat, err := catalog.Load(path)
	require.NoError(t, err)
	assert.Len(t, cat.Entries(), 2)

	_, err = catalog.Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
