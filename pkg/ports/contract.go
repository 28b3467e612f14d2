package ports

import (
	"context"
	"testing"

	"github.com/aretw0/switchyard/pkg/caps"
	"github.com/aretw0/switchyard/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunPlanStoreContract runs a suite of tests verifying that a PlanStore
// implementation adheres to the interface contract.
func RunPlanStoreContract(t *testing.T, store PlanStore) {
	ctx := context.Background()

	plan := &domain.Plan{
		Proposals: []domain.Proposal{
			{
				Parent:      domain.RootInput("sink_0"),
				SrcEndpoint: "src_0",
				Steps: []domain.TransformationStep{
					{
						FactoryID:   "convert",
						SinkPadName: "sink",
						SrcPadName:  "src",
						SinkCaps:    caps.MustParse("video/x-raw, format=RGB"),
						SrcCaps:     caps.MustParse("video/x-raw, format=YUV"),
					},
				},
				Cost: 1,
			},
		},
		Selected:  []int{0},
		TotalCost: 1,
	}

	t.Run("SaveAndLoad", func(t *testing.T) {
		err := store.Save(ctx, "sig-contract", plan)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, "sig-contract")
		require.NoError(t, err, "Load should not return error")
		require.Len(t, loaded.Proposals, 1)
		assert.Equal(t, plan.Selected, loaded.Selected)
		assert.Equal(t, plan.TotalCost, loaded.TotalCost)
		assert.Equal(t, "convert", loaded.Proposals[0].Steps[0].FactoryID)
		assert.True(t, caps.Equal(
			plan.Proposals[0].Steps[0].SinkCaps,
			loaded.Proposals[0].Steps[0].SinkCaps,
		))
	})

	t.Run("LoadNonExistent", func(t *testing.T) {
		_, err := store.Load(ctx, "sig-missing")
		assert.ErrorIs(t, err, domain.ErrPlanNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, "sig-delete", plan))
		require.NoError(t, store.Delete(ctx, "sig-delete"))

		_, err := store.Load(ctx, "sig-delete")
		assert.ErrorIs(t, err, domain.ErrPlanNotFound, "Load after Delete should return ErrPlanNotFound")
	})

	t.Run("List", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, "sig-list-a", plan))
		require.NoError(t, store.Save(ctx, "sig-list-b", plan))

		sigs, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sigs, "sig-list-a")
		assert.Contains(t, sigs, "sig-list-b")
	})

	t.Run("Isolation", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, "sig-isolation", plan))
		loaded, err := store.Load(ctx, "sig-isolation")
		require.NoError(t, err)

		// Mutating the loaded plan must not leak back into the store.
		loaded.Selected[0] = 99
		again, err := store.Load(ctx, "sig-isolation")
		require.NoError(t, err)
		assert.Equal(t, 0, again.Selected[0])
	})
}
