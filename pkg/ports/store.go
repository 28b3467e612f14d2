package ports

import (
	"context"

	"github.com/aretw0/switchyard/pkg/domain"
)

// PlanStore caches planning results keyed by a configuration signature, so
// a bin coming back to a previously seen input/output configuration can
// skip the search.
type PlanStore interface {
	// Save persists the plan under the signature.
	Save(ctx context.Context, signature string, plan *domain.Plan) error

	// Load retrieves a cached plan.
	// Returns domain.ErrPlanNotFound when nothing is cached.
	Load(ctx context.Context, signature string) (*domain.Plan, error)

	// Delete removes the cached plan for the signature.
	Delete(ctx context.Context, signature string) error

	// List returns the cached signatures.
	List(ctx context.Context) ([]string, error)
}
