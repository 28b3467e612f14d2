package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/aretw0/switchyard/pkg/domain"
)

// Store implements ports.PlanStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string][]byte
	mu   sync.RWMutex
}

// NewStore creates a new in-memory plan store.
func NewStore() *Store {
	return &Store{data: make(map[string][]byte)}
}

// Save persists the plan under the signature. Plans are stored serialized
// so loads hand out isolated copies.
func (s *Store) Save(ctx context.Context, signature string, plan *domain.Plan) error {
	data, err := json.Marshal(plan)
	if err != nil {
		return fmt.Errorf("failed to marshal plan: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[signature] = data
	return nil
}

// Load retrieves the plan for the signature.
func (s *Store) Load(ctx context.Context, signature string) (*domain.Plan, error) {
	s.mu.RLock()
	data, ok := s.data[signature]
	s.mu.RUnlock()

	if !ok {
		return nil, domain.ErrPlanNotFound
	}

	var plan domain.Plan
	if err := json.Unmarshal(data, &plan); err != nil {
		return nil, fmt.Errorf("failed to unmarshal plan: %w", err)
	}
	return &plan, nil
}

// Delete removes the plan for the signature.
func (s *Store) Delete(ctx context.Context, signature string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, signature)
	return nil
}

// List returns the cached signatures.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sigs := make([]string, 0, len(s.data))
	for sig := range s.data {
		sigs = append(sigs, sig)
	}
	return sigs, nil
}
