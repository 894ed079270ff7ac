package memory

import (
	"context"
	"sync"

	domainowner "staypay/internal/domain/owner"
)

// OwnerRepository holds owner records with their payout profiles.
type OwnerRepository struct {
	mu    sync.RWMutex
	items map[string]domainowner.Owner
}

func NewOwnerRepository() *OwnerRepository {
	return &OwnerRepository{items: make(map[string]domainowner.Owner)}
}

func (r *OwnerRepository) ByID(ctx context.Context, id string) (*domainowner.Owner, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	stored, ok := r.items[id]
	if !ok {
		return nil, domainowner.ErrOwnerNotFound
	}
	return &stored, nil
}

// Put seeds or replaces an owner; used by dev fixtures and tests.
func (r *OwnerRepository) Put(o domainowner.Owner) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[o.ID] = o
}

// CommissionResolver answers property commission overrides with a
// platform-default fallback.
type CommissionResolver struct {
	mu             sync.RWMutex
	DefaultPercent float64
	overrides      map[string]float64
}

func NewCommissionResolver(defaultPercent float64) *CommissionResolver {
	return &CommissionResolver{DefaultPercent: defaultPercent, overrides: make(map[string]float64)}
}

func (c *CommissionResolver) SetOverride(propertyID string, percent float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.overrides[propertyID] = percent
}

func (c *CommissionResolver) EffectiveCommissionPercent(ctx context.Context, propertyID string) (float64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if pct, ok := c.overrides[propertyID]; ok {
		return pct, nil
	}
	return c.DefaultPercent, nil
}
