package policies

import "context"

// CommissionPort resolves the effective commission percent for a property:
// the property-specific override when configured, else the platform default.
type CommissionPort interface {
	EffectiveCommissionPercent(ctx context.Context, propertyID string) (float64, error)
}

// StaticCommission always answers with a fixed percent; useful for tests
// and as a platform-default fallback.
type StaticCommission struct {
	Percent float64
}

func (s StaticCommission) EffectiveCommissionPercent(ctx context.Context, propertyID string) (float64, error) {
	return s.Percent, nil
}
