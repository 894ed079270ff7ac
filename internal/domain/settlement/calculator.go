package settlement

import (
	"staypay/internal/domain/shared/money"
)

// Breakdown is the commission/tax split derived from a booking's raw amounts.
// NetPayable is what the owner receives: commission and transport are both
// excluded from the owner payout, and tax applies to the commission only.
type Breakdown struct {
	Base              money.Money `json:"base" bson:"base"`
	CommissionPercent float64     `json:"commission_percent" bson:"commission_percent"`
	Commission        money.Money `json:"commission" bson:"commission"`
	TaxPercent        float64     `json:"tax_percent" bson:"tax_percent"`
	TaxOnCommission   money.Money `json:"tax_on_commission" bson:"tax_on_commission"`
	Gross             money.Money `json:"gross" bson:"gross"`
	NetPayable        money.Money `json:"net_payable" bson:"net_payable"`
}

// Compute derives the settlement breakdown from a booking's total and
// transport fare. Deterministic and side-effect free. Percentages outside
// [0,100] are clamped, a base that would go negative is floored at zero,
// and every derived amount is rounded half-up at the minor unit.
func Compute(total, transportFare money.Money, commissionPercent, taxPercent float64) (Breakdown, error) {
	base, err := total.Sub(transportFare)
	if err != nil {
		return Breakdown{}, err
	}
	base = base.ClampNonNegative()

	cp := ClampPercent(commissionPercent)
	tp := ClampPercent(taxPercent)

	commission := base.PercentRoundHalfUp(cp)
	tax := commission.PercentRoundHalfUp(tp)
	gross, err := base.Add(commission)
	if err != nil {
		return Breakdown{}, err
	}

	return Breakdown{
		Base:              base,
		CommissionPercent: cp,
		Commission:        commission,
		TaxPercent:        tp,
		TaxOnCommission:   tax,
		Gross:             gross,
		NetPayable:        base,
	}, nil
}

// ClampPercent confines a percentage to [0,100].
func ClampPercent(pct float64) float64 {
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}
