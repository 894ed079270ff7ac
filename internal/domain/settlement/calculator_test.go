package settlement

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staypay/internal/domain/shared/money"
)

func TestCompute_SplitsCommissionAndTax(t *testing.T) {
	b, err := Compute(money.Must(110000, "TZS"), money.Must(10000, "TZS"), 10, 5)

	require.NoError(t, err)
	assert.Equal(t, int64(100000), b.Base.Amount)
	assert.Equal(t, int64(10000), b.Commission.Amount)
	assert.Equal(t, int64(500), b.TaxOnCommission.Amount)
	assert.Equal(t, int64(110000), b.Gross.Amount)
	assert.Equal(t, int64(100000), b.NetPayable.Amount)
}

func TestCompute_NetExcludesTransportAndCommission(t *testing.T) {
	b, err := Compute(money.Must(250000, "TZS"), money.Must(50000, "TZS"), 15, 18)

	require.NoError(t, err)
	assert.Equal(t, int64(200000), b.Base.Amount)
	assert.Equal(t, b.Base, b.NetPayable)
	assert.Equal(t, int64(30000), b.Commission.Amount)
	assert.Equal(t, int64(5400), b.TaxOnCommission.Amount)
	assert.Equal(t, int64(230000), b.Gross.Amount)
}

func TestCompute_RoundsHalfUp(t *testing.T) {
	// 3.33% of 1001 = 33.3333 -> 33; 12.5% of 33 = 4.125 -> 4
	b, err := Compute(money.Must(1001, "TZS"), money.Must(0, "TZS"), 3.33, 12.5)

	require.NoError(t, err)
	assert.Equal(t, int64(33), b.Commission.Amount)
	assert.Equal(t, int64(4), b.TaxOnCommission.Amount)
}

func TestCompute_ClampsPercentages(t *testing.T) {
	over, err := Compute(money.Must(1000, "TZS"), money.Must(0, "TZS"), 150, -5)
	require.NoError(t, err)
	assert.Equal(t, float64(100), over.CommissionPercent)
	assert.Equal(t, int64(1000), over.Commission.Amount)
	assert.Equal(t, float64(0), over.TaxPercent)
	assert.Equal(t, int64(0), over.TaxOnCommission.Amount)

	under, err := Compute(money.Must(1000, "TZS"), money.Must(0, "TZS"), -5, 5)
	require.NoError(t, err)
	assert.Equal(t, float64(0), under.CommissionPercent)
	assert.Equal(t, int64(0), under.Commission.Amount)
}

func TestCompute_TransportLargerThanTotalClampsBase(t *testing.T) {
	b, err := Compute(money.Must(8000, "TZS"), money.Must(10000, "TZS"), 10, 5)

	require.NoError(t, err)
	assert.Equal(t, int64(0), b.Base.Amount)
	assert.Equal(t, int64(0), b.Commission.Amount)
	assert.Equal(t, int64(0), b.NetPayable.Amount)
}

func TestCompute_CurrencyMismatch(t *testing.T) {
	_, err := Compute(money.Must(8000, "TZS"), money.Must(100, "USD"), 10, 5)
	assert.ErrorIs(t, err, money.ErrCurrencyMismatch)
}

func TestCompute_Deterministic(t *testing.T) {
	first, err := Compute(money.Must(97531, "TZS"), money.Must(2531, "TZS"), 7.77, 13.13)
	require.NoError(t, err)
	second, err := Compute(money.Must(97531, "TZS"), money.Must(2531, "TZS"), 7.77, 13.13)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
