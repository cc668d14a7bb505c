package hub

import (
	"testing"

	"github.com/bmizerany/assert"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func dec(v string) decimal.Decimal {
	d, err := decimal.NewFromString(v)
	if err != nil {
		panic(err)
	}
	return d
}

func TestRatio(t *testing.T) {
	r, err := Ratio(dec("1"), dec("2"))
	require.Nil(t, err)
	assert.Equal(t, "0.5", r.String())

	r, err = Ratio(decimal.Zero, decimal.Zero)
	require.Nil(t, err)
	assert.Equal(t, "0", r.String())

	r, err = Ratio(dec("5"), decimal.Zero)
	require.NotNil(t, err)
	_, ok := err.(ErrRatioExceedsOne)
	require.True(t, ok)

	_, err = Ratio(dec("3"), dec("2"))
	require.NotNil(t, err)

	r, err = Ratio(dec("2"), dec("2"))
	require.Nil(t, err)
	assert.Equal(t, "1", r.String())
}

func TestVariableBorrowInterestRate(t *testing.T) {
	vr0, vr1, vr2 := dec("0.01"), dec("0.04"), dec("0.75")
	uopt := dec("0.8")

	// zero utilisation: base rate only
	assert.Equal(t, "0.01", VariableBorrowInterestRate(vr0, vr1, vr2, decimal.Zero, uopt).String())

	// half of optimal: vr0 + vr1/2
	assert.Equal(t, "0.03", VariableBorrowInterestRate(vr0, vr1, vr2, dec("0.4"), uopt).String())

	// continuity at the kink
	below := VariableBorrowInterestRate(vr0, vr1, vr2, dec("0.7999999999999999"), uopt)
	at := VariableBorrowInterestRate(vr0, vr1, vr2, uopt, uopt)
	assert.Equal(t, "0.05", at.String())
	require.True(t, below.LessThanOrEqual(at))

	// above the kink the jump slope applies: 0.05 + 0.75*0.1/0.2
	assert.Equal(t, "0.425", VariableBorrowInterestRate(vr0, vr1, vr2, dec("0.9"), uopt).String())
}

func TestStableBorrowInterestRate(t *testing.T) {
	vr1, sr0, sr1, sr2, sr3 := dec("0.04"), dec("0.02"), dec("0.05"), dec("0.5"), dec("0.3")
	uopt, ratioopt := dec("0.8"), dec("0.2")

	// below kink, no excess stable debt
	rate := StableBorrowInterestRate(vr1, sr0, sr1, sr2, sr3, dec("0.4"), uopt, dec("0.1"), ratioopt)
	assert.Equal(t, "0.085", rate.String())

	// above kink with excess stable debt penalty
	rate = StableBorrowInterestRate(vr1, sr0, sr1, sr2, sr3, dec("0.9"), uopt, dec("0.6"), ratioopt)
	// 0.04+0.02+0.05 + 0.5*0.1/0.2 + 0.3*0.4/0.8
	assert.Equal(t, "0.51", rate.String())
}

func TestOverallBorrowInterestRate(t *testing.T) {
	assert.Equal(t, "0", OverallBorrowInterestRate(decimal.Zero, decimal.Zero, dec("0.1"), dec("0.2")).String())

	rate := OverallBorrowInterestRate(dec("100"), dec("300"), dec("0.1"), dec("0.2"))
	assert.Equal(t, "0.175", rate.String())
}

func TestDepositInterestRate(t *testing.T) {
	rate := DepositInterestRate(dec("0.5"), dec("0.1"), dec("0.2"))
	assert.Equal(t, "0.04", rate.String())
}

func TestCompoundIndexMonotonic(t *testing.T) {
	rate := dec("0.05")
	index := decimal.New(1, 0)

	prev := index
	for _, elapsed := range []int64{0, 1, 15, 3600, 86400, 31536000} {
		next := CompoundIndex(rate, prev, elapsed, true)
		if elapsed == 0 {
			assert.Equal(t, prev.String(), next.String())
		} else {
			require.True(t, next.GreaterThan(prev), "index must grow for elapsed=%d", elapsed)
		}
		prev = next
	}

	// compounding beats linear over a year
	linear := CompoundIndex(rate, decimal.New(1, 0), 31536000, false)
	compounded := CompoundIndex(rate, decimal.New(1, 0), 31536000, true)
	require.True(t, compounded.GreaterThan(linear))
	assert.Equal(t, "1.05", linear.String())
}

func TestAverageStableRate(t *testing.T) {
	avg := IncreasingAverageStableRate(dec("100"), dec("0.1"), decimal.Zero, decimal.Zero)
	assert.Equal(t, "0.1", avg.String())

	avg = IncreasingAverageStableRate(dec("100"), dec("0.2"), dec("100"), dec("0.1"))
	assert.Equal(t, "0.15", avg.String())

	// removing everything defines the average as zero, no divide-by-zero
	avg = DecreasingAverageStableRate(dec("100"), dec("0.15"), dec("100"), dec("0.15"))
	assert.Equal(t, "0", avg.String())
}

// Reproduces the rounding-underflow case: removing all but one unit at a rate
// slightly above the recorded average must neither fault nor go negative.
func TestDecreasingAverageStableRateUnderflow(t *testing.T) {
	total := dec("2386376")
	avg := dec("0.107852660268122039")
	removedRate := dec("0.107852785437925392")
	removed := total.Sub(decimal.New(1, 0))

	result := DecreasingAverageStableRate(removed, removedRate, total, avg)
	require.True(t, result.GreaterThanOrEqual(decimal.Zero))
}

func TestReceiptConversions(t *testing.T) {
	index := dec("1.5")

	for _, amount := range []string{"0.00000001", "1", "2386376.12345678"} {
		a := dec(amount)
		receipt := ToReceiptAmount(a, index, false)
		back := ToUnderlyingAmount(receipt, index)
		require.True(t, back.LessThanOrEqual(a), "round trip must not pay out more than deposited")
	}

	// burning receipts for an underlying amount rounds the burn up, even
	// when the quotient repeats past the kept precision
	down := ToReceiptAmount(dec("1"), dec("3"), false)
	up := ToReceiptAmount(dec("1"), dec("3"), true)
	assert.Equal(t, "0.3333333333333333", down.String())
	assert.Equal(t, "0.3333333333333334", up.String())
	require.True(t, up.GreaterThan(down))

	// one smallest unit never converts to zero
	require.True(t, ToReceiptAmount(dec("0.00000001"), dec("100"), true).IsPositive())
}

func TestFlashLoanFeeAmount(t *testing.T) {
	assert.Equal(t, "0.9", FlashLoanFeeAmount(dec("1000"), dec("0.0009")).String())
}

func TestRebalanceThresholds(t *testing.T) {
	threshold := RebalanceUpThreshold(dec("0.5"), dec("0.01"), dec("0.04"), dec("0.75"))
	assert.Equal(t, "0.4", threshold.String())

	threshold = RebalanceDownThreshold(dec("0.2"), dec("0.1"))
	assert.Equal(t, "0.12", threshold.String())
}
