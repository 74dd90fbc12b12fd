package piecewise

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustPriceFn(t *testing.T, base time.Time, prices []float64) *PriceFunction {
	t.Helper()
	points := make([]Point[time.Time, float64], len(prices))
	for i, p := range prices {
		points[i] = Point[time.Time, float64]{At: base.Add(time.Duration(i) * time.Hour), Value: p}
	}
	fn, err := NewPriceFunction(points)
	require.NoError(t, err)
	return fn
}

func TestPriceFunctionApplyHoldsValueUntilNextBreakpoint(t *testing.T) {
	base := time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)
	fn := mustPriceFn(t, base, []float64{10, 20, 30})

	got, err := fn.Apply(base.Add(30 * time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 10.0, got)

	got, err = fn.Apply(base.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 20.0, got)
}

func TestPriceFunctionExtendByTail(t *testing.T) {
	base := time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)
	fn := mustPriceFn(t, base, []float64{10, 20, 30})

	// last breakpoint at base+2h, held one extra hour to base+3h.
	assert.Equal(t, base.Add(3*time.Hour), fn.MaxDomain())

	got, err := fn.Apply(base.Add(2*time.Hour + 59*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 30.0, got)

	_, err = fn.Apply(base.Add(3*time.Hour + time.Minute))
	require.Error(t, err)
}

func TestIntegrateAdditivity(t *testing.T) {
	base := time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)
	fn := mustPriceFn(t, base, []float64{10, 20, 30})

	mid := base.Add(90 * time.Minute)
	whole, err := fn.Integrate(base, base.Add(2*time.Hour))
	require.NoError(t, err)
	left, err := fn.Integrate(base, mid)
	require.NoError(t, err)
	right, err := fn.Integrate(mid, base.Add(2*time.Hour))
	require.NoError(t, err)

	assert.InDelta(t, whole, left+right, 1e-9)
}

func TestIntegrateMatchesPiecewiseExpectation(t *testing.T) {
	base := time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)
	fn := mustPriceFn(t, base, []float64{10, 20})

	// 10 currency/kWh for 1h, then 20 currency/kWh for 30m: 10*1 + 20*0.5 = 20.
	got, err := fn.Integrate(base, base.Add(90*time.Minute))
	require.NoError(t, err)
	assert.InDelta(t, 20.0, got, 1e-9)
}

func TestIntegrateRejectsOutOfOrderBounds(t *testing.T) {
	base := time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)
	fn := mustPriceFn(t, base, []float64{10, 20})

	_, err := fn.Integrate(base.Add(time.Hour), base)
	require.Error(t, err)
}

func TestNewRejectsNonAscendingBreakpoints(t *testing.T) {
	base := time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)
	_, err := NewPriceFunction([]Point[time.Time, float64]{
		{At: base, Value: 1},
		{At: base, Value: 2},
	})
	require.Error(t, err)
}

func TestPowerUsageFunctionSynthesizesZeroBreakpoint(t *testing.T) {
	fn, err := NewPowerUsageFunction([]Point[Offset, float64]{
		{At: Offset(30 * time.Minute), Value: 2.0},
	}, 0)
	require.NoError(t, err)
	assert.Equal(t, Offset(0), fn.MinDomain())
	assert.Equal(t, 30*time.Minute, fn.Duration())

	v, err := fn.Apply(0)
	require.NoError(t, err)
	assert.Equal(t, 2.0, v)
}

func TestPowerUsageFunctionMinStep(t *testing.T) {
	fn, err := NewPowerUsageFunction([]Point[Offset, float64]{
		{At: 0, Value: 1.0},
		{At: Offset(5 * time.Minute), Value: 2.0},
		{At: Offset(45 * time.Minute), Value: 0.5},
	}, 0)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, fn.MinStep())

	constant, err := NewConstantPowerTask(time.Hour, 1.0)
	require.NoError(t, err)
	assert.Equal(t, time.Hour, constant.MinStep())
}

func TestConstantPowerTaskIntegratesToEnergy(t *testing.T) {
	fn, err := NewConstantPowerTask(time.Hour, 3.0)
	require.NoError(t, err)

	energy, err := fn.Integrate(0, Offset(time.Hour))
	require.NoError(t, err)
	assert.InDelta(t, 3.0, energy, 1e-9)
}

func TestRatePowerFunctionIntegratesConstantPowerAgainstStepPrice(t *testing.T) {
	base := time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)
	price := mustPriceFn(t, base, []float64{10, 20})
	power, err := NewConstantPowerTask(90*time.Minute, 2.0)
	require.NoError(t, err)

	zipped := NewPowerPriceFunction(price, power)
	// 2kW for 1h at 10 + 2kW for 30m at 20 = 20 + 20 = 40.
	cost, err := zipped.IntegrateFromTo(base, 90*time.Minute)
	require.NoError(t, err)
	assert.InDelta(t, 40.0, cost, 1e-9)
}

func TestRatePowerFunctionIntegratesVaryingPowerAgainstConstantPrice(t *testing.T) {
	base := time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)
	price := mustPriceFn(t, base, []float64{10, 10, 10})
	power, err := NewPowerUsageFunction([]Point[Offset, float64]{
		{At: 0, Value: 1.0},
		{At: Offset(30 * time.Minute), Value: 3.0},
	}, 30*time.Minute)
	require.NoError(t, err)

	zipped := NewPowerPriceFunction(price, power)
	// 1kW for 30m + 3kW for 30m = 0.5 + 1.5 = 2 kWh, at flat 10 = 20.
	cost, err := zipped.IntegrateFromTo(base, time.Hour)
	require.NoError(t, err)
	assert.InDelta(t, 20.0, cost, 1e-9)
}

func TestNextDiscretePointFromSynthesizesTailBoundary(t *testing.T) {
	base := time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)
	fn := mustPriceFn(t, base, []float64{10})

	next, ok := fn.NextDiscretePointFrom(fn.MinDomain(), base, fn.MaxDomain())
	require.True(t, ok)
	assert.True(t, next.At.Equal(fn.MaxDomain()))
	assert.Equal(t, 10.0, next.Value)

	_, ok = fn.NextDiscretePointFrom(fn.MinDomain(), fn.MaxDomain(), fn.MaxDomain())
	assert.False(t, ok)
}
