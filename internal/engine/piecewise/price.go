package piecewise

import "time"

// priceExtendBy is the span a day-ahead hourly spot price quote is held
// valid past its last published instant.
const priceExtendBy = time.Hour

// PriceFunction maps wall-clock time to spot price (currency/kWh) and
// integrates into accumulated cost (currency).
type PriceFunction = Function[time.Time, float64, float64]

// NewPriceFunction builds a PriceFunction from strictly-ascending,
// already-validated price points.
func NewPriceFunction(points []Point[time.Time, float64]) (*PriceFunction, error) {
	return New[time.Time, float64, float64](
		points,
		priceExtendBy,
		func(a, b float64) float64 { return a + b },
		0,
		func(a, b float64) float64 { return a + b },
		0,
		func(start, end time.Time, price float64) float64 {
			return price * end.Sub(start).Hours()
		},
	)
}
