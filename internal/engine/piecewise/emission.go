package piecewise

import "time"

// emissionExtendBy is the span a 5-minute grid carbon-intensity forecast is
// held valid past its last published instant.
const emissionExtendBy = 5 * time.Minute

// EmissionFunction maps wall-clock time to grid carbon intensity (gCO2/kWh)
// and integrates into accumulated emission (gCO2).
type EmissionFunction = Function[time.Time, float64, float64]

// NewEmissionFunction builds an EmissionFunction from strictly-ascending,
// already-validated carbon-intensity points.
func NewEmissionFunction(points []Point[time.Time, float64]) (*EmissionFunction, error) {
	return New[time.Time, float64, float64](
		points,
		emissionExtendBy,
		func(a, b float64) float64 { return a + b },
		0,
		func(a, b float64) float64 { return a + b },
		0,
		func(start, end time.Time, intensity float64) float64 {
			return intensity * end.Sub(start).Hours()
		},
	)
}
