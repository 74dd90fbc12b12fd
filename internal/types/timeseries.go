package types

import "time"

// PricePoint pairs an instant with a day-ahead spot price expressed in
// currency per kilowatt-hour.
type PricePoint struct {
	Time  time.Time `json:"time"`
	Price float64   `json:"price"`
}

// EmissionPoint pairs an instant with a grid carbon-intensity forecast
// expressed in grams of CO2 per kilowatt-hour.
type EmissionPoint struct {
	Time      time.Time `json:"time"`
	Intensity float64   `json:"intensity"`
}

// ValidatePricePoints checks the non-empty, strictly-ascending,
// no-duplicate-timestamp invariant shared by every point list the engine
// consumes.
func ValidatePricePoints(points []PricePoint) error {
	if len(points) == 0 {
		return &TimeSeriesError{Series: "price", Reason: "empty point list"}
	}
	for i := 1; i < len(points); i++ {
		if !points[i-1].Time.Before(points[i].Time) {
			return &TimeSeriesError{Series: "price", Reason: "points are not strictly ascending by time"}
		}
	}
	return nil
}

// ValidateEmissionPoints checks the sortedness/no-duplicate invariant for
// carbon-intensity points.
func ValidateEmissionPoints(points []EmissionPoint) error {
	if len(points) == 0 {
		return &TimeSeriesError{Series: "emission", Reason: "empty point list"}
	}
	for i := 1; i < len(points); i++ {
		if !points[i-1].Time.Before(points[i].Time) {
			return &TimeSeriesError{Series: "emission", Reason: "points are not strictly ascending by time"}
		}
	}
	return nil
}
