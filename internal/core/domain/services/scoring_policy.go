package services

import "math"

// Threshold awards Points when a measured value is within Limit.
type Threshold struct {
	Limit  float64 `toml:"limit"`
	Points float64 `toml:"points"`
}

// ScoringPolicy holds the weights of the allocation score. The zero value is not
// useful; start from DefaultScoringPolicy.
type ScoringPolicy struct {
	BaseScore float64 `toml:"base_score"`

	// PriorityWeight multiplies (11 - priority).
	PriorityWeight float64 `toml:"priority_weight"`

	// The distance term is max(0, DistanceMaxPoints - km / DistanceKmPerPoint).
	DistanceMaxPoints  float64 `toml:"distance_max_points"`
	DistanceKmPerPoint float64 `toml:"distance_km_per_point"`

	// StockMaxPoints caps available / requested * StockMaxPoints.
	StockMaxPoints float64 `toml:"stock_max_points"`

	// ExpiryThresholds apply to perishable lots, days until expiry <= Limit.
	// ExpiryFallbackPoints is awarded when none matches.
	ExpiryThresholds     []Threshold `toml:"expiry_thresholds"`
	ExpiryFallbackPoints float64     `toml:"expiry_fallback_points"`

	// CreditThresholds match balance / limit < Limit.
	CreditThresholds []Threshold `toml:"credit_thresholds"`

	// DueThresholds match days until the required date <= Limit.
	DueThresholds []Threshold `toml:"due_thresholds"`
}

func DefaultScoringPolicy() ScoringPolicy {
	return ScoringPolicy{
		BaseScore:          100,
		PriorityWeight:     3,
		DistanceMaxPoints:  20,
		DistanceKmPerPoint: 5,
		StockMaxPoints:     15,
		ExpiryThresholds: []Threshold{
			{Limit: 30, Points: 15},
			{Limit: 60, Points: 10},
		},
		ExpiryFallbackPoints: 5,
		CreditThresholds: []Threshold{
			{Limit: 0.5, Points: 10},
			{Limit: 0.8, Points: 5},
		},
		DueThresholds: []Threshold{
			{Limit: 1, Points: 10},
			{Limit: 3, Points: 7},
			{Limit: 7, Points: 4},
		},
	}
}

func pointsAtMost(thresholds []Threshold, value float64) (float64, bool) {
	for _, t := range thresholds {
		if value <= t.Limit {
			return t.Points, true
		}
	}
	return 0, false
}

func pointsBelow(thresholds []Threshold, value float64) (float64, bool) {
	for _, t := range thresholds {
		if value < t.Limit {
			return t.Points, true
		}
	}
	return 0, false
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
