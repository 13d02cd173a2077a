package provider

import "PriceBoard/internal/model"

// Policy selects how price levels are derived.
type Policy string

const (
	// PolicyMovingAverage classifies by the ratio of price to the rolling
	// baseline.
	PolicyMovingAverage Policy = "moving_average"
	// PolicyAbsolute classifies by fixed kr/kWh thresholds.
	PolicyAbsolute Policy = "absolute"
)

const (
	// baselineEpsilon guards the ratio against a degenerate baseline.
	baselineEpsilon = 0.0001
	// DefaultBaseline substitutes for an empty window so cold-start ratios
	// stay meaningful.
	DefaultBaseline = 1.0
)

// ClassifyFromAverage maps the price/baseline ratio to a level. A baseline
// at or below epsilon yields UNKNOWN.
func ClassifyFromAverage(price, baseline float64) model.Level {
	if baseline <= baselineEpsilon {
		return model.LevelUnknown
	}
	ratio := price / baseline
	switch {
	case ratio <= 0.60:
		return model.LevelVeryCheap
	case ratio <= 0.90:
		return model.LevelCheap
	case ratio < 1.15:
		return model.LevelNormal
	case ratio < 1.40:
		return model.LevelExpensive
	default:
		return model.LevelVeryExpensive
	}
}

// ClassifyAbsolute maps an adjusted kr/kWh price to a level with fixed
// thresholds, independent of history.
func ClassifyAbsolute(price float64) model.Level {
	switch {
	case price < 0.65:
		return model.LevelVeryCheap
	case price < 1.00:
		return model.LevelCheap
	case price < 1.50:
		return model.LevelNormal
	case price < 2.00:
		return model.LevelExpensive
	default:
		return model.LevelVeryExpensive
	}
}

func classify(policy Policy, price, baseline float64) model.Level {
	if policy == PolicyAbsolute {
		return ClassifyAbsolute(price)
	}
	return ClassifyFromAverage(price, baseline)
}
