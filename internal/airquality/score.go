package airquality

import "fmt"

// thresholds holds the inclusive upper bounds of severity levels 1, 2 and 3.
// Anything above the last bound is level 4.
type thresholds [3]float64

var severityTable = map[Pollutant]thresholds{
	SO2:  {0.02, 0.05, 0.15},  // ppm
	CO:   {2.0, 9.0, 15.0},    // ppm
	O3:   {0.03, 0.09, 0.15},  // ppm
	NO2:  {0.03, 0.06, 0.20},  // ppm
	PM10: {30, 80, 150},       // µg/m³
	PM25: {15, 35, 75},        // µg/m³
}

// Level maps a single pollutant reading to its severity level in [1, 4].
func Level(p Pollutant, v float64) int {
	bounds := severityTable[p]
	for i, upper := range bounds {
		if v <= upper {
			return i + 1
		}
	}
	return len(bounds) + 1
}

// CategoryFor classifies a composite score. Every range is closed on its upper end.
func CategoryFor(score float64) Category {
	switch {
	case score <= 1.5:
		return CategoryVeryGood
	case score <= 2.5:
		return CategoryGood
	case score <= 3.5:
		return CategoryModerate
	case score <= 4.0:
		return CategoryBad
	default:
		// Unreachable with levels capped at 4.
		return CategoryVeryBad
	}
}

// Evaluate computes the composite score and category for one set of readings.
// All six pollutants must be present; callers drop incomplete groups first.
func Evaluate(r Readings) (ScoreResult, error) {
	total := 0
	for _, p := range Pollutants {
		v := r.Get(p)
		if v == nil {
			return ScoreResult{}, fmt.Errorf("evaluate: %s has no value", p)
		}
		total += Level(p, *v)
	}

	score := float64(total) / float64(len(Pollutants))
	return ScoreResult{
		Score:    score,
		Category: CategoryFor(score),
	}, nil
}
