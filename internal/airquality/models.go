package airquality

import "time"

// Category is the overall air-quality label derived from a composite score.
type Category string

const (
	CategoryVeryGood Category = "매우 좋음"
	CategoryGood     Category = "좋음"
	CategoryModerate Category = "보통"
	CategoryBad      Category = "나쁨"
	CategoryVeryBad  Category = "매우 나쁨"
)

// Pollutant identifies one of the six measured pollutants.
type Pollutant string

const (
	SO2  Pollutant = "so2"
	CO   Pollutant = "co"
	O3   Pollutant = "o3"
	NO2  Pollutant = "no2"
	PM10 Pollutant = "pm10"
	PM25 Pollutant = "pm25"
)

// Pollutants lists every pollutant in the order the composite score consumes them.
var Pollutants = []Pollutant{SO2, CO, O3, NO2, PM10, PM25}

// RawMeasurement is one record as reported by the measurement API for a single
// station. Pollutant values are kept exactly as supplied; coercion happens in Normalize.
type RawMeasurement struct {
	Region   string
	Station  string
	DataTime string

	SO2  string
	CO   string
	O3   string
	NO2  string
	PM10 string
	PM25 string
}

// Readings holds one optional value per pollutant. A nil entry means "no value".
type Readings struct {
	SO2  *float64
	CO   *float64
	O3   *float64
	NO2  *float64
	PM10 *float64
	PM25 *float64
}

// Get returns the reading for p.
func (r Readings) Get(p Pollutant) *float64 {
	switch p {
	case SO2:
		return r.SO2
	case CO:
		return r.CO
	case O3:
		return r.O3
	case NO2:
		return r.NO2
	case PM10:
		return r.PM10
	case PM25:
		return r.PM25
	}
	return nil
}

func (r *Readings) set(p Pollutant, v *float64) {
	switch p {
	case SO2:
		r.SO2 = v
	case CO:
		r.CO = v
	case O3:
		r.O3 = v
	case NO2:
		r.NO2 = v
	case PM10:
		r.PM10 = v
	case PM25:
		r.PM25 = v
	}
}

// Complete reports whether every pollutant carries a value.
func (r Readings) Complete() bool {
	for _, p := range Pollutants {
		if r.Get(p) == nil {
			return false
		}
	}
	return true
}

// Measurement is a RawMeasurement restricted to the columns of interest with
// pollutant values coerced to numbers.
type Measurement struct {
	Region   string
	Station  string
	DataTime string
	Readings
}

// AggregatedMeasurement is the average of all measurements sharing one
// (region, timestamp) key, plus its score.
type AggregatedMeasurement struct {
	Region   string
	DataTime string
	Readings
	Score    float64
	Category Category
}

// RegionSnapshot is the most recent scored measurement for one region and the
// shape persisted to the output file. JSON keys match the records the dashboard reads.
type RegionSnapshot struct {
	Region   string   `json:"sidoName"`
	DataTime string   `json:"dataTime"`
	Score    float64  `json:"통합스코어"`
	Category Category `json:"대기질평가"`
	PM10     float64  `json:"pm10Value"`
	PM25     float64  `json:"pm25Value"`
}

// ScoreResult is the output of Evaluate.
type ScoreResult struct {
	Score    float64
	Category Category
}

// CycleReport summarises one collection run.
type CycleReport struct {
	ID        string
	Started   time.Time
	Duration  time.Duration
	Fetched   []string
	Failed    []string
	Records   int
	Snapshots []RegionSnapshot
}
