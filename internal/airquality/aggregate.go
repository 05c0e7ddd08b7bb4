package airquality

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// ParseValue coerces a reported pollutant value to a number. Blank, non-numeric
// and non-finite inputs yield nil, never zero.
func ParseValue(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// Normalize restricts raw records to the columns of interest and coerces the
// six pollutant fields.
func Normalize(raw []RawMeasurement) []Measurement {
	out := make([]Measurement, 0, len(raw))
	for _, r := range raw {
		out = append(out, Measurement{
			Region:   r.Region,
			Station:  r.Station,
			DataTime: r.DataTime,
			Readings: Readings{
				SO2:  ParseValue(r.SO2),
				CO:   ParseValue(r.CO),
				O3:   ParseValue(r.O3),
				NO2:  ParseValue(r.NO2),
				PM10: ParseValue(r.PM10),
				PM25: ParseValue(r.PM25),
			},
		})
	}
	return out
}

type groupKey struct {
	region   string
	dataTime string
}

type accumulator struct {
	sum   [6]float64
	count [6]int
}

// AverageByTime groups measurements by (region, timestamp) and averages each
// pollutant over the readings that have a value. A pollutant with no
// contributing readings stays nil. Results are unscored and ordered by region, then time.
func AverageByTime(ms []Measurement) []AggregatedMeasurement {
	groups := make(map[groupKey]*accumulator)
	for _, m := range ms {
		k := groupKey{region: m.Region, dataTime: m.DataTime}
		acc, ok := groups[k]
		if !ok {
			acc = &accumulator{}
			groups[k] = acc
		}
		for i, p := range Pollutants {
			if v := m.Get(p); v != nil {
				acc.sum[i] += *v
				acc.count[i]++
			}
		}
	}

	out := make([]AggregatedMeasurement, 0, len(groups))
	for k, acc := range groups {
		row := AggregatedMeasurement{Region: k.region, DataTime: k.dataTime}
		for i, p := range Pollutants {
			if acc.count[i] == 0 {
				continue
			}
			mean := acc.sum[i] / float64(acc.count[i])
			row.set(p, &mean)
		}
		out = append(out, row)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Region != out[j].Region {
			return out[i].Region < out[j].Region
		}
		return out[i].DataTime < out[j].DataTime
	})
	return out
}

// LatestPerRegion keeps the row with the greatest timestamp for every region.
// Timestamps are compared as plain strings.
func LatestPerRegion(rows []AggregatedMeasurement) []RegionSnapshot {
	latest := make(map[string]AggregatedMeasurement)
	for _, row := range rows {
		cur, ok := latest[row.Region]
		if !ok || row.DataTime > cur.DataTime {
			latest[row.Region] = row
		}
	}

	out := make([]RegionSnapshot, 0, len(latest))
	for _, row := range latest {
		out = append(out, RegionSnapshot{
			Region:   row.Region,
			DataTime: row.DataTime,
			Score:    row.Score,
			Category: row.Category,
			PM10:     *row.PM10,
			PM25:     *row.PM25,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Region < out[j].Region })
	return out
}

// AggregateResult carries the snapshots plus the groups that could not be scored.
type AggregateResult struct {
	Snapshots []RegionSnapshot
	Dropped   []AggregatedMeasurement
}

// Aggregate runs the full pipeline over the raw records of one cycle:
// normalize, average duplicates, score, then keep the latest row per region.
// Groups missing any pollutant after averaging cannot be scored and are dropped.
func Aggregate(raw []RawMeasurement) (AggregateResult, error) {
	if len(raw) == 0 {
		return AggregateResult{}, fmt.Errorf("%w: no raw records", ErrEmptyDataset)
	}

	rows := AverageByTime(Normalize(raw))

	var res AggregateResult
	scored := make([]AggregatedMeasurement, 0, len(rows))
	for _, row := range rows {
		if !row.Complete() {
			res.Dropped = append(res.Dropped, row)
			continue
		}
		sr, err := Evaluate(row.Readings)
		if err != nil {
			return AggregateResult{}, err
		}
		row.Score = sr.Score
		row.Category = sr.Category
		scored = append(scored, row)
	}

	if len(scored) == 0 {
		return res, fmt.Errorf("%w: %d groups, none scorable", ErrEmptyDataset, len(rows))
	}

	res.Snapshots = LatestPerRegion(scored)
	return res, nil
}
