package client

import (
	"facility-observer/src/models"
)

// -----------------------------------------------------------------------------
// Display downsampling
// -----------------------------------------------------------------------------

// MDisplayPoint is one chart point handed to the rendering layer.
type MDisplayPoint struct {
	Timestamp int64   `json:"ts"`
	Value     float64 `json:"value"`
}

// -----------------------------------------------------------------------------

// Downsample reduces an ordered reading sequence to at most budget display
// points. First every distinct timestamp is collapsed to one point using the
// selected aggregation across the assets sharing that timestamp; if the
// collapsed series still exceeds the budget, an evenly spaced stride sample
// is taken that always retains the first and last point, so the visual shape
// survives without reprocessing on every tick.
func Downsample(readings []models.MReading, kind models.MAggregationKind, budget int) []MDisplayPoint {
	if len(readings) == 0 || budget < 2 {
		return nil
	}

	collapsed := collapseByTimestamp(readings, kind)
	if len(collapsed) <= budget {
		return collapsed
	}
	return strideSample(collapsed, budget)
}

// -----------------------------------------------------------------------------

// collapseByTimestamp computes one point per distinct timestamp. Input must
// be ordered ascending by (ts, id), which the working set guarantees.
func collapseByTimestamp(readings []models.MReading, kind models.MAggregationKind) []MDisplayPoint {
	var points []MDisplayPoint

	i := 0
	for i < len(readings) {
		ts := readings[i].Timestamp
		agg := models.MAggregates{
			Min: readings[i].Value,
			Max: readings[i].Value,
		}
		count := 0

		for i < len(readings) && readings[i].Timestamp == ts {
			v := readings[i].Value
			agg.Sum += v
			if v < agg.Min {
				agg.Min = v
			}
			if v > agg.Max {
				agg.Max = v
			}
			count++
			i++
		}
		agg.Avg = agg.Sum / float64(count)

		points = append(points, MDisplayPoint{
			Timestamp: ts,
			Value:     agg.Value(kind),
		})
	}

	return points
}

// -----------------------------------------------------------------------------

// strideSample picks budget points evenly across the series, pinning the
// first and last so the chart endpoints never drift.
func strideSample(points []MDisplayPoint, budget int) []MDisplayPoint {
	n := len(points)
	out := make([]MDisplayPoint, 0, budget)

	// Evenly spaced indices over [0, n-1] inclusive.
	for k := 0; k < budget; k++ {
		idx := k * (n - 1) / (budget - 1)
		out = append(out, points[idx])
	}
	return out
}
