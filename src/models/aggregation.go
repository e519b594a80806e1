package models

// -----------------------------------------------------------------------------
// Aggregation selection
// -----------------------------------------------------------------------------

// MAggregationKind enumerates the aggregation functions a summary card can
// display. The set is static; selection is a pure lookup, not dispatch.
type MAggregationKind string

const (
	AggSum MAggregationKind = "sum"
	AggAvg MAggregationKind = "avg"
	AggMin MAggregationKind = "min"
	AggMax MAggregationKind = "max"
)

// AggregationKinds lists every supported kind in display order.
var AggregationKinds = []MAggregationKind{AggSum, AggAvg, AggMin, AggMax}

// IsValid reports whether k names a supported aggregation function.
func (k MAggregationKind) IsValid() bool {
	switch k {
	case AggSum, AggAvg, AggMin, AggMax:
		return true
	}
	return false
}

// -----------------------------------------------------------------------------

// MAggregates holds the four aggregate values computed over the latest
// reading per contributing asset.
type MAggregates struct {
	Sum float64 `json:"sum"`
	Avg float64 `json:"avg"`
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Value returns the aggregate selected by kind. Unknown kinds fall back to
// the average, which every metric offers.
func (a MAggregates) Value(kind MAggregationKind) float64 {
	switch kind {
	case AggSum:
		return a.Sum
	case AggMin:
		return a.Min
	case AggMax:
		return a.Max
	default:
		return a.Avg
	}
}
