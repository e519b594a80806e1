package models

// -----------------------------------------------------------------------------
// Dashboard summary payloads (recomputed per request, never persisted)
// -----------------------------------------------------------------------------

// MSummaryMetric is one per-metric status card: aggregates over the latest
// reading of every contributing asset.
type MSummaryMetric struct {
	MetricName         string           `json:"metric_name"`
	Unit               string           `json:"unit"`
	LatestTS           int64            `json:"latest_ts"`
	ContributingAssets int              `json:"contributing_assets"`
	Aggregates         MAggregates      `json:"aggregates"`
	DefaultAggregation MAggregationKind `json:"default_aggregation"`
}

// MSummary is the facility-level snapshot returned by the summary endpoint.
type MSummary struct {
	FacilityID  int64            `json:"facility_id"`
	GeneratedAt int64            `json:"generated_at"`
	Metrics     []MSummaryMetric `json:"metrics"`
}
