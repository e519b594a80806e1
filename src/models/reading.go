package models

// MReading represents one stored sensor reading. Readings are append-only:
// rows are never mutated or deleted by the query path, and (Timestamp, ID)
// forms the total order used for pagination.
type MReading struct {
	ID         int64   `json:"id"`
	FacilityID int64   `json:"facility_id"`
	AssetID    int64   `json:"asset_id"`
	AssetName  string  `json:"asset_name"`
	MetricID   int64   `json:"metric_id"`
	MetricName string  `json:"metric_name"`
	Unit       string  `json:"unit"`
	Timestamp  int64   `json:"ts"`
	Value      float64 `json:"value"`
}

// MLatestValue is the newest reading for one (asset, metric) pair,
// the unit the dashboard summary is built from.
type MLatestValue struct {
	AssetID    int64
	MetricName string
	Unit       string
	Timestamp  int64
	Value      float64
}

// -----------------------------------------------------------------------------

// MCursor marks the newest reading a client has already absorbed.
// A cursor is only meaningful for the exact filter shape it was produced
// under; changing filters or the window invalidates it.
type MCursor struct {
	Timestamp int64 `json:"ts"`
	ID        int64 `json:"id"`
}

// Before reports whether the cursor strictly precedes the given (ts, id).
func (c MCursor) Before(ts, id int64) bool {
	return c.Timestamp < ts || (c.Timestamp == ts && c.ID < id)
}

// -----------------------------------------------------------------------------

// MReadingQuery carries the filters for one readings request.
// Cursor must be either fully set or fully absent.
type MReadingQuery struct {
	FacilityID int64
	AssetID    *int64
	MetricName string
	StartTS    int64
	EndTS      int64
	Cursor     *MCursor
	Limit      int
}
