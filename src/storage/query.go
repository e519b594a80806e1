package storage

import (
	"facility-observer/src/helpers"
	"facility-observer/src/models"
)

// -----------------------------------------------------------------------------
// Query validation
// -----------------------------------------------------------------------------

// NormalizeQuery validates a readings query before it reaches a store and
// applies the server-side limit policy: missing/invalid limits fall back to
// defaultLimit, and every limit is clamped to maxLimit regardless of what the
// client asked for.
func NormalizeQuery(q *models.MReadingQuery, defaultLimit, maxLimit int) error {
	if q.StartTS > q.EndTS {
		return helpers.NewValidationError("start (%d) must be less than or equal to end (%d)", q.StartTS, q.EndTS)
	}

	if q.Limit <= 0 {
		q.Limit = defaultLimit
	}
	if q.Limit > maxLimit {
		q.Limit = maxLimit
	}

	return nil
}
