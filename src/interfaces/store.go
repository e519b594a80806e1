package interfaces

import "facility-observer/src/models"

// -----------------------------------------------------------------------------
// IReadingStore defines the contract for storage operations.
//
// Implementations must support equality filtering on facility/asset/metric,
// range filtering on timestamp, and stable ordering by (ts, id) in both
// directions backed by an index, so query cost follows result size.
// -----------------------------------------------------------------------------

type IReadingStore interface {

	// -----------------------------------------------------------------------------

	// Initialize sets up the database schema and tables.
	Initialize() error

	// -----------------------------------------------------------------------------

	// ListFacilities returns all facilities ordered by id.
	ListFacilities() ([]models.MFacility, error)

	// -----------------------------------------------------------------------------

	// GetFacility returns one facility with its assets.
	// Returns a NotFoundError when the facility does not exist.
	GetFacility(facilityID int64) (*models.MFacilityDetails, error)

	// -----------------------------------------------------------------------------

	// FacilityExists reports whether the facility id is known.
	FacilityExists(facilityID int64) (bool, error)

	// -----------------------------------------------------------------------------

	// LatestPerAssetMetric returns, for every (asset, metric) pair in the
	// facility, the reading with the maximum (ts, id).
	LatestPerAssetMetric(facilityID int64) ([]models.MLatestValue, error)

	// -----------------------------------------------------------------------------

	// QueryReadings answers both query modes:
	//   full-window (no cursor): newest q.Limit rows in window, (ts DESC, id DESC)
	//   delta (cursor set): rows strictly after the cursor, (ts ASC, id ASC)
	// The caller validates and clamps q before this is invoked.
	QueryReadings(q models.MReadingQuery) ([]models.MReading, error)

	// -----------------------------------------------------------------------------

	// InsertReadings appends a batch of readings (ingestion and test seeding).
	InsertReadings(readings []models.MReading) error

	// -----------------------------------------------------------------------------

	// Close the database connection
	Close() error
}
