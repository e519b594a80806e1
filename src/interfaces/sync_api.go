package interfaces

import (
	"context"

	"facility-observer/src/models"
)

// -----------------------------------------------------------------------------
// ISyncAPI is the transport the sync controller polls through. The HTTP
// implementation lives in src/client; tests substitute an in-memory fake.
// -----------------------------------------------------------------------------

type ISyncAPI interface {

	// -----------------------------------------------------------------------------

	// FetchSummary performs a conditional summary request. When the server's
	// fingerprint matches clientFingerprint it returns notModified=true and a
	// nil summary; otherwise the fresh snapshot and its fingerprint.
	FetchSummary(ctx context.Context, facilityID int64, clientFingerprint string) (notModified bool, summary *models.MSummary, fingerprint string, err error)

	// -----------------------------------------------------------------------------

	// FetchReadings issues one readings query (full-window or delta,
	// depending on q.Cursor).
	FetchReadings(ctx context.Context, q models.MReadingQuery) ([]models.MReading, error)
}
