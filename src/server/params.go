package server

import (
	"strconv"

	"facility-observer/src/helpers"
	"facility-observer/src/models"
	"facility-observer/src/storage"

	"github.com/gin-gonic/gin"
)

// -----------------------------------------------------------------------------
// Query parameter parsing
// -----------------------------------------------------------------------------

// parseReadingQuery builds a validated MReadingQuery from the request.
// cursor_ts and cursor_id must be supplied together or not at all.
func (s *APIServer) parseReadingQuery(c *gin.Context) (*models.MReadingQuery, error) {
	facilityID, err := requireInt64(c, "facility_id")
	if err != nil {
		return nil, err
	}

	q := &models.MReadingQuery{
		FacilityID: facilityID,
		MetricName: c.Query("metric"),
	}

	if q.AssetID, err = optionalInt64(c, "asset_id"); err != nil {
		return nil, err
	}

	start, err := optionalInt64(c, "start")
	if err != nil {
		return nil, err
	}
	end, err := optionalInt64(c, "end")
	if err != nil {
		return nil, err
	}
	if start != nil {
		q.StartTS = *start
	}
	if end != nil {
		q.EndTS = *end
	} else {
		q.EndTS = int64(1)<<62 - 1 // open-ended window
	}

	cursorTS, err := optionalInt64(c, "cursor_ts")
	if err != nil {
		return nil, err
	}
	cursorID, err := optionalInt64(c, "cursor_id")
	if err != nil {
		return nil, err
	}
	if (cursorTS == nil) != (cursorID == nil) {
		return nil, helpers.NewValidationError("cursor_ts and cursor_id must be provided together")
	}
	if cursorTS != nil {
		q.Cursor = &models.MCursor{Timestamp: *cursorTS, ID: *cursorID}
	}

	limit, err := optionalInt64(c, "limit")
	if err != nil {
		return nil, err
	}
	if limit != nil {
		q.Limit = int(*limit)
	}

	if err := storage.NormalizeQuery(q, s.Config.Query.DefaultLimit, s.Config.Query.MaxLimit); err != nil {
		return nil, err
	}
	return q, nil
}

// -----------------------------------------------------------------------------

func requireInt64(c *gin.Context, name string) (int64, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, helpers.NewValidationError("%s is required", name)
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, helpers.NewValidationError("%s must be an integer", name)
	}
	return v, nil
}

// -----------------------------------------------------------------------------

func optionalInt64(c *gin.Context, name string) (*int64, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, helpers.NewValidationError("%s must be an integer", name)
	}
	return &v, nil
}
