package server

import (
	"net/http"
	"strconv"
	"time"

	"facility-observer/src/helpers"
	"facility-observer/src/models"

	"github.com/gin-gonic/gin"
)

// -----------------------------------------------------------------------------
// Route Handlers
// -----------------------------------------------------------------------------

func (s *APIServer) getFacilities(c *gin.Context) {
	facilities, err := s.Store.ListFacilities()
	if err != nil {
		s.respondError(c, err)
		return
	}
	if facilities == nil {
		facilities = []models.MFacility{}
	}
	c.JSON(http.StatusOK, facilities)
}

// -----------------------------------------------------------------------------

func (s *APIServer) getFacilityDetails(c *gin.Context) {
	facilityID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		s.respondError(c, helpers.NewValidationError("facility id must be an integer"))
		return
	}

	details, err := s.Store.GetFacility(facilityID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, details)
}

// -----------------------------------------------------------------------------

// getSummary implements the conditional summary exchange. The client carries
// its last fingerprint in If-None-Match; on match the body is elided with a
// 304, otherwise the fresh snapshot is returned with its fingerprint in ETag.
func (s *APIServer) getSummary(c *gin.Context) {
	facilityID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		s.respondError(c, helpers.NewValidationError("facility id must be an integer"))
		return
	}

	clientFingerprint := c.Request.Header.Get("If-None-Match")

	notModified, snapshot, fingerprint, err := s.Aggregator.GetSummary(facilityID, clientFingerprint)
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.Writer.Header().Set("ETag", fingerprint)
	if notModified {
		c.Status(http.StatusNotModified)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

// -----------------------------------------------------------------------------

func (s *APIServer) getReadings(c *gin.Context) {
	q, err := s.parseReadingQuery(c)
	if err != nil {
		s.respondError(c, err)
		return
	}

	readings, err := s.Store.QueryReadings(*q)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if readings == nil {
		readings = []models.MReading{}
	}
	c.JSON(http.StatusOK, readings)
}

// -----------------------------------------------------------------------------

func (s *APIServer) getHealth(c *gin.Context) {
	facilities, err := s.Store.ListFacilities()
	if err != nil {
		s.respondError(c, err)
		return
	}

	now := time.Now().UTC().Unix()
	fingerprints := make(map[int64]gin.H)
	for id, rec := range s.Aggregator.Cache.Snapshot() {
		fingerprints[id] = gin.H{
			"fingerprint": rec.Fingerprint,
			"age_seconds": now - rec.ComputedAt,
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":       "ok",
		"facilities":   len(facilities),
		"fingerprints": fingerprints,
	})
}

// -----------------------------------------------------------------------------

// respondError maps the error taxonomy onto HTTP statuses.
func (s *APIServer) respondError(c *gin.Context, err error) {
	switch {
	case helpers.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
	case helpers.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"detail": err.Error()})
	default:
		s.Logger.Error("Request failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "internal error"})
	}
}
