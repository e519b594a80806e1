package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"facility-observer/src/helpers"
	"facility-observer/src/logger"
	"facility-observer/src/models"
)

// -----------------------------------------------------------------------------
// APIClient
// -----------------------------------------------------------------------------

// APIClient is the HTTP implementation of interfaces.ISyncAPI. It never
// retries on its own: the sync controller owns retry policy, and a failed
// fetch must leave cursor and fingerprint untouched for the next tick.
type APIClient struct {
	BaseURL string
	Client  *http.Client
	Logger  *logger.Logger
}

// -----------------------------------------------------------------------------

func NewAPIClient(baseURL string, timeout time.Duration, log *logger.Logger) *APIClient {
	return &APIClient{
		BaseURL: baseURL,
		Client:  &http.Client{Timeout: timeout},
		Logger:  log,
	}
}

// -----------------------------------------------------------------------------

// FetchSummary performs the conditional summary request. The last fingerprint
// travels in If-None-Match; a 304 reply means the cached snapshot is current.
func (a *APIClient) FetchSummary(ctx context.Context, facilityID int64, clientFingerprint string) (bool, *models.MSummary, string, error) {
	endpoint := fmt.Sprintf("%s/api/facilities/%d/summary", a.BaseURL, facilityID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, nil, "", err
	}
	if clientFingerprint != "" {
		req.Header.Set("If-None-Match", clientFingerprint)
	}

	resp, err := a.Client.Do(req)
	if err != nil {
		return false, nil, "", helpers.NewTransientFetchError("summary fetch failed", err)
	}
	defer resp.Body.Close()

	fingerprint := resp.Header.Get("ETag")

	switch resp.StatusCode {
	case http.StatusNotModified:
		return true, nil, fingerprint, nil
	case http.StatusOK:
		var snapshot models.MSummary
		if err := json.NewDecoder(resp.Body).Decode(&snapshot); err != nil {
			return false, nil, "", helpers.NewTransientFetchError("summary decode failed", err)
		}
		return false, &snapshot, fingerprint, nil
	default:
		return false, nil, "", a.statusError("summary", resp)
	}
}

// -----------------------------------------------------------------------------

// FetchReadings issues one readings query, full-window or delta depending on
// q.Cursor.
func (a *APIClient) FetchReadings(ctx context.Context, q models.MReadingQuery) ([]models.MReading, error) {
	params := url.Values{}
	params.Set("facility_id", strconv.FormatInt(q.FacilityID, 10))
	if q.AssetID != nil {
		params.Set("asset_id", strconv.FormatInt(*q.AssetID, 10))
	}
	if q.MetricName != "" {
		params.Set("metric", q.MetricName)
	}
	params.Set("start", strconv.FormatInt(q.StartTS, 10))
	params.Set("end", strconv.FormatInt(q.EndTS, 10))
	if q.Cursor != nil {
		params.Set("cursor_ts", strconv.FormatInt(q.Cursor.Timestamp, 10))
		params.Set("cursor_id", strconv.FormatInt(q.Cursor.ID, 10))
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}

	endpoint := fmt.Sprintf("%s/api/readings?%s", a.BaseURL, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := a.Client.Do(req)
	if err != nil {
		return nil, helpers.NewTransientFetchError("readings fetch failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, a.statusError("readings", resp)
	}

	var readings []models.MReading
	if err := json.NewDecoder(resp.Body).Decode(&readings); err != nil {
		return nil, helpers.NewTransientFetchError("readings decode failed", err)
	}
	return readings, nil
}

// -----------------------------------------------------------------------------

// statusError maps HTTP statuses back onto the error taxonomy so the
// controller can tell retryable failures from caller mistakes.
func (a *APIClient) statusError(operation string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))

	switch resp.StatusCode {
	case http.StatusBadRequest:
		return helpers.NewValidationError("%s rejected: %s", operation, string(body))
	case http.StatusNotFound:
		return helpers.NewNotFoundError("%s target missing: %s", operation, string(body))
	default:
		return helpers.NewTransientFetchError(
			fmt.Sprintf("%s failed with status %d", operation, resp.StatusCode), nil)
	}
}
