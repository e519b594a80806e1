package client

import (
	"context"
	"sync"
	"time"

	"facility-observer/src/helpers"
	"facility-observer/src/interfaces"
	"facility-observer/src/logger"
	"facility-observer/src/models"
)

// -----------------------------------------------------------------------------
// Sync states
// -----------------------------------------------------------------------------

type SyncState string

const (
	StateIdle         SyncState = "idle"
	StateFetchingFull SyncState = "fetching_full"
	StateSteady       SyncState = "steady"
)

// Consecutive transient failures before the session is flagged degraded.
const degradedThreshold = 3

// -----------------------------------------------------------------------------
// SyncController
// -----------------------------------------------------------------------------

// SyncController drives one polling session for a (facility, filters, window)
// shape. Each tick issues the conditional summary fetch and the cursor delta
// fetch concurrently, joins them, then applies both results under a
// generation check so a response from a superseded session can never
// overwrite fresher state. Ticks never overlap: the loop is sequential and
// each tick runs under a timeout equal to the poll interval.
type SyncController struct {
	API    interfaces.ISyncAPI
	Logger *logger.Logger

	pollInterval  time.Duration
	fetchLimit    int
	displayBudget int

	mu         sync.Mutex
	generation uint64
	state      SyncState

	// Session shape. Changing any of these invalidates cursor and working set.
	facilityID    int64
	assetID       *int64
	metricName    string
	windowSeconds int64

	// Sync state owned by this session.
	cursor      *models.MCursor
	fingerprint string
	snapshot    *models.MSummary
	selections  map[string]models.MAggregationKind
	workingSet  *WorkingSet

	lastErr             error
	consecutiveFailures int
	degraded            bool

	cancelTick context.CancelFunc
	now        func() time.Time
}

// -----------------------------------------------------------------------------

func NewSyncController(cfg models.MClientConfig, api interfaces.ISyncAPI, log *logger.Logger) *SyncController {
	return &SyncController{
		API:           api,
		Logger:        log,
		pollInterval:  time.Duration(cfg.PollIntervalSeconds) * time.Second,
		fetchLimit:    cfg.FetchLimit,
		displayBudget: cfg.DisplayBudget,
		windowSeconds: cfg.WindowSeconds,
		state:         StateIdle,
		selections:    make(map[string]models.MAggregationKind),
		workingSet:    NewWorkingSet(),
		now:           time.Now,
	}
}

// -----------------------------------------------------------------------------
// Session shape changes
// -----------------------------------------------------------------------------

// SetSession points the controller at a facility with optional asset/metric
// filters. The cursor and working set are only valid for the exact filter
// shape that produced them, so both are discarded and the session re-enters
// the full-window state. In-flight fetches for the old shape are cancelled
// and their responses discarded via the generation counter.
func (c *SyncController) SetSession(facilityID int64, assetID *int64, metricName string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	facilityChanged := facilityID != c.facilityID

	c.facilityID = facilityID
	c.assetID = assetID
	c.metricName = metricName
	c.supersedeLocked()

	if facilityChanged {
		// The summary cache belongs to the old facility.
		c.snapshot = nil
		c.fingerprint = ""
		c.selections = make(map[string]models.MAggregationKind)
	}
}

// -----------------------------------------------------------------------------

// SetWindow changes the active window length (seconds). Cursors are scoped to
// the window as well, so the session resets like a filter change.
func (c *SyncController) SetWindow(seconds int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.windowSeconds = seconds
	c.supersedeLocked()
}

// -----------------------------------------------------------------------------

// Reset discards the sync state and re-enters the full-window state without
// changing the session shape.
func (c *SyncController) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.supersedeLocked()
}

// -----------------------------------------------------------------------------

// supersedeLocked bumps the generation, cancels the in-flight tick and resets
// delta state. Callers hold c.mu.
func (c *SyncController) supersedeLocked() {
	c.generation++
	if c.cancelTick != nil {
		c.cancelTick()
	}
	c.cursor = nil
	c.workingSet.Reset()
	c.state = StateFetchingFull
	c.lastErr = nil
	c.consecutiveFailures = 0
	c.degraded = false
}

// -----------------------------------------------------------------------------
// Aggregation selection
// -----------------------------------------------------------------------------

// SelectAggregation records the user's per-metric card choice.
func (c *SyncController) SelectAggregation(metricName string, kind models.MAggregationKind) error {
	if !kind.IsValid() {
		return helpers.NewValidationError("unknown aggregation %q", string(kind))
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.selections[metricName] = kind
	return nil
}

// -----------------------------------------------------------------------------

// SelectionFor resolves the aggregation to display for a metric: the user's
// choice when still valid, otherwise the metric's configured default.
func (c *SyncController) SelectionFor(metricName string) models.MAggregationKind {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selectionForLocked(metricName)
}

func (c *SyncController) selectionForLocked(metricName string) models.MAggregationKind {
	if kind, ok := c.selections[metricName]; ok && kind.IsValid() {
		return kind
	}
	if c.snapshot != nil {
		for _, m := range c.snapshot.Metrics {
			if m.MetricName == metricName && m.DefaultAggregation.IsValid() {
				return m.DefaultAggregation
			}
		}
	}
	return models.AggAvg
}

// -----------------------------------------------------------------------------

// revalidateSelectionsLocked drops selections for metrics the fresh snapshot
// no longer carries, falling back to defaults on the next lookup.
func (c *SyncController) revalidateSelectionsLocked() {
	if c.snapshot == nil {
		return
	}

	known := make(map[string]bool, len(c.snapshot.Metrics))
	for _, m := range c.snapshot.Metrics {
		known[m.MetricName] = true
	}
	for name, kind := range c.selections {
		if !known[name] || !kind.IsValid() {
			delete(c.selections, name)
		}
	}
}

// -----------------------------------------------------------------------------
// Polling
// -----------------------------------------------------------------------------

// Run polls until ctx is cancelled. The first tick fires immediately.
func (c *SyncController) Run(ctx context.Context) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	c.RunTick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.RunTick(ctx)
		}
	}
}

// -----------------------------------------------------------------------------

// RunTick executes one tick: summary fetch and delta fetch concurrently,
// joined, then applied atomically. A failed fetch leaves cursor and
// fingerprint untouched, so the next tick retries from the same position
// without duplication or loss.
func (c *SyncController) RunTick(parent context.Context) error {
	c.mu.Lock()
	gen := c.generation
	facilityID := c.facilityID
	assetID := c.assetID
	metricName := c.metricName
	windowSeconds := c.windowSeconds
	fingerprint := c.fingerprint
	var cursor *models.MCursor
	if c.cursor != nil {
		cur := *c.cursor
		cursor = &cur
	}
	if c.state == StateIdle {
		c.state = StateFetchingFull
	}

	tickCtx, cancel := context.WithTimeout(parent, c.pollInterval)
	c.cancelTick = cancel
	c.mu.Unlock()
	defer cancel()

	nowTS := c.now().UTC().Unix()
	windowStart := nowTS - windowSeconds

	query := models.MReadingQuery{
		FacilityID: facilityID,
		AssetID:    assetID,
		MetricName: metricName,
		StartTS:    windowStart,
		EndTS:      nowTS,
		Cursor:     cursor,
		Limit:      c.fetchLimit,
	}

	var (
		notModified bool
		freshSnap   *models.MSummary
		freshFP     string
		summaryErr  error

		rows     []models.MReading
		deltaErr error
	)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		notModified, freshSnap, freshFP, summaryErr = c.API.FetchSummary(tickCtx, facilityID, fingerprint)
	}()
	go func() {
		defer wg.Done()
		rows, deltaErr = c.API.FetchReadings(tickCtx, query)
	}()
	wg.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()

	// A filter or window change superseded this tick while it was in flight;
	// its responses belong to a dead session shape.
	if c.generation != gen {
		return nil
	}

	var tickErr error

	if summaryErr != nil {
		tickErr = summaryErr
	} else if !notModified {
		c.snapshot = freshSnap
		c.fingerprint = freshFP
		c.revalidateSelectionsLocked()
	}
	// On notModified the cached snapshot and the displayed selection stay as-is.

	if deltaErr != nil {
		if tickErr == nil {
			tickErr = deltaErr
		}
	} else {
		c.workingSet.Merge(rows)

		if cursor == nil {
			// Full-window mode returns newest-first; seed from the newest row.
			if len(rows) > 0 {
				c.cursor = &models.MCursor{Timestamp: rows[0].Timestamp, ID: rows[0].ID}
			}
		} else if len(rows) > 0 {
			// Delta mode returns ascending; advance to the last row received.
			last := rows[len(rows)-1]
			c.cursor = &models.MCursor{Timestamp: last.Timestamp, ID: last.ID}
		}

		c.workingSet.TrimBefore(windowStart)
		c.state = StateSteady
	}

	if tickErr != nil {
		c.noteFailureLocked(tickErr)
	} else {
		c.lastErr = nil
		c.consecutiveFailures = 0
		c.degraded = false
	}

	return tickErr
}

// -----------------------------------------------------------------------------

// noteFailureLocked records a failed tick. Transient errors are expected to
// clear on a later tick; repeated ones flag the session degraded without
// stopping the poll loop.
func (c *SyncController) noteFailureLocked(err error) {
	c.lastErr = err
	if helpers.IsTransient(err) {
		c.consecutiveFailures++
		if c.consecutiveFailures >= degradedThreshold {
			c.degraded = true
		}
		return
	}
	// Validation and not-found are caller mistakes; surface them immediately.
	c.degraded = true
}

// -----------------------------------------------------------------------------
// Accessors
// -----------------------------------------------------------------------------

func (c *SyncController) State() SyncState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *SyncController) Cursor() *models.MCursor {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cursor == nil {
		return nil
	}
	cur := *c.cursor
	return &cur
}

func (c *SyncController) Fingerprint() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fingerprint
}

func (c *SyncController) Snapshot() *models.MSummary {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot
}

func (c *SyncController) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

func (c *SyncController) Degraded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.degraded
}

func (c *SyncController) WorkingSetSize() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.workingSet.Size()
}

// -----------------------------------------------------------------------------

// DisplaySeries renders the working set for one metric: readings collapsed
// per timestamp with the currently selected aggregation, then downsampled to
// the display budget.
func (c *SyncController) DisplaySeries(metricName string) []MDisplayPoint {
	c.mu.Lock()
	defer c.mu.Unlock()

	kind := c.selectionForLocked(metricName)

	var filtered []models.MReading
	for _, r := range c.workingSet.Readings() {
		if r.MetricName == metricName {
			filtered = append(filtered, r)
		}
	}
	return Downsample(filtered, kind, c.displayBudget)
}

// -----------------------------------------------------------------------------

// AssetSeries returns the raw per-asset points for point-level display.
func (c *SyncController) AssetSeries(metricName string, assetID int64) []MDisplayPoint {
	c.mu.Lock()
	defer c.mu.Unlock()

	var points []MDisplayPoint
	for _, r := range c.workingSet.Readings() {
		if r.MetricName == metricName && r.AssetID == assetID {
			points = append(points, MDisplayPoint{Timestamp: r.Timestamp, Value: r.Value})
		}
	}
	return points
}
