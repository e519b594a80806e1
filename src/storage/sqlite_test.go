package storage

import (
	"path/filepath"
	"testing"

	"facility-observer/src/helpers"
	"facility-observer/src/logger"
	"facility-observer/src/models"
)

// -----------------------------------------------------------------------------
// Fixtures
// -----------------------------------------------------------------------------

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	cfg := &models.MConfig{
		Storage: models.MStorageConfig{
			DBType: "sqlite",
			DBPath: filepath.Join(t.TempDir(), "test.db"),
		},
	}

	store, err := NewSQLiteStore(cfg, logger.NewLogger("ERROR", "test"))
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	if err := store.Initialize(); err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

type fixture struct {
	facilityID int64
	asset1     int64
	asset2     int64
	powerKW    int64
	tempC      int64
}

func seedFixture(t *testing.T, store *SQLiteStore) fixture {
	t.Helper()

	var fx fixture
	var err error

	if fx.facilityID, err = store.CreateFacility("Plant North", "Rotterdam", 1); err != nil {
		t.Fatalf("CreateFacility failed: %v", err)
	}
	if fx.asset1, err = store.CreateAsset(fx.facilityID, "compressor-1", "hvac", 1); err != nil {
		t.Fatalf("CreateAsset failed: %v", err)
	}
	if fx.asset2, err = store.CreateAsset(fx.facilityID, "compressor-2", "hvac", 1); err != nil {
		t.Fatalf("CreateAsset failed: %v", err)
	}
	if fx.powerKW, err = store.CreateMetric("power_kw", "kW"); err != nil {
		t.Fatalf("CreateMetric failed: %v", err)
	}
	if fx.tempC, err = store.CreateMetric("temp_c", "°C"); err != nil {
		t.Fatalf("CreateMetric failed: %v", err)
	}
	return fx
}

func insertReading(t *testing.T, store *SQLiteStore, fx fixture, assetID, metricID, ts int64, value float64) {
	t.Helper()
	err := store.InsertReadings([]models.MReading{{
		FacilityID: fx.facilityID,
		AssetID:    assetID,
		MetricID:   metricID,
		Timestamp:  ts,
		Value:      value,
	}})
	if err != nil {
		t.Fatalf("InsertReadings failed: %v", err)
	}
}

func baseQuery(fx fixture) models.MReadingQuery {
	return models.MReadingQuery{
		FacilityID: fx.facilityID,
		StartTS:    0,
		EndTS:      1 << 40,
		Limit:      100,
	}
}

// -----------------------------------------------------------------------------
// Query modes
// -----------------------------------------------------------------------------

func TestQueryReadingsFullWindowNewestFirst(t *testing.T) {
	store := newTestStore(t)
	fx := seedFixture(t, store)

	// 5 readings, ids 1..5 in insertion order.
	for i, ts := range []int64{10, 20, 30, 40, 50} {
		insertReading(t, store, fx, fx.asset1, fx.powerKW, ts, float64(i))
	}

	q := baseQuery(fx)
	q.Limit = 2
	rows, err := store.QueryReadings(q)
	if err != nil {
		t.Fatalf("QueryReadings failed: %v", err)
	}

	if len(rows) != 2 {
		t.Fatalf("Expected exactly 2 rows, got %d", len(rows))
	}
	if rows[0].Timestamp != 50 || rows[1].Timestamp != 40 {
		t.Errorf("Expected the 2 newest rows (50, 40), got (%d, %d)", rows[0].Timestamp, rows[1].Timestamp)
	}
}

func TestQueryReadingsFullWindowTieBreakByID(t *testing.T) {
	store := newTestStore(t)
	fx := seedFixture(t, store)

	// Three rows share one timestamp; ids decide the order.
	for i := 0; i < 3; i++ {
		insertReading(t, store, fx, fx.asset1, fx.powerKW, 100, float64(i))
	}

	rows, err := store.QueryReadings(baseQuery(fx))
	if err != nil {
		t.Fatalf("QueryReadings failed: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("Expected 3 rows, got %d", len(rows))
	}
	if rows[0].ID != 3 || rows[1].ID != 2 || rows[2].ID != 1 {
		t.Errorf("Expected id order 3,2,1 at equal timestamps, got %d,%d,%d", rows[0].ID, rows[1].ID, rows[2].ID)
	}
}

func TestQueryReadingsDeltaStrictlyAfterCursor(t *testing.T) {
	store := newTestStore(t)
	fx := seedFixture(t, store)

	insertReading(t, store, fx, fx.asset1, fx.powerKW, 100, 1) // id 1
	insertReading(t, store, fx, fx.asset1, fx.powerKW, 200, 2) // id 2, the cursor row
	insertReading(t, store, fx, fx.asset2, fx.powerKW, 200, 3) // id 3, same ts

	q := baseQuery(fx)
	q.Cursor = &models.MCursor{Timestamp: 200, ID: 2}
	rows, err := store.QueryReadings(q)
	if err != nil {
		t.Fatalf("QueryReadings failed: %v", err)
	}

	// Strict inequality: the cursor row itself is excluded, the same-ts row
	// with a higher id is included.
	if len(rows) != 1 {
		t.Fatalf("Expected exactly 1 row after cursor, got %d", len(rows))
	}
	if rows[0].ID != 3 {
		t.Errorf("Expected id 3, got %d", rows[0].ID)
	}
}

func TestQueryReadingsDeltaAscending(t *testing.T) {
	store := newTestStore(t)
	fx := seedFixture(t, store)

	for _, ts := range []int64{50, 10, 30, 20, 40} {
		insertReading(t, store, fx, fx.asset1, fx.powerKW, ts, 0)
	}

	q := baseQuery(fx)
	q.Cursor = &models.MCursor{Timestamp: 0, ID: 0}
	rows, err := store.QueryReadings(q)
	if err != nil {
		t.Fatalf("QueryReadings failed: %v", err)
	}

	for i := 1; i < len(rows); i++ {
		prev, cur := rows[i-1], rows[i]
		if prev.Timestamp > cur.Timestamp || (prev.Timestamp == cur.Timestamp && prev.ID >= cur.ID) {
			t.Fatalf("Delta rows not ascending by (ts, id): %v then %v", prev, cur)
		}
	}
	if len(rows) != 5 {
		t.Errorf("Expected all 5 rows, got %d", len(rows))
	}
}

func TestDeltaPagingNoGapsNoDuplicates(t *testing.T) {
	store := newTestStore(t)
	fx := seedFixture(t, store)

	// 23 readings with colliding timestamps (ts advances every third row).
	total := 23
	for i := 0; i < total; i++ {
		insertReading(t, store, fx, fx.asset1, fx.powerKW, int64(100+i/3), float64(i))
	}

	seen := make(map[int64]bool)
	cursor := &models.MCursor{Timestamp: 0, ID: 0}

	for {
		q := baseQuery(fx)
		q.Cursor = cursor
		q.Limit = 7
		rows, err := store.QueryReadings(q)
		if err != nil {
			t.Fatalf("QueryReadings failed: %v", err)
		}
		if len(rows) == 0 {
			break
		}
		for _, r := range rows {
			if seen[r.ID] {
				t.Fatalf("Duplicate id %d across delta pages", r.ID)
			}
			seen[r.ID] = true
		}
		last := rows[len(rows)-1]
		cursor = &models.MCursor{Timestamp: last.Timestamp, ID: last.ID}
	}

	if len(seen) != total {
		t.Errorf("Union of delta pages has %d rows, expected %d (gap)", len(seen), total)
	}
}

func TestQueryReadingsWindowBounds(t *testing.T) {
	store := newTestStore(t)
	fx := seedFixture(t, store)

	for _, ts := range []int64{5, 15, 25, 35} {
		insertReading(t, store, fx, fx.asset1, fx.powerKW, ts, 0)
	}

	q := baseQuery(fx)
	q.StartTS = 10
	q.EndTS = 30
	rows, err := store.QueryReadings(q)
	if err != nil {
		t.Fatalf("QueryReadings failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("Expected 2 rows inside [10,30], got %d", len(rows))
	}
	for _, r := range rows {
		if r.Timestamp < 10 || r.Timestamp > 30 {
			t.Errorf("Row ts %d outside window", r.Timestamp)
		}
	}
}

func TestQueryReadingsFilters(t *testing.T) {
	store := newTestStore(t)
	fx := seedFixture(t, store)

	insertReading(t, store, fx, fx.asset1, fx.powerKW, 10, 1)
	insertReading(t, store, fx, fx.asset2, fx.powerKW, 10, 2)
	insertReading(t, store, fx, fx.asset1, fx.tempC, 10, 3)

	q := baseQuery(fx)
	q.AssetID = &fx.asset1
	q.MetricName = "power_kw"
	rows, err := store.QueryReadings(q)
	if err != nil {
		t.Fatalf("QueryReadings failed: %v", err)
	}
	if len(rows) != 1 || rows[0].Value != 1 {
		t.Errorf("Filter returned wrong rows: %+v", rows)
	}

	// Unknown metric yields an empty result, not an error.
	q = baseQuery(fx)
	q.MetricName = "does_not_exist"
	rows, err = store.QueryReadings(q)
	if err != nil {
		t.Fatalf("Unknown metric filter must not error: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("Expected empty result for unknown metric, got %d rows", len(rows))
	}
}

// -----------------------------------------------------------------------------
// Latest-per-(asset, metric)
// -----------------------------------------------------------------------------

func TestLatestPerAssetMetricSupersede(t *testing.T) {
	store := newTestStore(t)
	fx := seedFixture(t, store)

	insertReading(t, store, fx, fx.asset1, fx.powerKW, 100, 10)
	insertReading(t, store, fx, fx.asset2, fx.powerKW, 100, 15)

	sumLatest := func() float64 {
		latest, err := store.LatestPerAssetMetric(fx.facilityID)
		if err != nil {
			t.Fatalf("LatestPerAssetMetric failed: %v", err)
		}
		var sum float64
		for _, lv := range latest {
			sum += lv.Value
		}
		return sum
	}

	if got := sumLatest(); got != 25 {
		t.Errorf("Expected latest sum 25 before supersede, got %v", got)
	}

	// Asset 1 reports at t2: its t1 reading is superseded, asset 2 unchanged.
	insertReading(t, store, fx, fx.asset1, fx.powerKW, 200, 12)
	if got := sumLatest(); got != 27 {
		t.Errorf("Expected latest sum 27 after supersede, got %v", got)
	}
}

func TestLatestPerAssetMetricTieBreakByID(t *testing.T) {
	store := newTestStore(t)
	fx := seedFixture(t, store)

	// Two readings share (asset, metric, ts): the higher id wins.
	insertReading(t, store, fx, fx.asset1, fx.powerKW, 100, 1)
	insertReading(t, store, fx, fx.asset1, fx.powerKW, 100, 2)

	latest, err := store.LatestPerAssetMetric(fx.facilityID)
	if err != nil {
		t.Fatalf("LatestPerAssetMetric failed: %v", err)
	}
	if len(latest) != 1 {
		t.Fatalf("Expected 1 latest value, got %d", len(latest))
	}
	if latest[0].Value != 2 {
		t.Errorf("Expected the higher-id reading (value 2), got %v", latest[0].Value)
	}
}

// -----------------------------------------------------------------------------
// Facilities
// -----------------------------------------------------------------------------

func TestGetFacility(t *testing.T) {
	store := newTestStore(t)
	fx := seedFixture(t, store)

	details, err := store.GetFacility(fx.facilityID)
	if err != nil {
		t.Fatalf("GetFacility failed: %v", err)
	}
	if details.Name != "Plant North" || len(details.Assets) != 2 {
		t.Errorf("Unexpected facility details: %+v", details)
	}

	if _, err := store.GetFacility(999); !helpers.IsNotFound(err) {
		t.Errorf("Expected NotFoundError for unknown facility, got %v", err)
	}
}

// -----------------------------------------------------------------------------
// Query normalization
// -----------------------------------------------------------------------------

func TestNormalizeQuery(t *testing.T) {
	q := models.MReadingQuery{StartTS: 100, EndTS: 50}
	if err := NormalizeQuery(&q, 500, 5000); !helpers.IsValidation(err) {
		t.Errorf("Expected ValidationError for inverted range, got %v", err)
	}

	q = models.MReadingQuery{StartTS: 0, EndTS: 100}
	if err := NormalizeQuery(&q, 500, 5000); err != nil {
		t.Fatalf("NormalizeQuery failed: %v", err)
	}
	if q.Limit != 500 {
		t.Errorf("Expected default limit 500, got %d", q.Limit)
	}

	q = models.MReadingQuery{StartTS: 0, EndTS: 100, Limit: 99999}
	if err := NormalizeQuery(&q, 500, 5000); err != nil {
		t.Fatalf("NormalizeQuery failed: %v", err)
	}
	if q.Limit != 5000 {
		t.Errorf("Expected limit clamped to 5000, got %d", q.Limit)
	}
}
