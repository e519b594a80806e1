package storage

import (
	"database/sql"
	"fmt"
	"strings"

	"facility-observer/src/helpers"
	"facility-observer/src/logger"
	"facility-observer/src/models"

	_ "modernc.org/sqlite"
)

// -----------------------------------------------------------------------------

type SQLiteStore struct {
	Config *models.MConfig
	DB     *sql.DB
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewSQLiteStore(cfg *models.MConfig, log *logger.Logger) (*SQLiteStore, error) {
	return &SQLiteStore{
		Config: cfg,
		Logger: log,
	}, nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteStore) Initialize() error {
	dsn := d.Config.Storage.DBPath

	// Open DB
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return err
	}

	if err := db.Ping(); err != nil {
		return err
	}

	d.DB = db

	// PRAGMA optimizations
	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		d.Logger.Warning("Failed to set WAL mode: %v", err)
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL;"); err != nil {
		d.Logger.Warning("Failed to set synchronous mode: %v", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		d.Logger.Warning("Failed to enable foreign keys: %v", err)
	}

	return d.createTables()
}

// -----------------------------------------------------------------------------

func (d *SQLiteStore) createTables() error {
	// SQLite types: INTEGER for int64, REAL for float64, TEXT for string
	statements := []string{
		`CREATE TABLE IF NOT EXISTS facilities (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			location TEXT,
			created_at INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS assets (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			facility_id INTEGER NOT NULL REFERENCES facilities(id),
			name TEXT NOT NULL,
			asset_type TEXT,
			created_at INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS metrics (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL UNIQUE,
			unit TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS sensor_readings (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			facility_id INTEGER NOT NULL REFERENCES facilities(id),
			asset_id INTEGER NOT NULL REFERENCES assets(id),
			metric_id INTEGER NOT NULL REFERENCES metrics(id),
			ts INTEGER NOT NULL,
			value REAL NOT NULL
		);`,
		// Pagination index: both query modes order by (ts, id) within a facility.
		`CREATE INDEX IF NOT EXISTS idx_readings_facility_ts_id
			ON sensor_readings (facility_id, ts, id);`,
		// Latest-per-(asset, metric) lookups for the dashboard summary.
		`CREATE INDEX IF NOT EXISTS idx_readings_latest
			ON sensor_readings (facility_id, asset_id, metric_id, ts DESC, id DESC);`,
	}

	for _, stmt := range statements {
		if _, err := d.DB.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}

	return nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteStore) ListFacilities() ([]models.MFacility, error) {
	rows, err := d.DB.Query(`
		SELECT id, name, COALESCE(location, ''), created_at
		FROM facilities
		ORDER BY id
	`)
	if err != nil {
		return nil, helpers.NewDatabaseError("list facilities query failed", err)
	}
	defer rows.Close()

	var facilities []models.MFacility
	for rows.Next() {
		var f models.MFacility
		if err := rows.Scan(&f.ID, &f.Name, &f.Location, &f.CreatedAt); err != nil {
			return nil, helpers.NewDatabaseError("list facilities scan failed", err)
		}
		facilities = append(facilities, f)
	}
	return facilities, rows.Err()
}

// -----------------------------------------------------------------------------

func (d *SQLiteStore) FacilityExists(facilityID int64) (bool, error) {
	var one int
	err := d.DB.QueryRow("SELECT 1 FROM facilities WHERE id = ?", facilityID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, helpers.NewDatabaseError("facility lookup failed", err)
	}
	return true, nil
}

// -----------------------------------------------------------------------------

func (d *SQLiteStore) GetFacility(facilityID int64) (*models.MFacilityDetails, error) {
	var details models.MFacilityDetails
	err := d.DB.QueryRow(`
		SELECT id, name, COALESCE(location, ''), created_at
		FROM facilities
		WHERE id = ?
	`, facilityID).Scan(&details.ID, &details.Name, &details.Location, &details.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, helpers.NewNotFoundError("facility %d not found", facilityID)
	}
	if err != nil {
		return nil, helpers.NewDatabaseError("facility query failed", err)
	}

	rows, err := d.DB.Query(`
		SELECT id, facility_id, name, COALESCE(asset_type, ''), created_at
		FROM assets
		WHERE facility_id = ?
		ORDER BY id
	`, facilityID)
	if err != nil {
		return nil, helpers.NewDatabaseError("assets query failed", err)
	}
	defer rows.Close()

	for rows.Next() {
		var a models.MAsset
		if err := rows.Scan(&a.ID, &a.FacilityID, &a.Name, &a.AssetType, &a.CreatedAt); err != nil {
			return nil, helpers.NewDatabaseError("assets scan failed", err)
		}
		details.Assets = append(details.Assets, a)
	}
	return &details, rows.Err()
}

// -----------------------------------------------------------------------------

// LatestPerAssetMetric keeps one most-recent reading per (asset_id, metric_id),
// tie broken by id so concurrent same-second readings stay deterministic.
func (d *SQLiteStore) LatestPerAssetMetric(facilityID int64) ([]models.MLatestValue, error) {
	rows, err := d.DB.Query(`
		SELECT sr.asset_id, m.name, COALESCE(m.unit, ''), sr.ts, sr.value
		FROM sensor_readings sr
		JOIN metrics m ON m.id = sr.metric_id
		WHERE sr.facility_id = ?
		  AND sr.id = (
			SELECT sr2.id
			FROM sensor_readings sr2
			WHERE sr2.facility_id = sr.facility_id
			  AND sr2.asset_id = sr.asset_id
			  AND sr2.metric_id = sr.metric_id
			ORDER BY sr2.ts DESC, sr2.id DESC
			LIMIT 1
		  )
	`, facilityID)
	if err != nil {
		return nil, helpers.NewDatabaseError("latest readings query failed", err)
	}
	defer rows.Close()

	var latest []models.MLatestValue
	for rows.Next() {
		var lv models.MLatestValue
		if err := rows.Scan(&lv.AssetID, &lv.MetricName, &lv.Unit, &lv.Timestamp, &lv.Value); err != nil {
			return nil, helpers.NewDatabaseError("latest readings scan failed", err)
		}
		latest = append(latest, lv)
	}
	return latest, rows.Err()
}

// -----------------------------------------------------------------------------

// QueryReadings answers both query modes. Without a cursor it returns the
// newest rows first (seek mode); with a cursor it returns rows strictly after
// (cursor.ts, cursor.id) in ascending order so the caller can advance the
// cursor to the last row and never see a gap or a duplicate.
func (d *SQLiteStore) QueryReadings(q models.MReadingQuery) ([]models.MReading, error) {
	filters := []string{"sr.facility_id = ?"}
	params := []interface{}{q.FacilityID}

	if q.AssetID != nil {
		filters = append(filters, "sr.asset_id = ?")
		params = append(params, *q.AssetID)
	}
	if q.MetricName != "" {
		filters = append(filters, "m.name = ?")
		params = append(params, q.MetricName)
	}
	filters = append(filters, "sr.ts >= ?", "sr.ts <= ?")
	params = append(params, q.StartTS, q.EndTS)

	orderClause := "ORDER BY sr.ts DESC, sr.id DESC"
	if q.Cursor != nil {
		filters = append(filters, "(sr.ts > ? OR (sr.ts = ? AND sr.id > ?))")
		params = append(params, q.Cursor.Timestamp, q.Cursor.Timestamp, q.Cursor.ID)
		orderClause = "ORDER BY sr.ts ASC, sr.id ASC"
	}

	query := fmt.Sprintf(`
		SELECT sr.id, sr.facility_id, sr.asset_id, a.name, sr.metric_id, m.name, COALESCE(m.unit, ''), sr.ts, sr.value
		FROM sensor_readings sr
		JOIN assets a ON a.id = sr.asset_id
		JOIN metrics m ON m.id = sr.metric_id
		WHERE %s
		%s
		LIMIT ?
	`, strings.Join(filters, " AND "), orderClause)
	params = append(params, q.Limit)

	rows, err := d.DB.Query(query, params...)
	if err != nil {
		return nil, helpers.NewDatabaseError("readings query failed", err)
	}
	defer rows.Close()

	var readings []models.MReading
	for rows.Next() {
		var r models.MReading
		if err := rows.Scan(&r.ID, &r.FacilityID, &r.AssetID, &r.AssetName, &r.MetricID, &r.MetricName, &r.Unit, &r.Timestamp, &r.Value); err != nil {
			return nil, helpers.NewDatabaseError("readings scan failed", err)
		}
		readings = append(readings, r)
	}
	return readings, rows.Err()
}

// -----------------------------------------------------------------------------

func (d *SQLiteStore) InsertReadings(readings []models.MReading) error {
	if len(readings) == 0 {
		return nil
	}

	tx, err := d.DB.Begin()
	if err != nil {
		return helpers.NewDatabaseError("begin insert transaction failed", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO sensor_readings (facility_id, asset_id, metric_id, ts, value)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return helpers.NewDatabaseError("prepare insert failed", err)
	}
	defer stmt.Close()

	for _, r := range readings {
		if _, err := stmt.Exec(r.FacilityID, r.AssetID, r.MetricID, r.Timestamp, r.Value); err != nil {
			return helpers.NewDatabaseError("insert reading failed", err)
		}
	}

	return tx.Commit()
}

// -----------------------------------------------------------------------------
// Fixture helpers used by seeding and tests (not part of IReadingStore).
// -----------------------------------------------------------------------------

func (d *SQLiteStore) CreateFacility(name, location string, createdAt int64) (int64, error) {
	res, err := d.DB.Exec(
		"INSERT INTO facilities (name, location, created_at) VALUES (?, ?, ?)",
		name, location, createdAt,
	)
	if err != nil {
		return 0, helpers.NewDatabaseError("insert facility failed", err)
	}
	return res.LastInsertId()
}

func (d *SQLiteStore) CreateAsset(facilityID int64, name, assetType string, createdAt int64) (int64, error) {
	res, err := d.DB.Exec(
		"INSERT INTO assets (facility_id, name, asset_type, created_at) VALUES (?, ?, ?, ?)",
		facilityID, name, assetType, createdAt,
	)
	if err != nil {
		return 0, helpers.NewDatabaseError("insert asset failed", err)
	}
	return res.LastInsertId()
}

func (d *SQLiteStore) CreateMetric(name, unit string) (int64, error) {
	res, err := d.DB.Exec(
		"INSERT INTO metrics (name, unit) VALUES (?, ?) ON CONFLICT (name) DO UPDATE SET unit = excluded.unit",
		name, unit,
	)
	if err != nil {
		return 0, helpers.NewDatabaseError("insert metric failed", err)
	}
	return res.LastInsertId()
}

// -----------------------------------------------------------------------------

func (d *SQLiteStore) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}
