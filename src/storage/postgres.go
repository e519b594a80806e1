package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"facility-observer/src/helpers"
	"facility-observer/src/logger"
	"facility-observer/src/models"

	_ "github.com/lib/pq"
)

// -----------------------------------------------------------------------------

type PostgresStore struct {
	Config *models.MConfig
	DB     *sql.DB
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewPostgresStore(cfg *models.MConfig, log *logger.Logger) (*PostgresStore, error) {
	return &PostgresStore{
		Config: cfg,
		Logger: log,
	}, nil
}

// -----------------------------------------------------------------------------

func (d *PostgresStore) Initialize() error {
	dsn := d.Config.Storage.DBConnectionString
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return err
	}

	// The database may still be coming up when we are.
	err = helpers.RetryWithBackoff("postgres ping", 5, time.Second, db.Ping)
	if err != nil {
		return err
	}

	d.DB = db

	if err := d.createTables(); err != nil {
		return err
	}

	d.Logger.Info("PostgresStore initialized successfully")
	return nil
}

// -----------------------------------------------------------------------------

func (d *PostgresStore) createTables() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS facilities (
			id BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			location TEXT,
			created_at BIGINT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS assets (
			id BIGSERIAL PRIMARY KEY,
			facility_id BIGINT NOT NULL REFERENCES facilities(id),
			name TEXT NOT NULL,
			asset_type TEXT,
			created_at BIGINT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS metrics (
			id BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			unit TEXT
		);`,
		`CREATE TABLE IF NOT EXISTS sensor_readings (
			id BIGSERIAL PRIMARY KEY,
			facility_id BIGINT NOT NULL REFERENCES facilities(id),
			asset_id BIGINT NOT NULL REFERENCES assets(id),
			metric_id BIGINT NOT NULL REFERENCES metrics(id),
			ts BIGINT NOT NULL,
			value DOUBLE PRECISION NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_readings_facility_ts_id
			ON sensor_readings (facility_id, ts, id);`,
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

func (d *PostgresStore) ListFacilities() ([]models.MFacility, error) {
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

func (d *PostgresStore) FacilityExists(facilityID int64) (bool, error) {
	var one int
	err := d.DB.QueryRow("SELECT 1 FROM facilities WHERE id = $1", facilityID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, helpers.NewDatabaseError("facility lookup failed", err)
	}
	return true, nil
}

// -----------------------------------------------------------------------------

func (d *PostgresStore) GetFacility(facilityID int64) (*models.MFacilityDetails, error) {
	var details models.MFacilityDetails
	err := d.DB.QueryRow(`
		SELECT id, name, COALESCE(location, ''), created_at
		FROM facilities
		WHERE id = $1
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
		WHERE facility_id = $1
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

// LatestPerAssetMetric uses DISTINCT ON, which Postgres resolves with the
// same (ts DESC, id DESC) tie-break the pagination contract defines.
func (d *PostgresStore) LatestPerAssetMetric(facilityID int64) ([]models.MLatestValue, error) {
	rows, err := d.DB.Query(`
		SELECT DISTINCT ON (sr.asset_id, sr.metric_id)
			sr.asset_id, m.name, COALESCE(m.unit, ''), sr.ts, sr.value
		FROM sensor_readings sr
		JOIN metrics m ON m.id = sr.metric_id
		WHERE sr.facility_id = $1
		ORDER BY sr.asset_id, sr.metric_id, sr.ts DESC, sr.id DESC
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

func (d *PostgresStore) QueryReadings(q models.MReadingQuery) ([]models.MReading, error) {
	filters := []string{}
	params := []interface{}{}
	arg := func(v interface{}) string {
		params = append(params, v)
		return fmt.Sprintf("$%d", len(params))
	}

	filters = append(filters, "sr.facility_id = "+arg(q.FacilityID))
	if q.AssetID != nil {
		filters = append(filters, "sr.asset_id = "+arg(*q.AssetID))
	}
	if q.MetricName != "" {
		filters = append(filters, "m.name = "+arg(q.MetricName))
	}
	filters = append(filters, "sr.ts >= "+arg(q.StartTS))
	filters = append(filters, "sr.ts <= "+arg(q.EndTS))

	orderClause := "ORDER BY sr.ts DESC, sr.id DESC"
	if q.Cursor != nil {
		tsArg := arg(q.Cursor.Timestamp)
		filters = append(filters, fmt.Sprintf("(sr.ts > %s OR (sr.ts = %s AND sr.id > %s))",
			tsArg, tsArg, arg(q.Cursor.ID)))
		orderClause = "ORDER BY sr.ts ASC, sr.id ASC"
	}

	query := fmt.Sprintf(`
		SELECT sr.id, sr.facility_id, sr.asset_id, a.name, sr.metric_id, m.name, COALESCE(m.unit, ''), sr.ts, sr.value
		FROM sensor_readings sr
		JOIN assets a ON a.id = sr.asset_id
		JOIN metrics m ON m.id = sr.metric_id
		WHERE %s
		%s
		LIMIT %s
	`, strings.Join(filters, " AND "), orderClause, arg(q.Limit))

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

func (d *PostgresStore) InsertReadings(readings []models.MReading) error {
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
		VALUES ($1, $2, $3, $4, $5)
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
// Fixture helpers used by seeding (not part of IReadingStore).
// -----------------------------------------------------------------------------

func (d *PostgresStore) CreateFacility(name, location string, createdAt int64) (int64, error) {
	var id int64
	err := d.DB.QueryRow(
		"INSERT INTO facilities (name, location, created_at) VALUES ($1, $2, $3) RETURNING id",
		name, location, createdAt,
	).Scan(&id)
	if err != nil {
		return 0, helpers.NewDatabaseError("insert facility failed", err)
	}
	return id, nil
}

func (d *PostgresStore) CreateAsset(facilityID int64, name, assetType string, createdAt int64) (int64, error) {
	var id int64
	err := d.DB.QueryRow(
		"INSERT INTO assets (facility_id, name, asset_type, created_at) VALUES ($1, $2, $3, $4) RETURNING id",
		facilityID, name, assetType, createdAt,
	).Scan(&id)
	if err != nil {
		return 0, helpers.NewDatabaseError("insert asset failed", err)
	}
	return id, nil
}

func (d *PostgresStore) CreateMetric(name, unit string) (int64, error) {
	var id int64
	err := d.DB.QueryRow(
		"INSERT INTO metrics (name, unit) VALUES ($1, $2) ON CONFLICT (name) DO UPDATE SET unit = excluded.unit RETURNING id",
		name, unit,
	).Scan(&id)
	if err != nil {
		return 0, helpers.NewDatabaseError("insert metric failed", err)
	}
	return id, nil
}

// -----------------------------------------------------------------------------

func (d *PostgresStore) Close() error {
	if d.DB != nil {
		return d.DB.Close()
	}
	return nil
}
