package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"facility-observer/src/config"
	"facility-observer/src/interfaces"
	"facility-observer/src/logger"
	"facility-observer/src/models"
	"facility-observer/src/server"
	"facility-observer/src/storage"
	"facility-observer/src/summary"
)

// -----------------------------------------------------------------------------

func main() {

	// Parse command line flags
	configPath := flag.String("config", "config/default.yaml", "path to config file")
	demo := flag.Bool("demo", false, "seed demo fixtures and keep generating readings")
	flag.Parse()

	// Load config from YAML file
	cfg, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	// Setup logger
	appLogger := logger.NewLogger(cfg.LogLevel, cfg.Name)

	// 2. Setup store
	var store interfaces.IReadingStore

	switch cfg.Storage.DBType {
	case "postgres":
		store, err = storage.NewPostgresStore(cfg.MConfig, appLogger)
	default:
		// Default to SQLite
		store, err = storage.NewSQLiteStore(cfg.MConfig, appLogger)
	}

	if err != nil {
		appLogger.Critical("Failed to init store: %v", err)
	}
	if err := store.Initialize(); err != nil {
		appLogger.Critical("Failed to migrate store: %v", err)
	}
	defer store.Close()

	// 3. Demo fixtures (optional)
	if *demo {
		if err := runDemo(store, appLogger); err != nil {
			appLogger.Error("Demo seeding failed: %v", err)
		}
	}

	// 4. Summary aggregator + HTTP server
	aggregator := summary.NewAggregator(cfg.MConfig, store, appLogger)
	srv := server.NewAPIServer(cfg.MConfig, store, aggregator, appLogger)

	go func() {
		if err := srv.Start(); err != nil {
			appLogger.Critical("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down...")
}

// -----------------------------------------------------------------------------
// Demo mode: seed one facility and keep appending readings so a polling
// client has something to sync.
// -----------------------------------------------------------------------------

type seeder interface {
	CreateFacility(name, location string, createdAt int64) (int64, error)
	CreateAsset(facilityID int64, name, assetType string, createdAt int64) (int64, error)
	CreateMetric(name, unit string) (int64, error)
}

func runDemo(store interfaces.IReadingStore, log *logger.Logger) error {
	sdr, ok := store.(seeder)
	if !ok {
		return fmt.Errorf("store does not support seeding")
	}

	existing, err := store.ListFacilities()
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		log.Info("Demo: facilities already present, skipping fixture seeding")
		return nil
	}

	now := time.Now().UTC().Unix()

	facilityID, err := sdr.CreateFacility("Plant North", "Rotterdam", now)
	if err != nil {
		return err
	}

	var assetIDs []int64
	for _, name := range []string{"compressor-1", "compressor-2", "chiller-1"} {
		id, err := sdr.CreateAsset(facilityID, name, "hvac", now)
		if err != nil {
			return err
		}
		assetIDs = append(assetIDs, id)
	}

	metrics := map[string]string{
		"power_kw":   "kW",
		"temp_c":     "°C",
		"flow_l_min": "L/min",
	}
	metricIDs := make(map[string]int64)
	for name, unit := range metrics {
		id, err := sdr.CreateMetric(name, unit)
		if err != nil {
			return err
		}
		metricIDs[name] = id
	}

	log.Info("Demo: seeded facility %d with %d assets", facilityID, len(assetIDs))

	// Keep appending one reading per (asset, metric) every few seconds.
	go func() {
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()

		for range ticker.C {
			ts := time.Now().UTC().Unix()
			var batch []models.MReading
			for _, assetID := range assetIDs {
				for name, metricID := range metricIDs {
					batch = append(batch, models.MReading{
						FacilityID: facilityID,
						AssetID:    assetID,
						MetricID:   metricID,
						Timestamp:  ts,
						Value:      demoValue(name),
					})
				}
			}
			if err := store.InsertReadings(batch); err != nil {
				log.Error("Demo: insert failed: %v", err)
			}
		}
	}()

	return nil
}

// -----------------------------------------------------------------------------

func demoValue(metricName string) float64 {
	switch metricName {
	case "power_kw":
		return 40 + rand.Float64()*20
	case "temp_c":
		return 18 + rand.Float64()*6
	default:
		return 100 + rand.Float64()*50
	}
}
