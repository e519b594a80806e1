package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"facility-observer/src/client"
	"facility-observer/src/config"
	"facility-observer/src/logger"
)

// -----------------------------------------------------------------------------
// watch: terminal polling client. Runs the sync controller against a running
// facility-observer server and prints the summary cards plus the downsampled
// series after every tick.
// -----------------------------------------------------------------------------

func main() {

	configPath := flag.String("config", "config/default.yaml", "path to config file")
	facilityID := flag.Int64("facility", 1, "facility id to watch")
	metricName := flag.String("metric", "", "optional metric filter (e.g. power_kw)")
	assetID := flag.Int64("asset", 0, "optional asset id filter (0 = all assets)")
	flag.Parse()

	cfg, err := config.NewConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	appLogger := logger.NewLogger(cfg.LogLevel, "watch")

	interval := time.Duration(cfg.Client.PollIntervalSeconds) * time.Second
	api := client.NewAPIClient(cfg.Client.ServerURL, interval, appLogger)
	controller := client.NewSyncController(cfg.Client, api, appLogger)

	var asset *int64
	if *assetID > 0 {
		asset = assetID
	}
	controller.SetSession(*facilityID, asset, *metricName)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-quit
		cancel()
	}()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	appLogger.Info("Watching facility %d (poll every %s)", *facilityID, interval)

	for {
		controller.RunTick(ctx)
		printStatus(controller, *metricName)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// -----------------------------------------------------------------------------

func printStatus(controller *client.SyncController, metricFilter string) {
	fmt.Printf("\n=== %s | state=%s | buffered=%d readings\n",
		time.Now().Format("15:04:05"), controller.State(), controller.WorkingSetSize())

	if err := controller.LastError(); err != nil {
		fmt.Printf("    error: %v (degraded=%v)\n", err, controller.Degraded())
	}

	snapshot := controller.Snapshot()
	if snapshot == nil {
		fmt.Println("    no summary yet")
		return
	}

	for _, m := range snapshot.Metrics {
		kind := controller.SelectionFor(m.MetricName)
		fmt.Printf("    %-12s %10.2f %-6s (%s over %d assets, latest %s)\n",
			m.MetricName, m.Aggregates.Value(kind), m.Unit, kind,
			m.ContributingAssets, time.Unix(m.LatestTS, 0).Format("15:04:05"))
	}

	if metricFilter != "" {
		series := controller.DisplaySeries(metricFilter)
		if len(series) > 0 {
			last := series[len(series)-1]
			fmt.Printf("    series %s: %d points, last %.2f @ %s\n",
				metricFilter, len(series), last.Value, time.Unix(last.Timestamp, 0).Format("15:04:05"))
		}
	}
}
