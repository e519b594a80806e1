package summary

import (
	"sort"
	"time"

	"facility-observer/src/helpers"
	"facility-observer/src/interfaces"
	"facility-observer/src/logger"
	"facility-observer/src/models"
)

// -----------------------------------------------------------------------------
// Aggregator
// -----------------------------------------------------------------------------

// Aggregator computes the per-facility dashboard snapshot: the latest reading
// per (asset, metric) pair, aggregated across assets by metric.
type Aggregator struct {
	Store  interfaces.IReadingStore
	Logger *logger.Logger
	Cache  *FingerprintCache

	// Static classification: additive metrics default their card to sum,
	// state-type metrics to avg. Config data, never inferred at runtime.
	additive map[string]bool
}

// -----------------------------------------------------------------------------

func NewAggregator(cfg *models.MConfig, store interfaces.IReadingStore, log *logger.Logger) *Aggregator {
	additive := make(map[string]bool, len(cfg.Summary.AdditiveMetrics))
	for _, name := range cfg.Summary.AdditiveMetrics {
		additive[name] = true
	}

	return &Aggregator{
		Store:    store,
		Logger:   log,
		Cache:    NewFingerprintCache(),
		additive: additive,
	}
}

// -----------------------------------------------------------------------------

// DefaultAggregation returns the configured default card aggregation for a metric.
func (a *Aggregator) DefaultAggregation(metricName string) models.MAggregationKind {
	if a.additive[metricName] {
		return models.AggSum
	}
	return models.AggAvg
}

// -----------------------------------------------------------------------------

// GetSummary computes the facility snapshot and its fingerprint. When
// clientFingerprint matches the fresh fingerprint the snapshot body is
// elided: (true, nil, fingerprint, nil). A facility with zero assets or
// readings yields an empty snapshot, not an error.
func (a *Aggregator) GetSummary(facilityID int64, clientFingerprint string) (bool, *models.MSummary, string, error) {
	exists, err := a.Store.FacilityExists(facilityID)
	if err != nil {
		return false, nil, "", err
	}
	if !exists {
		return false, nil, "", helpers.NewNotFoundError("facility %d not found", facilityID)
	}

	latest, err := a.Store.LatestPerAssetMetric(facilityID)
	if err != nil {
		return false, nil, "", err
	}

	metrics := a.aggregate(latest)
	fingerprint := Fingerprint(metrics)
	a.Cache.Record(facilityID, fingerprint)

	if clientFingerprint != "" && clientFingerprint == fingerprint {
		return true, nil, fingerprint, nil
	}

	snapshot := &models.MSummary{
		FacilityID:  facilityID,
		GeneratedAt: time.Now().UTC().Unix(),
		Metrics:     metrics,
	}
	return false, snapshot, fingerprint, nil
}

// -----------------------------------------------------------------------------

// aggregate groups the latest per-(asset, metric) values by metric and
// computes sum/avg/min/max over the contributing assets. Output is sorted by
// metric name so the fingerprint is order-independent.
func (a *Aggregator) aggregate(latest []models.MLatestValue) []models.MSummaryMetric {
	type bucket struct {
		unit     string
		latestTS int64
		count    int
		sum      float64
		min      float64
		max      float64
	}
	buckets := make(map[string]*bucket)

	for _, lv := range latest {
		b, ok := buckets[lv.MetricName]
		if !ok {
			b = &bucket{
				unit: lv.Unit,
				min:  lv.Value,
				max:  lv.Value,
			}
			buckets[lv.MetricName] = b
		}

		b.count++
		b.sum += lv.Value
		if lv.Value < b.min {
			b.min = lv.Value
		}
		if lv.Value > b.max {
			b.max = lv.Value
		}
		if lv.Timestamp > b.latestTS {
			b.latestTS = lv.Timestamp
		}
	}

	metrics := make([]models.MSummaryMetric, 0, len(buckets))
	for name, b := range buckets {
		metrics = append(metrics, models.MSummaryMetric{
			MetricName:         name,
			Unit:               b.unit,
			LatestTS:           b.latestTS,
			ContributingAssets: b.count,
			Aggregates: models.MAggregates{
				Sum: b.sum,
				Avg: b.sum / float64(b.count),
				Min: b.min,
				Max: b.max,
			},
			DefaultAggregation: a.DefaultAggregation(name),
		})
	}

	sort.Slice(metrics, func(i, j int) bool {
		return metrics[i].MetricName < metrics[j].MetricName
	})
	return metrics
}
