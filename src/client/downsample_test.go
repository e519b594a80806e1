package client

import (
	"testing"

	"facility-observer/src/models"
)

func seriesReading(id, ts int64, assetID int64, value float64) models.MReading {
	return models.MReading{ID: id, Timestamp: ts, AssetID: assetID, Value: value}
}

func TestDownsampleCollapsesByTimestamp(t *testing.T) {
	// Two assets report at the same timestamps.
	readings := []models.MReading{
		seriesReading(1, 100, 1, 10),
		seriesReading(2, 100, 2, 20),
		seriesReading(3, 200, 1, 30),
		seriesReading(4, 200, 2, 50),
	}

	points := Downsample(readings, models.AggSum, 10)
	if len(points) != 2 {
		t.Fatalf("Expected 2 collapsed points, got %d", len(points))
	}
	if points[0].Value != 30 || points[1].Value != 80 {
		t.Errorf("Sum collapse wrong: got %v, %v", points[0].Value, points[1].Value)
	}

	points = Downsample(readings, models.AggAvg, 10)
	if points[0].Value != 15 || points[1].Value != 40 {
		t.Errorf("Avg collapse wrong: got %v, %v", points[0].Value, points[1].Value)
	}

	points = Downsample(readings, models.AggMax, 10)
	if points[0].Value != 20 || points[1].Value != 50 {
		t.Errorf("Max collapse wrong: got %v, %v", points[0].Value, points[1].Value)
	}
}

func TestDownsampleUnderBudgetUnchanged(t *testing.T) {
	readings := []models.MReading{
		seriesReading(1, 100, 1, 1),
		seriesReading(2, 200, 1, 2),
		seriesReading(3, 300, 1, 3),
	}

	points := Downsample(readings, models.AggAvg, 5)
	if len(points) != 3 {
		t.Errorf("Series under budget must not be strided, got %d points", len(points))
	}
}

func TestDownsampleStrideKeepsEndpoints(t *testing.T) {
	var readings []models.MReading
	for i := int64(0); i < 100; i++ {
		readings = append(readings, seriesReading(i+1, 1000+i, 1, float64(i)))
	}

	budget := 10
	points := Downsample(readings, models.AggAvg, budget)
	if len(points) != budget {
		t.Fatalf("Expected exactly %d points, got %d", budget, len(points))
	}
	if points[0].Timestamp != 1000 {
		t.Errorf("First point must be retained, got ts %d", points[0].Timestamp)
	}
	if points[len(points)-1].Timestamp != 1099 {
		t.Errorf("Last point must be retained, got ts %d", points[len(points)-1].Timestamp)
	}

	// Strictly increasing timestamps: no duplicate picks.
	for i := 1; i < len(points); i++ {
		if points[i].Timestamp <= points[i-1].Timestamp {
			t.Fatalf("Stride sample not strictly increasing at %d", i)
		}
	}
}

func TestDownsampleEmptyAndTinyBudget(t *testing.T) {
	if pts := Downsample(nil, models.AggAvg, 10); pts != nil {
		t.Error("Empty input must produce no points")
	}

	readings := []models.MReading{seriesReading(1, 100, 1, 1)}
	if pts := Downsample(readings, models.AggAvg, 1); pts != nil {
		t.Error("Budget below 2 cannot produce a series")
	}
}
