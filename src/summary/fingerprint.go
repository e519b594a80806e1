package summary

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"math"

	"facility-observer/src/models"
)

// -----------------------------------------------------------------------------
// Content fingerprinting
// -----------------------------------------------------------------------------

// Fingerprint derives an opaque token from the snapshot content. The hash
// covers the ordered (metric, latest_ts, sum, avg, min, max) tuples and
// nothing else, so two snapshots with identical values hash identically no
// matter when they were computed, and any change to a contributing latest
// reading changes the token.
//
// Callers must pass metrics already sorted by name; GetSummary guarantees
// that, which also makes the token independent of store row order.
func Fingerprint(metrics []models.MSummaryMetric) string {
	h := fnv.New64a()
	var buf [8]byte

	writeFloat := func(v float64) {
		binary.BigEndian.PutUint64(buf[:], math.Float64bits(v))
		h.Write(buf[:])
	}

	for _, m := range metrics {
		h.Write([]byte(m.MetricName))
		h.Write([]byte{0}) // name terminator, keeps "ab"+"c" distinct from "a"+"bc"
		binary.BigEndian.PutUint64(buf[:], uint64(m.LatestTS))
		h.Write(buf[:])
		writeFloat(m.Aggregates.Sum)
		writeFloat(m.Aggregates.Avg)
		writeFloat(m.Aggregates.Min)
		writeFloat(m.Aggregates.Max)
	}

	return fmt.Sprintf("%016x", h.Sum64())
}
