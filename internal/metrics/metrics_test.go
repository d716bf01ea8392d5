package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/recap/schema"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordAggregation(t *testing.T) {
	beforeSeen := testutil.ToFloat64(eventsCounter.WithLabelValues("seen"))
	beforeMerge := testutil.ToFloat64(classifiedCounter.WithLabelValues("merge"))

	RecordAggregation(AggregationCounts{
		Seen:       6,
		Ignored:    2,
		Replaced:   1,
		Retained:   3,
		Classified: map[schema.ActivityKind]int{schema.MergeKind: 1, schema.PushKind: 2},
	})

	assert.Equal(t, beforeSeen+6, testutil.ToFloat64(eventsCounter.WithLabelValues("seen")))
	assert.Equal(t, beforeMerge+1, testutil.ToFloat64(classifiedCounter.WithLabelValues("merge")))
	assert.Equal(t, 3.0, testutil.ToFloat64(recordsGauge))
}

func TestRecordEnrichmentAndCache(t *testing.T) {
	beforeFailed := testutil.ToFloat64(enrichCounter.WithLabelValues("failed"))
	beforeHit := testutil.ToFloat64(cacheCounter.WithLabelValues("hit"))

	RecordEnrichment(schema.EnrichStats{Attempted: 3, Enriched: 2, Failed: 1})
	RecordCacheLookup(true)

	assert.Equal(t, beforeFailed+1, testutil.ToFloat64(enrichCounter.WithLabelValues("failed")))
	assert.Equal(t, beforeHit+1, testutil.ToFloat64(cacheCounter.WithLabelValues("hit")))
}

func TestWriteTextfile(t *testing.T) {
	RecordRun("activity", 120*time.Millisecond, nil)
	RecordRun("summary", time.Second, errors.New("boom"))

	path := filepath.Join(t.TempDir(), "recap.prom")
	require.NoError(t, WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, "recap_run_duration_seconds_count{command=\"activity\",status=\"ok\"} 1")
	assert.Contains(t, out, "recap_run_duration_seconds_count{command=\"summary\",status=\"error\"} 1")
	assert.Contains(t, out, "recap_run_last_run_timestamp_seconds")
}
