// Package metrics holds the Prometheus counters of a recap run.
package metrics

import (
	"time"

	"github.com/huangsam/recap/schema"
	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds only recap series, so a textfile dump carries nothing else.
var Registry = prometheus.NewRegistry()

var (
	eventsCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "recap",
		Subsystem: "aggregate",
		Name:      "events_total",
		Help:      "Number of raw events seen by the aggregator, by outcome.",
	}, []string{"outcome"})

	classifiedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "recap",
		Subsystem: "aggregate",
		Name:      "classified_total",
		Help:      "Number of events classified, by activity kind.",
	}, []string{"kind"})

	recordsGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "recap",
		Subsystem: "aggregate",
		Name:      "records",
		Help:      "Number of activity records produced by the last aggregation.",
	})

	enrichCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "recap",
		Subsystem: "enrich",
		Name:      "fetches_total",
		Help:      "Number of merge request description fetches, by result.",
	}, []string{"result"})

	cacheCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "recap",
		Subsystem: "cache",
		Name:      "lookups_total",
		Help:      "Number of event cache lookups, by result.",
	}, []string{"result"})

	runDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "recap",
		Subsystem: "run",
		Name:      "duration_seconds",
		Help:      "Wall time of a command run.",
		Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
	}, []string{"command", "status"})

	lastRunGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "recap",
		Subsystem: "run",
		Name:      "last_run_timestamp_seconds",
		Help:      "Unix timestamp of the most recent completed run.",
	})
)

func init() {
	Registry.MustRegister(eventsCounter, classifiedCounter, recordsGauge, enrichCounter, cacheCounter, runDuration, lastRunGauge)
}

// AggregationCounts mirrors the tallies of one aggregation pass.
type AggregationCounts struct {
	Seen       int
	Ignored    int
	Skipped    int
	Replaced   int
	Retained   int
	Classified map[schema.ActivityKind]int
}

// RecordAggregation adds the tallies of one aggregation pass.
func RecordAggregation(c AggregationCounts) {
	eventsCounter.WithLabelValues("seen").Add(float64(c.Seen))
	eventsCounter.WithLabelValues("ignored").Add(float64(c.Ignored))
	eventsCounter.WithLabelValues("skipped").Add(float64(c.Skipped))
	eventsCounter.WithLabelValues("replaced").Add(float64(c.Replaced))
	for kind, n := range c.Classified {
		classifiedCounter.WithLabelValues(string(kind)).Add(float64(n))
	}
	recordsGauge.Set(float64(c.Retained))
}

// RecordEnrichment adds the results of one enrichment pass.
func RecordEnrichment(s schema.EnrichStats) {
	enrichCounter.WithLabelValues("enriched").Add(float64(s.Enriched))
	enrichCounter.WithLabelValues("failed").Add(float64(s.Failed))
}

// RecordCacheLookup counts an event cache hit or miss.
func RecordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	cacheCounter.WithLabelValues(result).Inc()
}

// RecordRun observes the duration of a command.
func RecordRun(command string, d time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	runDuration.WithLabelValues(command, status).Observe(d.Seconds())
	lastRunGauge.Set(float64(time.Now().Unix()))
}

// WriteTextfile writes every series in the textfile exposition format, for
// pickup by a node exporter textfile collector.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, Registry)
}
