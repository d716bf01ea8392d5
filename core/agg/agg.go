// Package agg has the classification, deduplication and recency-weighting
// logic that turns a raw GitLab event feed into weighted activity records.
package agg

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/huangsam/recap/schema"
)

// ErrInvalidTimestamp is returned in strict mode when an event carries
// a timestamp that cannot be parsed.
var ErrInvalidTimestamp = errors.New("invalid event timestamp")

// timestampLayouts are tried in order. Layouts without a zone are read in local time.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
}

// Stats summarizes one aggregation run.
type Stats struct {
	Seen       int                         `json:"seen"`
	Classified map[schema.ActivityKind]int `json:"classified"`
	Ignored    int                         `json:"ignored"`
	Skipped    int                         `json:"skipped"`
	Replaced   int                         `json:"replaced"`
	Retained   int                         `json:"retained"`
}

// Aggregator owns the dedup map of a single aggregation run.
// The zero value is an unclamped, lenient aggregator.
type Aggregator struct {
	Weigher Weigher

	// Strict fails the run on the first unparseable timestamp instead of
	// skipping the event.
	Strict bool
}

// Aggregate runs classify, weight, merge and sort over events.
// now is fixed once by the caller and used for every weight in the run.
func (a Aggregator) Aggregate(events []schema.RawEvent, username string, now time.Time) ([]schema.ActivityRecord, error) {
	records, _, err := a.AggregateWithStats(events, username, now)
	return records, err
}

// AggregateWithStats is Aggregate plus the counters of the run.
func (a Aggregator) AggregateWithStats(events []schema.RawEvent, username string, now time.Time) ([]schema.ActivityRecord, Stats, error) {
	stats := Stats{Classified: make(map[schema.ActivityKind]int, len(schema.AllActivityKinds))}
	set := newRecordSet(len(events))

	for _, event := range events {
		stats.Seen++

		eventTime, err := ParseTimestamp(event.CreatedAt)
		if err != nil {
			if a.Strict {
				return nil, stats, fmt.Errorf("event %d: %w", event.ID, err)
			}
			slog.Warn("skipping event with unparseable timestamp", "event_id", event.ID, "created_at", event.CreatedAt)
			stats.Skipped++
			continue
		}

		weight := a.Weigher.Weigh(now, eventTime)
		key, record, ok := Classify(event, username, weight, eventTime)
		if !ok {
			stats.Ignored++
			continue
		}
		stats.Classified[record.Kind]++
		if set.put(key, record) {
			stats.Replaced++
		}
	}

	result := set.values()
	SortByRecency(result)
	stats.Retained = len(result)
	return result, stats, nil
}

// ParseTimestamp parses an ISO-8601 event timestamp.
func ParseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty", ErrInvalidTimestamp)
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, s)
}

// SortByRecency orders records newest first. Records without a timestamp sort last.
// The sort is stable so ties keep their insertion order.
func SortByRecency(records []schema.ActivityRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		ti, tj := records[i].Timestamp, records[j].Timestamp
		switch {
		case ti == nil:
			return false
		case tj == nil:
			return true
		default:
			return ti.After(*tj)
		}
	})
}

// recordSet is an insertion-ordered map from dedup key to record.
// Overwriting a key keeps its original position.
type recordSet struct {
	index   map[schema.DedupKey]int
	records []schema.ActivityRecord
}

func newRecordSet(capacity int) *recordSet {
	return &recordSet{
		index:   make(map[schema.DedupKey]int, capacity),
		records: make([]schema.ActivityRecord, 0, capacity),
	}
}

// put stores record under key and reports whether an earlier record was replaced.
func (s *recordSet) put(key schema.DedupKey, record schema.ActivityRecord) bool {
	if i, ok := s.index[key]; ok {
		s.records[i] = record
		return true
	}
	s.index[key] = len(s.records)
	s.records = append(s.records, record)
	return false
}

func (s *recordSet) values() []schema.ActivityRecord {
	out := make([]schema.ActivityRecord, len(s.records))
	copy(out, s.records)
	return out
}
