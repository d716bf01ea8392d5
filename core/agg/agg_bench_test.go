package agg

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/huangsam/recap/schema"
)

// benchFeed builds a feed of n events cycling through the three kinds, with
// every fourth event a duplicate of an earlier one.
func benchFeed(n int) []schema.RawEvent {
	events := make([]schema.RawEvent, 0, n)
	for i := range n {
		at := refNow.Add(-time.Duration(i) * time.Minute)
		id := int64(i)
		if i%4 == 3 {
			id = int64(i - 3)
		}
		switch i % 3 {
		case 0:
			events = append(events, mergeEvent(id%50, id, id, at))
		case 1:
			events = append(events, pushEvent(id%50, "commit "+at.Format(time.Kitchen), at))
		default:
			events = append(events, noteEvent(id%50, id, "looks good", at))
		}
	}
	return events
}

func quietLogs(b *testing.B) {
	b.Helper()
	orig := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
	b.Cleanup(func() { slog.SetDefault(orig) })
}

func BenchmarkAggregate(b *testing.B) {
	quietLogs(b)
	for _, size := range []int{100, 1000, 10000} {
		events := benchFeed(size)
		b.Run(fmt.Sprintf("events=%d", size), func(b *testing.B) {
			b.ReportAllocs()
			for b.Loop() {
				if _, err := (Aggregator{}).Aggregate(events, "jdoe", refNow); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkEnrich(b *testing.B) {
	quietLogs(b)
	records, err := (Aggregator{}).Aggregate(benchFeed(1000), "jdoe", refNow)
	if err != nil {
		b.Fatal(err)
	}
	fetcher := &stubFetcher{descriptions: map[[2]int64]string{}}
	for _, workers := range []int{1, 4, 16} {
		b.Run(fmt.Sprintf("workers=%d", workers), func(b *testing.B) {
			e := &Enricher{Fetcher: fetcher, Workers: workers}
			for b.Loop() {
				batch := make([]schema.ActivityRecord, len(records))
				copy(batch, records)
				e.Enrich(context.Background(), batch)
			}
		})
	}
}
