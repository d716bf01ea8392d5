package agg

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/huangsam/recap/internal/contract"
	"github.com/huangsam/recap/schema"
	"golang.org/x/sync/errgroup"
)

// Enrichment defaults.
const (
	DefaultEnrichTimeout = 10 * time.Second
	DefaultEnrichWorkers = 4
)

var iidRe = regexp.MustCompile(`\(IID (\d+)\)`)

// ErrNoFetcher is reported for every merge record when the Enricher has no Fetcher.
var ErrNoFetcher = errors.New("no description fetcher configured")

// Enricher back-fills merge request descriptions through a DescriptionFetcher.
// Without a Fetcher every merge record counts as a failed fetch.
type Enricher struct {
	Fetcher contract.DescriptionFetcher
	Timeout time.Duration
	Workers int
}

// Enrich replaces the empty description of every merge record with the
// description fetched for its project and IID. A failed fetch leaves the
// description empty, logs a warning, and never affects other records.
// Records are updated in place so their order is preserved.
func (e *Enricher) Enrich(ctx context.Context, records []schema.ActivityRecord) schema.EnrichStats {
	timeout := e.Timeout
	if timeout <= 0 {
		timeout = DefaultEnrichTimeout
	}
	workers := e.Workers
	if workers <= 0 {
		workers = DefaultEnrichWorkers
	}

	var attempted, enriched, failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range records {
		if !strings.HasPrefix(records[i].Title, schema.MergeTitlePrefix) {
			continue
		}
		attempted.Add(1)
		g.Go(func() error {
			desc, err := e.fetchOne(gctx, records[i], timeout)
			if err != nil {
				slog.Warn("failed to fetch merge request description", "title", records[i].Title, "project_id", records[i].ProjectID, "error", err)
				failed.Add(1)
				return nil
			}
			records[i].Description = desc
			enriched.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	return schema.EnrichStats{
		Attempted: int(attempted.Load()),
		Enriched:  int(enriched.Load()),
		Failed:    int(failed.Load()),
	}
}

func (e *Enricher) fetchOne(ctx context.Context, record schema.ActivityRecord, timeout time.Duration) (string, error) {
	if e.Fetcher == nil {
		return "", ErrNoFetcher
	}
	iid, err := ParseIID(record.Title)
	if err != nil {
		return "", err
	}
	fetchCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return e.Fetcher.FetchMergeRequestDescription(fetchCtx, record.ProjectID, iid)
}

// ParseIID extracts the merge request IID from a merge record title.
func ParseIID(title string) (int64, error) {
	m := iidRe.FindStringSubmatch(title)
	if m == nil {
		return 0, fmt.Errorf("no IID in title %q", title)
	}
	return strconv.ParseInt(m[1], 10, 64)
}
