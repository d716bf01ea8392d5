// Package core has core logic for collecting, weighting and summarizing GitLab activity.
package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/huangsam/recap/core/agg"
	"github.com/huangsam/recap/internal/contract"
	"github.com/huangsam/recap/internal/gitlab"
	"github.com/huangsam/recap/internal/llm"
	"github.com/huangsam/recap/internal/metrics"
	"github.com/huangsam/recap/internal/outwriter"
	"github.com/huangsam/recap/schema"
)

// ExecutorFunc defines the function signature for executing different commands.
type ExecutorFunc func(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error

// gitLabAPI is everything a run reads from GitLab.
type gitLabAPI interface {
	contract.EventSource
	contract.DescriptionFetcher
}

// newGitLabAPI and newTextGenerator build the remote collaborators of a run.
// They are variables so tests can substitute fakes.
var (
	newGitLabAPI = func(cfg *contract.Config) gitLabAPI {
		return gitlab.NewClient(cfg.GitLabURL, cfg.GitLabToken)
	}
	newTextGenerator = func(cfg *contract.Config) (contract.TextGenerator, error) {
		return llm.NewGenerator(cfg.LLMProvider, cfg.LLMAPIKey, llm.Options{
			Model:       cfg.LLMModel,
			BaseURL:     cfg.LLMBaseURL,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
			MaxRetries:  2,
		})
	}
)

// ExecuteActivity collects the weighted activity records of a user and writes them
// in the configured output format. It serves as the main entry point for the 'activity' command.
func ExecuteActivity(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) (err error) {
	start := time.Now()
	defer func() { metrics.RecordRun("activity", time.Since(start), err) }()

	result, err := CollectActivity(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WriteActivity(result, cfg, time.Since(start))
}

// ExecutePrompt prints the prompt that would be sent to the model, without calling it.
func ExecutePrompt(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) (err error) {
	start := time.Now()
	defer func() { metrics.RecordRun("prompt", time.Since(start), err) }()

	prompt, err := RenderPrompt(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WritePrompt(prompt, cfg)
}

// ExecuteSummary collects activity, asks the model for a LinkedIn-ready summary and
// writes it. A run without any records fails with contract.ErrNoActivity.
func ExecuteSummary(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) (err error) {
	start := time.Now()
	defer func() { metrics.RecordRun("summary", time.Since(start), err) }()

	result, err := Summarize(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WriteSummary(result, cfg, time.Since(start))
}

// CollectActivity runs the activity pipeline against the configured GitLab instance
// and records the run in the history store.
func CollectActivity(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) (*schema.ActivityResult, error) {
	if err := cfg.RequireGitLab(); err != nil {
		return nil, err
	}

	api := newGitLabAPI(cfg)
	ctx, runID := beginRun(ctx, cfg, mgr, "activity")
	result, err := GetActivityResults(ctx, cfg, api, api, mgr)
	if err != nil {
		return nil, err
	}
	endRun(ctx, mgr, runID, result.Records, 0)
	return result, nil
}

// RenderPrompt collects activity and builds the prompt the summary command would send.
func RenderPrompt(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) (string, error) {
	if err := cfg.RequireGitLab(); err != nil {
		return "", err
	}
	api := newGitLabAPI(cfg)
	result, err := GetActivityResults(ctx, cfg, api, api, mgr)
	if err != nil {
		return "", err
	}
	return BuildPrompt(result.Records), nil
}

// Summarize collects activity, generates the summary and records the run in the history store.
func Summarize(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) (*schema.SummaryResult, error) {
	if err := cfg.RequireGitLab(); err != nil {
		return nil, err
	}
	if err := cfg.RequireLLM(); err != nil {
		return nil, err
	}
	generator, err := newTextGenerator(cfg)
	if err != nil {
		return nil, err
	}

	api := newGitLabAPI(cfg)
	ctx, runID := beginRun(ctx, cfg, mgr, "summary")
	result, err := GenerateSummary(ctx, cfg, api, api, generator, mgr)
	if err != nil {
		return nil, err
	}
	endRun(ctx, mgr, runID, result.Records, len(result.Summary))
	return result, nil
}

// GetActivityResults runs the full pipeline for cfg.Username: resolve the user,
// fetch the event feed (through the cache), apply the group filter, aggregate,
// enrich merge descriptions and apply the result limit.
func GetActivityResults(ctx context.Context, cfg *contract.Config, source contract.EventSource, fetcher contract.DescriptionFetcher, mgr contract.CacheManager) (*schema.ActivityResult, error) {
	if !shouldSuppressHeader(ctx) {
		outwriter.LogRunHeader(cfg)
	}
	slog.InfoContext(ctx, "starting activity collection", "username", cfg.Username)

	// --- 1. Resolve user ---
	user, err := source.GetUser(ctx, cfg.Username)
	if err != nil {
		if errors.Is(err, gitlab.ErrUserNotFound) {
			return nil, fmt.Errorf("%w: %w", contract.ErrNoActivity, err)
		}
		return nil, fmt.Errorf("resolve user %s: %w", cfg.Username, err)
	}

	// --- 2. Fetch events (with caching) ---
	events, fromCache, err := cachedListEvents(ctx, cfg, source, user, mgr)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}

	// --- 3. Group filter ---
	if cfg.GroupID != "" {
		events, err = filterByGroup(ctx, source, cfg.GroupID, events)
		if err != nil {
			return nil, err
		}
	}

	// --- 4. Aggregate ---
	aggregator := agg.Aggregator{
		Weigher: agg.Weigher{Clamp: cfg.ClampWeights},
		Strict:  cfg.StrictTimestamps,
	}
	records, stats, err := aggregator.AggregateWithStats(events, cfg.Username, nowFromContext(ctx))
	if err != nil {
		return nil, err
	}
	metrics.RecordAggregation(metrics.AggregationCounts{
		Seen:       stats.Seen,
		Ignored:    stats.Ignored,
		Skipped:    stats.Skipped,
		Replaced:   stats.Replaced,
		Retained:   stats.Retained,
		Classified: stats.Classified,
	})

	// --- 5. Enrich merge descriptions ---
	enricher := &agg.Enricher{Fetcher: fetcher, Timeout: cfg.EnrichTimeout, Workers: cfg.Workers}
	enrichStats := enricher.Enrich(ctx, records)
	metrics.RecordEnrichment(enrichStats)

	// --- 6. Limit ---
	if cfg.ResultLimit > 0 && len(records) > cfg.ResultLimit {
		records = records[:cfg.ResultLimit]
	}

	slog.InfoContext(ctx, "activity collected",
		"username", cfg.Username,
		"events", len(events),
		"records", len(records),
		"from_cache", fromCache,
	)

	return &schema.ActivityResult{
		Username:  cfg.Username,
		Start:     cfg.StartTime,
		End:       cfg.EndTime,
		Events:    len(events),
		Records:   records,
		Enrich:    enrichStats,
		FromCache: fromCache,
	}, nil
}

// GenerateSummary collects activity and turns it into a summary with the generator.
func GenerateSummary(ctx context.Context, cfg *contract.Config, source contract.EventSource, fetcher contract.DescriptionFetcher, generator contract.TextGenerator, mgr contract.CacheManager) (*schema.SummaryResult, error) {
	result, err := GetActivityResults(ctx, cfg, source, fetcher, mgr)
	if err != nil {
		return nil, err
	}
	if len(result.Records) == 0 {
		slog.WarnContext(ctx, "no activities found for user", "username", cfg.Username)
		return nil, contract.ErrNoActivity
	}

	slog.DebugContext(ctx, "generating LinkedIn summary", "record_count", len(result.Records))
	summary, err := generator.GenerateSummary(ctx, BuildPrompt(result.Records))
	if err != nil {
		return nil, fmt.Errorf("generate summary: %w", err)
	}

	return &schema.SummaryResult{
		Username: cfg.Username,
		Summary:  summary,
		Provider: cfg.LLMProvider,
		Model:    cfg.LLMModel,
		Records:  result.Records,
	}, nil
}

// filterByGroup keeps the events whose project belongs to the group or one of its subgroups.
func filterByGroup(ctx context.Context, source contract.EventSource, groupID string, events []schema.RawEvent) ([]schema.RawEvent, error) {
	ids, err := source.ListGroupProjectIDs(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("list projects of group %s: %w", groupID, err)
	}
	inGroup := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		inGroup[id] = struct{}{}
	}

	kept := make([]schema.RawEvent, 0, len(events))
	for _, e := range events {
		if e.ProjectID == nil {
			continue
		}
		if _, ok := inGroup[*e.ProjectID]; ok {
			kept = append(kept, e)
		}
	}
	slog.DebugContext(ctx, "applied group filter", "group_id", groupID, "before", len(events), "after", len(kept))
	return kept, nil
}
