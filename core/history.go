package core

import (
	"context"
	"time"

	"github.com/huangsam/recap/internal/contract"
	"github.com/huangsam/recap/schema"
)

// beginRun opens a history run when a history store is configured.
// The returned context carries the run ID.
func beginRun(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager, command string) (context.Context, int64) {
	if mgr == nil {
		return ctx, 0
	}
	store := mgr.GetHistoryStore()
	if store == nil {
		return ctx, 0
	}

	configParams := map[string]any{
		"command":      command,
		"gitlab_url":   cfg.GitLabURL,
		"group_id":     cfg.GroupID,
		"start":        cfg.StartTime.Format(contract.DateTimeFormat),
		"end":          cfg.EndTime.Format(contract.DateTimeFormat),
		"result_limit": cfg.ResultLimit,
		"clamp":        cfg.ClampWeights,
		"provider":     string(cfg.LLMProvider),
		"model":        cfg.LLMModel,
	}
	runID, err := store.BeginRun(cfg.Username, time.Now(), configParams)
	if err != nil {
		contract.LogWarn("Run history initialization failed", err)
		return ctx, 0
	}
	return withRunID(ctx, runID), runID
}

// endRun stores the records of a run and closes it.
func endRun(ctx context.Context, mgr contract.CacheManager, runID int64, records []schema.ActivityRecord, summaryLength int) {
	if runID <= 0 || mgr == nil {
		return
	}
	if ctxRunID, ok := getRunID(ctx); !ok || ctxRunID != runID {
		return
	}
	store := mgr.GetHistoryStore()
	if store == nil {
		return
	}

	if err := store.RecordActivity(runID, records); err != nil {
		contract.LogWarn("Failed to record run activity", err)
	}
	if err := store.EndRun(runID, time.Now(), len(records), summaryLength); err != nil {
		contract.LogWarn("Failed to finalize run history", err)
	}
}
