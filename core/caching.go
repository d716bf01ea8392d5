package core

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/huangsam/recap/internal/contract"
	"github.com/huangsam/recap/internal/metrics"
	"github.com/huangsam/recap/schema"
)

// currentCacheVersion defines the version of the cached event payload
const currentCacheVersion = 1

// cachedListEvents returns the raw event feed for a user, reading through the event cache.
func cachedListEvents(ctx context.Context, cfg *contract.Config, source contract.EventSource, user schema.User, mgr contract.CacheManager) ([]schema.RawEvent, bool, error) {
	var store contract.CacheStore
	if mgr != nil {
		store = mgr.GetEventStore()
	}
	if store == nil {
		events, err := listEvents(ctx, cfg, source, user)
		return events, false, err
	}

	key := generateCacheKey(cfg)

	if events, ok := checkCacheHit(store, key, cfg.CacheTTL, time.Now()); ok {
		metrics.RecordCacheLookup(true)
		slog.DebugContext(ctx, "event cache hit", "username", cfg.Username, "events", len(events))
		return events, true, nil
	}
	metrics.RecordCacheLookup(false)

	events, err := fetchAndStore(ctx, cfg, source, user, store, key)
	return events, false, err
}

// checkCacheHit attempts to retrieve and validate a cached event feed
func checkCacheHit(store contract.CacheStore, key string, ttl time.Duration, now time.Time) ([]schema.RawEvent, bool) {
	data, version, ts, err := store.Get(key)
	if err != nil {
		return nil, false // Cache miss
	}

	if version != currentCacheVersion {
		return nil, false
	}
	if now.Sub(time.Unix(ts, 0)) > ttl {
		return nil, false // Stale
	}

	var events []schema.RawEvent
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, false
	}
	return events, true
}

// fetchAndStore fetches the feed from GitLab and stores it in the cache
func fetchAndStore(ctx context.Context, cfg *contract.Config, source contract.EventSource, user schema.User, store contract.CacheStore, key string) ([]schema.RawEvent, error) {
	events, err := listEvents(ctx, cfg, source, user)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(events); err == nil {
		if err := store.Set(key, data, currentCacheVersion, time.Now().Unix()); err != nil {
			contract.LogWarn("Failed to store events in cache", err)
		}
	}
	return events, nil
}

// listEvents reads the token owner's own feed when the user is the owner and
// the public per-user feed otherwise.
func listEvents(ctx context.Context, cfg *contract.Config, source contract.EventSource, user schema.User) ([]schema.RawEvent, error) {
	filter := eventFilter(cfg)

	owner, err := source.CurrentUser(ctx)
	if err != nil {
		slog.DebugContext(ctx, "could not resolve token owner", "error", err)
	} else if owner.ID == user.ID {
		return source.ListEvents(ctx, filter)
	}
	return source.ListUserEvents(ctx, user.ID, filter)
}

// eventFilter bounds the feed by the configured window. GitLab's before is an
// exclusive date, so a defaulted end of "now" is sent as no upper bound.
func eventFilter(cfg *contract.Config) contract.EventFilter {
	filter := contract.EventFilter{After: cfg.StartTime}
	if !cfg.OpenEnd {
		filter.Before = cfg.EndTime
	}
	return filter
}

// generateCacheKey creates a unique key based on the fetch parameters
func generateCacheKey(cfg *contract.Config) string {
	// Use canonical helpers from contract.Config to ensure consistent time granularity
	startHour := cfg.GetWindowStartTime()
	endHour := cfg.GetWindowEndTime()

	key := fmt.Sprintf("%s:%s:%d:%d:%s",
		cfg.GitLabURL,
		cfg.Username,
		startHour.Unix(),
		endHour.Unix(),
		cfg.GroupID,
	)
	return fmt.Sprintf("%x", sha256.Sum256([]byte(key)))
}
