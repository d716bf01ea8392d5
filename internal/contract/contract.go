// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"
	"errors"
	"time"

	"github.com/huangsam/recap/schema"
)

// ErrNoActivity is returned when a run yields no activity records.
var ErrNoActivity = errors.New("no activity found")

// EventFilter narrows an event listing.
type EventFilter struct {
	After  time.Time // zero = no lower bound
	Before time.Time // zero = no upper bound
}

// EventSource defines the operations needed to collect a user's activity feed.
// This allows the core logic to be tested without a GitLab instance.
type EventSource interface {
	// GetUser resolves a username to a user.
	GetUser(ctx context.Context, username string) (schema.User, error)

	// CurrentUser returns the owner of the access token.
	CurrentUser(ctx context.Context) (schema.User, error)

	// ListEvents returns every event of the token owner within the filter, across all pages.
	ListEvents(ctx context.Context, filter EventFilter) ([]schema.RawEvent, error)

	// ListUserEvents returns every event of the user within the filter, across all pages.
	ListUserEvents(ctx context.Context, userID int64, filter EventFilter) ([]schema.RawEvent, error)

	// ListGroupProjectIDs returns the ids of all projects in a group, including subgroups.
	ListGroupProjectIDs(ctx context.Context, groupID string) ([]int64, error)
}

// DescriptionFetcher fetches the long-form description of a merge request.
type DescriptionFetcher interface {
	FetchMergeRequestDescription(ctx context.Context, projectID, iid int64) (string, error)
}

// TextGenerator turns a prompt into generated text.
type TextGenerator interface {
	GenerateSummary(ctx context.Context, prompt string) (string, error)
}

// CacheManager defines the interface for managing cache stores.
// This allows the cache layer to be mocked for testing.
type CacheManager interface {
	GetEventStore() CacheStore
	GetHistoryStore() HistoryStore
}

// CacheStore defines the interface for cache data storage.
// This allows mocking the store for testing.
type CacheStore interface {
	Get(key string) ([]byte, int, int64, error)
	Set(key string, value []byte, version int, timestamp int64) error
	GetStatus() (schema.CacheStatus, error)
	Close() error
}

// HistoryStore defines the interface for tracking runs and the records they produced.
type HistoryStore interface {
	// BeginRun creates a new run and returns its unique ID
	BeginRun(username string, startTime time.Time, configParams map[string]any) (int64, error)

	// EndRun updates the run with completion data
	EndRun(runID int64, endTime time.Time, totalRecords int, summaryLength int) error

	// RecordActivity stores the records of a run in output order
	RecordActivity(runID int64, records []schema.ActivityRecord) error

	// GetStatus returns status information about the history store
	GetStatus() (schema.HistoryStatus, error)

	// GetAllRuns returns every stored run
	GetAllRuns() ([]schema.RunRecord, error)

	// GetAllActivityRecords returns every stored activity record
	GetAllActivityRecords() ([]schema.StoredActivityRecord, error)

	// Close closes the underlying connection
	Close() error
}
