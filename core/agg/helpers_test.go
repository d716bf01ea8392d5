package agg

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/huangsam/recap/schema"
)

// refNow is the fixed reference time used across tests.
var refNow = time.Date(2024, 5, 10, 10, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

func iso(t time.Time) string { return t.Format(time.RFC3339Nano) }

func mergeEvent(project, target, iid int64, at time.Time) schema.RawEvent {
	return schema.RawEvent{
		ActionName:  "opened",
		ProjectID:   ptr(project),
		TargetID:    ptr(target),
		TargetIID:   ptr(iid),
		TargetType:  "MergeRequest",
		TargetTitle: "Some change",
		CreatedAt:   iso(at),
	}
}

func pushEvent(project int64, title string, at time.Time) schema.RawEvent {
	return schema.RawEvent{
		ActionName: "pushed to",
		ProjectID:  ptr(project),
		CreatedAt:  iso(at),
		PushData:   &schema.PushData{Action: "pushed", RefType: "branch", Ref: "main", CommitTitle: title},
	}
}

func noteEvent(project, noteID int64, body string, at time.Time) schema.RawEvent {
	return schema.RawEvent{
		ActionName: "commented on",
		ProjectID:  ptr(project),
		CreatedAt:  iso(at),
		Note:       &schema.Note{ID: noteID, Body: body},
	}
}

// stubFetcher is a DescriptionFetcher keyed by "project/iid".
type stubFetcher struct {
	mu           sync.Mutex
	descriptions map[[2]int64]string
	delay        time.Duration
	calls        int
}

var errNotFound = errors.New("404 Not Found")

func (s *stubFetcher) FetchMergeRequestDescription(ctx context.Context, projectID, iid int64) (string, error) {
	s.mu.Lock()
	s.calls++
	desc, ok := s.descriptions[[2]int64{projectID, iid}]
	s.mu.Unlock()

	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if !ok {
		return "", errNotFound
	}
	return desc, nil
}

// captureLogs routes the default logger into a buffer for the duration of the test.
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	orig := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn})))
	t.Cleanup(func() { slog.SetDefault(orig) })
	return &buf
}
