package agg

import (
	"fmt"
	"hash/fnv"
	"log/slog"
	"strings"
	"time"

	"github.com/huangsam/recap/schema"
)

// Action substrings recognized by the classifier, in match order.
const (
	openedAction    = "opened"
	pushedAction    = "pushed"
	commentedAction = "commented"
)

// Classify maps one raw event to its dedup key and activity record.
// The boolean is false when the event is of an unknown kind or lacks
// the attributes its kind requires.
func Classify(event schema.RawEvent, username string, weight float64, eventTime time.Time) (schema.DedupKey, schema.ActivityRecord, bool) {
	switch action := event.ActionName; {
	case strings.Contains(action, openedAction):
		return classifyMerge(event, username, weight, eventTime)
	case strings.Contains(action, pushedAction):
		return classifyPush(event, username, weight, eventTime)
	case strings.Contains(action, commentedAction):
		return classifyNote(event, username, weight, eventTime)
	default:
		return schema.DedupKey{}, schema.ActivityRecord{}, false
	}
}

func classifyMerge(event schema.RawEvent, username string, weight float64, eventTime time.Time) (schema.DedupKey, schema.ActivityRecord, bool) {
	if event.TargetID == nil || event.ProjectID == nil {
		return schema.DedupKey{}, schema.ActivityRecord{}, false
	}

	slog.Info("processing merge request event", "target_title", event.TargetTitle, "weight", weight)

	key := schema.DedupKey{
		ScopeID:    *event.ProjectID,
		Kind:       schema.MergeKind,
		ResourceID: uint64(*event.TargetID),
	}
	return key, newRecord(schema.MergeKind, MergeTitle(event.TargetIID), "", username, weight, eventTime, *event.ProjectID), true
}

func classifyPush(event schema.RawEvent, username string, weight float64, eventTime time.Time) (schema.DedupKey, schema.ActivityRecord, bool) {
	if event.PushData == nil || event.PushData.CommitTitle == "" || event.ProjectID == nil {
		return schema.DedupKey{}, schema.ActivityRecord{}, false
	}
	title := event.PushData.CommitTitle

	slog.Info("processing commit push event", "commit_title", title, "weight", weight)

	key := schema.DedupKey{
		ScopeID:    *event.ProjectID,
		Kind:       schema.PushKind,
		ResourceID: HashTitle(title),
	}
	return key, newRecord(schema.PushKind, schema.PushTitle, title, username, weight, eventTime, *event.ProjectID), true
}

func classifyNote(event schema.RawEvent, username string, weight float64, eventTime time.Time) (schema.DedupKey, schema.ActivityRecord, bool) {
	// An empty note object carries nothing to report.
	if event.Note == nil || (event.Note.ID == 0 && event.Note.Body == "") {
		return schema.DedupKey{}, schema.ActivityRecord{}, false
	}

	slog.Info("processing note event", "body", event.Note.Body, "weight", weight)

	var projectID int64
	if event.ProjectID != nil {
		projectID = *event.ProjectID
	}
	key := schema.DedupKey{
		ScopeID:    projectID,
		Kind:       schema.NoteKind,
		ResourceID: uint64(event.Note.ID),
	}
	return key, newRecord(schema.NoteKind, schema.NoteTitle, event.Note.Body, username, weight, eventTime, projectID), true
}

func newRecord(kind schema.ActivityKind, title, description, username string, weight float64, eventTime time.Time, projectID int64) schema.ActivityRecord {
	ts := eventTime
	return schema.ActivityRecord{
		Title:       title,
		Description: description,
		Author:      username,
		Commits:     []string{},
		Comments:    []string{},
		Weight:      weight,
		Timestamp:   &ts,
		ProjectID:   projectID,
		Kind:        kind,
	}
}

// MergeTitle renders the title of a merge record. A missing IID renders as "None".
func MergeTitle(iid *int64) string {
	if iid == nil {
		return schema.MergeTitlePrefix + " (IID None)"
	}
	return fmt.Sprintf("%s (IID %d)", schema.MergeTitlePrefix, *iid)
}

// HashTitle is the stable 64-bit FNV-1a hash used to key push records.
func HashTitle(title string) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(title))
	return h.Sum64()
}
