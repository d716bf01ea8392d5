// Package schema has the data types shared across recap.
package schema

import (
	"fmt"
	"time"
)

// PushData holds the push payload of a push event.
type PushData struct {
	CommitCount int    `json:"commit_count"`
	Action      string `json:"action"`
	RefType     string `json:"ref_type"`
	Ref         string `json:"ref"`
	CommitFrom  string `json:"commit_from"`
	CommitTo    string `json:"commit_to"`
	CommitTitle string `json:"commit_title"`
}

// Note holds the note payload of a comment event.
type Note struct {
	ID           int64  `json:"id"`
	Body         string `json:"body"`
	NoteableType string `json:"noteable_type"`
	NoteableID   *int64 `json:"noteable_id"`
}

// RawEvent is one entry of the GitLab events feed.
// Optional attributes are pointers so that absence is distinguishable from zero.
type RawEvent struct {
	ID             int64     `json:"id"`
	ActionName     string    `json:"action_name"`
	ProjectID      *int64    `json:"project_id"`
	TargetID       *int64    `json:"target_id"`
	TargetIID      *int64    `json:"target_iid"`
	TargetType     string    `json:"target_type"`
	TargetTitle    string    `json:"target_title"`
	AuthorID       int64     `json:"author_id"`
	AuthorUsername string    `json:"author_username"`
	CreatedAt      string    `json:"created_at"`
	PushData       *PushData `json:"push_data"`
	Note           *Note     `json:"note"`
}

// ActivityRecord is the canonical record of one piece of attributed activity.
type ActivityRecord struct {
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Author      string       `json:"author"`
	Commits     []string     `json:"commits"`
	Comments    []string     `json:"comments"`
	Weight      float64      `json:"weight"`
	Timestamp   *time.Time   `json:"timestamp"`
	ProjectID   int64        `json:"project_id"`
	Kind        ActivityKind `json:"kind"`
}

// DedupKey identifies an activity record within one aggregation run.
type DedupKey struct {
	ScopeID    int64
	Kind       ActivityKind
	ResourceID uint64
}

// String renders the key for logs.
func (k DedupKey) String() string {
	return fmt.Sprintf("%d/%s/%d", k.ScopeID, k.Kind, k.ResourceID)
}

// User is the subset of a GitLab user that recap needs.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

// EnrichStats summarizes one enrichment pass.
type EnrichStats struct {
	Attempted int `json:"attempted"`
	Enriched  int `json:"enriched"`
	Failed    int `json:"failed"`
}

// ActivityResult is the output of a full fetch, aggregate and enrich pass.
type ActivityResult struct {
	Username  string           `json:"username"`
	Start     time.Time        `json:"start"`
	End       time.Time        `json:"end"`
	Events    int              `json:"events"`
	Records   []ActivityRecord `json:"records"`
	Enrich    EnrichStats      `json:"enrich"`
	FromCache bool             `json:"from_cache"`
}

// SummaryResult is the output of the summary command.
type SummaryResult struct {
	Username string           `json:"username"`
	Summary  string           `json:"summary"`
	Provider LLMProvider      `json:"provider"`
	Model    string           `json:"model"`
	Records  []ActivityRecord `json:"records"`
}
