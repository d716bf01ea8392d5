package agg

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/huangsam/recap/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	at := refNow.Add(-time.Hour)

	t.Run("push event", func(t *testing.T) {
		key, rec, ok := Classify(pushEvent(7, "Fix bug", at), "jdoe", 1.9, at)
		require.True(t, ok)
		assert.Equal(t, schema.DedupKey{ScopeID: 7, Kind: schema.PushKind, ResourceID: HashTitle("Fix bug")}, key)
		assert.Equal(t, schema.PushTitle, rec.Title)
		assert.Equal(t, "Fix bug", rec.Description)
		assert.Equal(t, "jdoe", rec.Author)
		assert.Equal(t, int64(7), rec.ProjectID)
		assert.Empty(t, rec.Commits)
		assert.Empty(t, rec.Comments)
		require.NotNil(t, rec.Timestamp)
		assert.True(t, rec.Timestamp.Equal(at))
	})

	t.Run("merge event", func(t *testing.T) {
		key, rec, ok := Classify(mergeEvent(3, 99, 12, at), "jdoe", 1.9, at)
		require.True(t, ok)
		assert.Equal(t, schema.DedupKey{ScopeID: 3, Kind: schema.MergeKind, ResourceID: 99}, key)
		assert.Equal(t, "MR Merged (IID 12)", rec.Title)
		assert.Empty(t, rec.Description)
		assert.Equal(t, schema.MergeKind, rec.Kind)
	})

	t.Run("note event", func(t *testing.T) {
		key, rec, ok := Classify(noteEvent(5, 1312, "nice", at), "jdoe", 1.9, at)
		require.True(t, ok)
		assert.Equal(t, schema.DedupKey{ScopeID: 5, Kind: schema.NoteKind, ResourceID: 1312}, key)
		assert.Equal(t, schema.NoteTitle, rec.Title)
		assert.Equal(t, "nice", rec.Description)
	})

	t.Run("note without project uses scope zero", func(t *testing.T) {
		ev := noteEvent(5, 1, "x", at)
		ev.ProjectID = nil
		key, _, ok := Classify(ev, "jdoe", 1.0, at)
		require.True(t, ok)
		assert.Equal(t, int64(0), key.ScopeID)
	})

	t.Run("merge without iid still classifies", func(t *testing.T) {
		ev := mergeEvent(3, 99, 0, at)
		ev.TargetIID = nil
		_, rec, ok := Classify(ev, "jdoe", 1.0, at)
		require.True(t, ok)
		assert.Equal(t, "MR Merged (IID None)", rec.Title)
	})
}

func TestClassifyDropsMalformedEvents(t *testing.T) {
	at := refNow

	noTarget := mergeEvent(3, 99, 12, at)
	noTarget.TargetID = nil

	noMergeProject := mergeEvent(3, 99, 12, at)
	noMergeProject.ProjectID = nil

	emptyTitle := pushEvent(7, "", at)

	noPushData := pushEvent(7, "Fix bug", at)
	noPushData.PushData = nil

	noPushProject := pushEvent(7, "Fix bug", at)
	noPushProject.ProjectID = nil

	noNote := noteEvent(7, 1, "x", at)
	noNote.Note = nil

	var emptyNote schema.RawEvent
	require.NoError(t, json.Unmarshal([]byte(`{"id":9,"project_id":7,"action_name":"commented on","note":{}}`), &emptyNote))

	tests := map[string]schema.RawEvent{
		"merge without target id":  noTarget,
		"merge without project id": noMergeProject,
		"push with empty title":    emptyTitle,
		"push without payload":     noPushData,
		"push without project id":  noPushProject,
		"comment without note":     noNote,
		"comment with empty note":  emptyNote,
	}

	for name, ev := range tests {
		t.Run(name, func(t *testing.T) {
			_, _, ok := Classify(ev, "jdoe", 1.0, at)
			assert.False(t, ok)
		})
	}
}

func TestClassifyIgnoresUnknownActions(t *testing.T) {
	for _, action := range []string{"closed", "joined", "left", "deleted", "accepted", "approved", ""} {
		t.Run(action, func(t *testing.T) {
			ev := mergeEvent(1, 2, 3, refNow)
			ev.ActionName = action
			ev.Note = &schema.Note{ID: 1, Body: "x"}
			ev.PushData = &schema.PushData{CommitTitle: "x"}
			_, _, ok := Classify(ev, "jdoe", 1.0, refNow)
			assert.False(t, ok)
		})
	}
}

func TestClassifyFirstMatchWins(t *testing.T) {
	// An action containing both substrings is treated by the earliest rule.
	ev := mergeEvent(1, 2, 3, refNow)
	ev.ActionName = "opened and pushed"
	ev.PushData = &schema.PushData{CommitTitle: "x"}

	_, rec, ok := Classify(ev, "jdoe", 1.0, refNow)
	require.True(t, ok)
	assert.Equal(t, schema.MergeKind, rec.Kind)
}

func TestHashTitleIsStable(t *testing.T) {
	assert.Equal(t, HashTitle("Fix bug"), HashTitle("Fix bug"))
	assert.NotEqual(t, HashTitle("Fix bug"), HashTitle("Fix bugs"))
	// FNV-1a 64 of the empty string is the offset basis.
	assert.Equal(t, uint64(0xcbf29ce484222325), HashTitle(""))
}
