package core

import (
	"context"
	"errors"
	"testing"

	"github.com/huangsam/recap/internal/iocache"
	"github.com/huangsam/recap/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestBeginRun(t *testing.T) {
	cfg := testConfig()

	t.Run("no manager", func(t *testing.T) {
		ctx, runID := beginRun(context.Background(), cfg, nil, "activity")
		assert.Zero(t, runID)
		_, ok := getRunID(ctx)
		assert.False(t, ok)
	})

	t.Run("no history store", func(t *testing.T) {
		_, runID := beginRun(context.Background(), cfg, noStores(), "activity")
		assert.Zero(t, runID)
	})

	t.Run("store failure", func(t *testing.T) {
		store := &iocache.MockHistoryStore{}
		store.On("BeginRun", "jdoe", mock.Anything, mock.Anything).Return(int64(0), errors.New("disk full"))
		mgr := &iocache.MockCacheManager{}
		mgr.On("GetHistoryStore").Return(store)

		ctx, runID := beginRun(context.Background(), cfg, mgr, "activity")
		assert.Zero(t, runID)
		_, ok := getRunID(ctx)
		assert.False(t, ok)
	})

	t.Run("records config", func(t *testing.T) {
		store := &iocache.MockHistoryStore{}
		store.On("BeginRun", "jdoe", mock.Anything, mock.MatchedBy(func(params map[string]any) bool {
			return params["command"] == "summary" && params["gitlab_url"] == cfg.GitLabURL && params["model"] == cfg.LLMModel
		})).Return(int64(42), nil)
		mgr := &iocache.MockCacheManager{}
		mgr.On("GetHistoryStore").Return(store)

		ctx, runID := beginRun(context.Background(), cfg, mgr, "summary")
		assert.Equal(t, int64(42), runID)
		got, ok := getRunID(ctx)
		assert.True(t, ok)
		assert.Equal(t, int64(42), got)
		store.AssertExpectations(t)
	})
}

func TestEndRun(t *testing.T) {
	records := []schema.ActivityRecord{{Title: "Note", Description: "LGTM", Kind: schema.NoteKind}}

	t.Run("finalizes the run of the context", func(t *testing.T) {
		store := &iocache.MockHistoryStore{}
		store.On("RecordActivity", int64(5), records).Return(nil)
		store.On("EndRun", int64(5), mock.Anything, 1, 120).Return(nil)
		mgr := &iocache.MockCacheManager{}
		mgr.On("GetHistoryStore").Return(store)

		endRun(withRunID(context.Background(), 5), mgr, 5, records, 120)
		store.AssertExpectations(t)
	})

	t.Run("ignores a foreign run", func(t *testing.T) {
		store := &iocache.MockHistoryStore{}
		mgr := &iocache.MockCacheManager{}
		mgr.On("GetHistoryStore").Return(store)

		endRun(withRunID(context.Background(), 6), mgr, 5, records, 0)
		endRun(context.Background(), mgr, 0, records, 0)
		store.AssertNotCalled(t, "EndRun", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("record failure still ends the run", func(t *testing.T) {
		store := &iocache.MockHistoryStore{}
		store.On("RecordActivity", int64(5), records).Return(errors.New("constraint failed"))
		store.On("EndRun", int64(5), mock.Anything, 1, 0).Return(nil)
		mgr := &iocache.MockCacheManager{}
		mgr.On("GetHistoryStore").Return(store)

		endRun(withRunID(context.Background(), 5), mgr, 5, records, 0)
		store.AssertExpectations(t)
	})
}
