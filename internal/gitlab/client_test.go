package gitlab

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/huangsam/recap/internal/contract"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	opts = append([]Option{WithRetryInterval(time.Millisecond), WithMaxRetries(2)}, opts...)
	return NewClient(srv.URL, "glpat-test", opts...)
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestGetUser(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v4/users", r.URL.Path)
		assert.Equal(t, "glpat-test", r.Header.Get("PRIVATE-TOKEN"))
		if r.URL.Query().Get("username") == "jdoe" {
			writeJSON(t, w, []map[string]any{{"id": 42, "username": "jdoe", "name": "Jane Doe"}})
			return
		}
		writeJSON(t, w, []map[string]any{})
	})

	user, err := c.GetUser(context.Background(), "jdoe")
	require.NoError(t, err)
	assert.Equal(t, int64(42), user.ID)
	assert.Equal(t, "Jane Doe", user.Name)

	_, err = c.GetUser(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestCurrentUser(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v4/user", r.URL.Path)
		writeJSON(t, w, map[string]any{"id": 7, "username": "me"})
	})
	user, err := c.CurrentUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "me", user.Username)
}

func TestListEventsPagesUntilEmpty(t *testing.T) {
	var pages []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "/api/v4/events", r.URL.Path)
		assert.Equal(t, "2", q.Get("per_page"))
		assert.Equal(t, "2024-05-01", q.Get("after"))
		assert.Equal(t, "2024-05-10", q.Get("before"))
		pages = append(pages, q.Get("page"))

		page, _ := strconv.Atoi(q.Get("page"))
		switch page {
		case 1:
			writeJSON(t, w, []map[string]any{{"id": 1, "action_name": "pushed to"}, {"id": 2, "action_name": "opened"}})
		case 2:
			writeJSON(t, w, []map[string]any{{"id": 3, "action_name": "commented on"}})
		default:
			writeJSON(t, w, []map[string]any{})
		}
	}, WithPerPage(2))

	filter := contract.EventFilter{
		After:  time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		Before: time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC),
	}
	events, err := c.ListEvents(context.Background(), filter)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, "commented on", events[2].ActionName)
	assert.Equal(t, []string{"1", "2", "3"}, pages)
}

func TestListUserEventsHonoursNextPage(t *testing.T) {
	var calls int
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, "/api/v4/users/42/events", r.URL.Path)
		assert.False(t, r.URL.Query().Has("before"), "an unbounded filter sends no before")
		assert.Empty(t, r.URL.Query().Get("after"), "zero bounds are omitted")
		switch r.URL.Query().Get("page") {
		case "1":
			w.Header().Set(nextPageHeader, "2")
			writeJSON(t, w, []map[string]any{{"id": 1}})
		case "2":
			w.Header().Set(nextPageHeader, "")
			writeJSON(t, w, []map[string]any{{"id": 2}})
		default:
			t.Errorf("unexpected page %s", r.URL.Query().Get("page"))
		}
	})

	events, err := c.ListUserEvents(context.Background(), 42, contract.EventFilter{})
	require.NoError(t, err)
	assert.Len(t, events, 2)
	assert.Equal(t, 2, calls, "an empty X-Next-Page ends the listing")
}

func TestFetchMergeRequestDescription(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v4/projects/3/merge_requests/12":
			writeJSON(t, w, map[string]any{"iid": 12, "description": "Adds retries"})
		case "/api/v4/projects/3/merge_requests/13":
			writeJSON(t, w, map[string]any{"iid": 13, "description": nil})
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = fmt.Fprint(w, `{"message":"404 Not found"}`)
		}
	})

	desc, err := c.FetchMergeRequestDescription(context.Background(), 3, 12)
	require.NoError(t, err)
	assert.Equal(t, "Adds retries", desc)

	desc, err = c.FetchMergeRequestDescription(context.Background(), 3, 13)
	require.NoError(t, err)
	assert.Empty(t, desc)

	_, err = c.FetchMergeRequestDescription(context.Background(), 3, 99)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}

func TestListGroupProjectIDs(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v4/groups/acme%2Fplatform/projects", r.URL.EscapedPath())
		assert.Equal(t, "true", r.URL.Query().Get("include_subgroups"))
		if r.URL.Query().Get("page") == "1" {
			writeJSON(t, w, []map[string]any{{"id": 3}, {"id": 7}})
			return
		}
		writeJSON(t, w, []map[string]any{})
	})

	ids, err := c.ListGroupProjectIDs(context.Background(), "acme/platform")
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 7}, ids)
}

func TestRetries(t *testing.T) {
	t.Run("server errors are retried", func(t *testing.T) {
		var calls atomic.Int32
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) < 3 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			writeJSON(t, w, map[string]any{"id": 1, "username": "me"})
		})
		_, err := c.CurrentUser(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int32(3), calls.Load())
	})

	t.Run("client errors are not retried", func(t *testing.T) {
		var calls atomic.Int32
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusUnauthorized)
		})
		_, err := c.CurrentUser(context.Background())
		require.Error(t, err)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("retries are bounded", func(t *testing.T) {
		var calls atomic.Int32
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusServiceUnavailable)
		})
		_, err := c.CurrentUser(context.Background())
		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
		assert.Equal(t, int32(3), calls.Load(), "one attempt plus two retries")
	})
}

func TestCancelledContext(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]any{"id": 1})
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.CurrentUser(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
