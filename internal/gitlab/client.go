// Package gitlab is a small client for the parts of the GitLab REST v4 API that
// recap reads: users, activity events, merge requests and group projects.
package gitlab

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/huangsam/recap/internal/contract"
	"github.com/huangsam/recap/schema"
)

// ErrUserNotFound is returned when no user matches a username.
var ErrUserNotFound = errors.New("gitlab: user not found")

const (
	defaultPerPage    = 100
	defaultMaxRetries = 3
	defaultTimeout    = 30 * time.Second
	nextPageHeader    = "X-Next-Page"
	eventDateFormat   = "2006-01-02"
)

// APIError describes a non-2xx response.
type APIError struct {
	StatusCode int
	Path       string
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gitlab: %s returned status %d: %s", e.Path, e.StatusCode, e.Body)
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithMaxRetries sets how many times a failed request is retried.
func WithMaxRetries(n uint64) Option {
	return func(c *Client) { c.maxRetries = n }
}

// WithRetryInterval sets the first backoff interval.
func WithRetryInterval(d time.Duration) Option {
	return func(c *Client) { c.retryInterval = d }
}

// WithPerPage sets the page size for paginated listings.
func WithPerPage(n int) Option {
	return func(c *Client) { c.perPage = n }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.log = l }
}

// Client talks to a single GitLab instance with a personal access token.
type Client struct {
	apiURL        string
	token         string
	httpClient    *http.Client
	maxRetries    uint64
	retryInterval time.Duration
	perPage       int
	log           *slog.Logger
}

var (
	_ contract.EventSource        = (*Client)(nil)
	_ contract.DescriptionFetcher = (*Client)(nil)
)

// NewClient creates a Client for the instance at baseURL.
func NewClient(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		apiURL:        baseURL + "/api/v4",
		token:         token,
		httpClient:    &http.Client{Timeout: defaultTimeout},
		maxRetries:    defaultMaxRetries,
		retryInterval: 500 * time.Millisecond,
		perPage:       defaultPerPage,
		log:           slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.With("adapter", "gitlab")
	return c
}

// GetUser resolves a username with GET /users?username=.
func (c *Client) GetUser(ctx context.Context, username string) (schema.User, error) {
	var users []schema.User
	if _, err := c.getJSON(ctx, "/users", url.Values{"username": {username}}, &users); err != nil {
		return schema.User{}, err
	}
	if len(users) == 0 {
		c.log.WarnContext(ctx, "no user found matching username", "username", username)
		return schema.User{}, fmt.Errorf("%w: %s", ErrUserNotFound, username)
	}
	return users[0], nil
}

// CurrentUser returns the owner of the token with GET /user.
func (c *Client) CurrentUser(ctx context.Context) (schema.User, error) {
	var user schema.User
	if _, err := c.getJSON(ctx, "/user", nil, &user); err != nil {
		return schema.User{}, err
	}
	return user, nil
}

// ListEvents pages through GET /events for the token owner.
func (c *Client) ListEvents(ctx context.Context, filter contract.EventFilter) ([]schema.RawEvent, error) {
	return paginate[schema.RawEvent](ctx, c, "/events", eventQuery(filter))
}

// ListUserEvents pages through GET /users/:id/events.
func (c *Client) ListUserEvents(ctx context.Context, userID int64, filter contract.EventFilter) ([]schema.RawEvent, error) {
	path := "/users/" + strconv.FormatInt(userID, 10) + "/events"
	return paginate[schema.RawEvent](ctx, c, path, eventQuery(filter))
}

// FetchMergeRequestDescription returns the description of one merge request.
// A merge request without a description yields "".
func (c *Client) FetchMergeRequestDescription(ctx context.Context, projectID, iid int64) (string, error) {
	path := fmt.Sprintf("/projects/%d/merge_requests/%d", projectID, iid)
	var mr struct {
		Description *string `json:"description"`
	}
	if _, err := c.getJSON(ctx, path, nil, &mr); err != nil {
		return "", err
	}
	if mr.Description == nil {
		return "", nil
	}
	return *mr.Description, nil
}

// ListGroupProjectIDs returns the ids of every project in a group and its subgroups.
func (c *Client) ListGroupProjectIDs(ctx context.Context, groupID string) ([]int64, error) {
	path := "/groups/" + url.PathEscape(groupID) + "/projects"
	query := url.Values{"include_subgroups": {"true"}, "simple": {"true"}}
	projects, err := paginate[struct {
		ID int64 `json:"id"`
	}](ctx, c, path, query)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, len(projects))
	for i, p := range projects {
		ids[i] = p.ID
	}
	return ids, nil
}

// eventQuery maps a filter onto the after/before query parameters. GitLab
// compares these by date, both bounds exclusive.
func eventQuery(filter contract.EventFilter) url.Values {
	q := url.Values{}
	if !filter.After.IsZero() {
		q.Set("after", filter.After.Format(eventDateFormat))
	}
	if !filter.Before.IsZero() {
		q.Set("before", filter.Before.Format(eventDateFormat))
	}
	return q
}

// paginate walks every page of a listing. It stops on an empty page or when the
// X-Next-Page header is present but empty.
func paginate[T any](ctx context.Context, c *Client, path string, query url.Values) ([]T, error) {
	var all []T
	page := 1
	for {
		q := url.Values{}
		for k, v := range query {
			q[k] = v
		}
		q.Set("per_page", strconv.Itoa(c.perPage))
		q.Set("page", strconv.Itoa(page))

		var batch []T
		header, err := c.getJSON(ctx, path, q, &batch)
		if err != nil {
			return nil, err
		}
		if len(batch) == 0 {
			break
		}
		all = append(all, batch...)
		c.log.DebugContext(ctx, "fetched page", "path", path, "page", page, "items", len(batch))

		if values, ok := header[http.CanonicalHeaderKey(nextPageHeader)]; ok {
			next, err := strconv.Atoi(firstOrEmpty(values))
			if err != nil || next <= page {
				break
			}
			page = next
			continue
		}
		page++
	}
	return all, nil
}

func firstOrEmpty(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return values[0]
}

// getJSON performs a GET and decodes the body into out. Network errors and 5xx
// responses are retried with exponential backoff; 4xx responses are not.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) (http.Header, error) {
	reqURL := c.apiURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var header http.Header
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("gitlab: create request: %w", err))
		}
		req.Header.Set("PRIVATE-TOKEN", c.token)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return fmt.Errorf("gitlab: request %s: %w", path, err)
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			apiErr := &APIError{StatusCode: resp.StatusCode, Path: path, Body: string(body)}
			if resp.StatusCode >= 500 {
				return apiErr
			}
			return backoff.Permanent(apiErr)
		}

		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return backoff.Permanent(fmt.Errorf("gitlab: decode %s: %w", path, err))
		}
		header = resp.Header
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.retryInterval
	notify := func(err error, wait time.Duration) {
		c.log.WarnContext(ctx, "gitlab retry", "path", path, "error", err, "wait", wait)
	}
	err := backoff.RetryNotify(operation, backoff.WithContext(backoff.WithMaxRetries(policy, c.maxRetries), ctx), notify)
	if err != nil {
		return nil, err
	}
	return header, nil
}
