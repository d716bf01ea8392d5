package contract

import (
	"context"

	"github.com/huangsam/recap/schema"
	"github.com/stretchr/testify/mock"
)

// MockEventSource is a mock implementation of EventSource for testing.
type MockEventSource struct {
	mock.Mock
}

var _ EventSource = &MockEventSource{} // Compile-time check

// GetUser implements the EventSource interface.
func (m *MockEventSource) GetUser(ctx context.Context, username string) (schema.User, error) {
	ret := m.Called(ctx, username)
	user, _ := ret.Get(0).(schema.User)
	return user, ret.Error(1)
}

// CurrentUser implements the EventSource interface.
func (m *MockEventSource) CurrentUser(ctx context.Context) (schema.User, error) {
	ret := m.Called(ctx)
	user, _ := ret.Get(0).(schema.User)
	return user, ret.Error(1)
}

// ListEvents implements the EventSource interface.
func (m *MockEventSource) ListEvents(ctx context.Context, filter EventFilter) ([]schema.RawEvent, error) {
	ret := m.Called(ctx, filter)
	events, _ := ret.Get(0).([]schema.RawEvent)
	return events, ret.Error(1)
}

// ListUserEvents implements the EventSource interface.
func (m *MockEventSource) ListUserEvents(ctx context.Context, userID int64, filter EventFilter) ([]schema.RawEvent, error) {
	ret := m.Called(ctx, userID, filter)
	events, _ := ret.Get(0).([]schema.RawEvent)
	return events, ret.Error(1)
}

// ListGroupProjectIDs implements the EventSource interface.
func (m *MockEventSource) ListGroupProjectIDs(ctx context.Context, groupID string) ([]int64, error) {
	ret := m.Called(ctx, groupID)
	ids, _ := ret.Get(0).([]int64)
	return ids, ret.Error(1)
}

// MockDescriptionFetcher is a mock implementation of DescriptionFetcher for testing.
type MockDescriptionFetcher struct {
	mock.Mock
}

var _ DescriptionFetcher = &MockDescriptionFetcher{} // Compile-time check

// FetchMergeRequestDescription implements the DescriptionFetcher interface.
func (m *MockDescriptionFetcher) FetchMergeRequestDescription(ctx context.Context, projectID, iid int64) (string, error) {
	ret := m.Called(ctx, projectID, iid)
	return ret.String(0), ret.Error(1)
}

// MockTextGenerator is a mock implementation of TextGenerator for testing.
type MockTextGenerator struct {
	mock.Mock
}

var _ TextGenerator = &MockTextGenerator{} // Compile-time check

// GenerateSummary implements the TextGenerator interface.
func (m *MockTextGenerator) GenerateSummary(ctx context.Context, prompt string) (string, error) {
	ret := m.Called(ctx, prompt)
	return ret.String(0), ret.Error(1)
}
