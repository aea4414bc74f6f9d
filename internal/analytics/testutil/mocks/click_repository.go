// Package mocks holds hand-written test doubles for the analytics
// boundaries. A nil Func field panics so a test that forgets to stub a
// call fails loudly.
package mocks

import (
	"context"
	"time"

	"linktrack/internal/analytics/usecase"
)

// MockClickRepository is a test mock for the ClickRepository interface.
type MockClickRepository struct {
	AppendClickFunc       func(ctx context.Context, click usecase.Click) error
	AppendRequestLogFunc  func(ctx context.Context, entry usecase.RequestLog) error
	CountByLinkFunc       func(ctx context.Context, linkID int64) (int64, error)
	CountByLinksFunc      func(ctx context.Context, linkIDs []int64) (map[int64]int64, error)
	RecentByLinkFunc      func(ctx context.Context, linkID int64, limit int) ([]usecase.Click, error)
	CountClicksByDayFunc  func(ctx context.Context, from, to time.Time) (map[string]int64, error)
	CountClicksByHourFunc func(ctx context.Context, from, to time.Time) (map[string]int64, error)
	GroupClicksFunc       func(ctx context.Context, field usecase.GroupField, from, to time.Time) ([]usecase.GroupCount, error)
	TopLinksFunc          func(ctx context.Context, limit int) ([]usecase.LinkClickCount, error)
	RequestTotalsFunc     func(ctx context.Context) (usecase.RequestTotals, error)
	ListRequestLogsFunc   func(ctx context.Context, limit, offset int) ([]usecase.RequestLog, int64, error)
}

var _ usecase.ClickRepository = (*MockClickRepository)(nil)

func (m *MockClickRepository) AppendClick(ctx context.Context, click usecase.Click) error {
	if m.AppendClickFunc != nil {
		return m.AppendClickFunc(ctx, click)
	}
	panic("MockClickRepository.AppendClickFunc not set")
}

func (m *MockClickRepository) AppendRequestLog(ctx context.Context, entry usecase.RequestLog) error {
	if m.AppendRequestLogFunc != nil {
		return m.AppendRequestLogFunc(ctx, entry)
	}
	panic("MockClickRepository.AppendRequestLogFunc not set")
}

func (m *MockClickRepository) CountByLink(ctx context.Context, linkID int64) (int64, error) {
	if m.CountByLinkFunc != nil {
		return m.CountByLinkFunc(ctx, linkID)
	}
	panic("MockClickRepository.CountByLinkFunc not set")
}

func (m *MockClickRepository) CountByLinks(ctx context.Context, linkIDs []int64) (map[int64]int64, error) {
	if m.CountByLinksFunc != nil {
		return m.CountByLinksFunc(ctx, linkIDs)
	}
	panic("MockClickRepository.CountByLinksFunc not set")
}

func (m *MockClickRepository) RecentByLink(ctx context.Context, linkID int64, limit int) ([]usecase.Click, error) {
	if m.RecentByLinkFunc != nil {
		return m.RecentByLinkFunc(ctx, linkID, limit)
	}
	panic("MockClickRepository.RecentByLinkFunc not set")
}

func (m *MockClickRepository) CountClicksByDay(ctx context.Context, from, to time.Time) (map[string]int64, error) {
	if m.CountClicksByDayFunc != nil {
		return m.CountClicksByDayFunc(ctx, from, to)
	}
	panic("MockClickRepository.CountClicksByDayFunc not set")
}

func (m *MockClickRepository) CountClicksByHour(ctx context.Context, from, to time.Time) (map[string]int64, error) {
	if m.CountClicksByHourFunc != nil {
		return m.CountClicksByHourFunc(ctx, from, to)
	}
	panic("MockClickRepository.CountClicksByHourFunc not set")
}

func (m *MockClickRepository) GroupClicks(ctx context.Context, field usecase.GroupField, from, to time.Time) ([]usecase.GroupCount, error) {
	if m.GroupClicksFunc != nil {
		return m.GroupClicksFunc(ctx, field, from, to)
	}
	panic("MockClickRepository.GroupClicksFunc not set")
}

func (m *MockClickRepository) TopLinks(ctx context.Context, limit int) ([]usecase.LinkClickCount, error) {
	if m.TopLinksFunc != nil {
		return m.TopLinksFunc(ctx, limit)
	}
	panic("MockClickRepository.TopLinksFunc not set")
}

func (m *MockClickRepository) RequestTotals(ctx context.Context) (usecase.RequestTotals, error) {
	if m.RequestTotalsFunc != nil {
		return m.RequestTotalsFunc(ctx)
	}
	panic("MockClickRepository.RequestTotalsFunc not set")
}

func (m *MockClickRepository) ListRequestLogs(ctx context.Context, limit, offset int) ([]usecase.RequestLog, int64, error) {
	if m.ListRequestLogsFunc != nil {
		return m.ListRequestLogsFunc(ctx, limit, offset)
	}
	panic("MockClickRepository.ListRequestLogsFunc not set")
}
