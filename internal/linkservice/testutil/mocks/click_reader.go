package mocks

import (
	"context"

	"linktrack/internal/linkservice/usecase"
)

// MockClickReader is a test mock for the ClickReader interface.
type MockClickReader struct {
	CountByLinkFunc  func(ctx context.Context, linkID int64) (int64, error)
	CountByLinksFunc func(ctx context.Context, linkIDs []int64) (map[int64]int64, error)
	RecentByLinkFunc func(ctx context.Context, linkID int64, limit int) ([]usecase.ClickRecord, error)
}

var _ usecase.ClickReader = (*MockClickReader)(nil)

func (m *MockClickReader) CountByLink(ctx context.Context, linkID int64) (int64, error) {
	if m.CountByLinkFunc != nil {
		return m.CountByLinkFunc(ctx, linkID)
	}
	panic("MockClickReader.CountByLinkFunc not set")
}

func (m *MockClickReader) CountByLinks(ctx context.Context, linkIDs []int64) (map[int64]int64, error) {
	if m.CountByLinksFunc != nil {
		return m.CountByLinksFunc(ctx, linkIDs)
	}
	panic("MockClickReader.CountByLinksFunc not set")
}

func (m *MockClickReader) RecentByLink(ctx context.Context, linkID int64, limit int) ([]usecase.ClickRecord, error) {
	if m.RecentByLinkFunc != nil {
		return m.RecentByLinkFunc(ctx, linkID, limit)
	}
	panic("MockClickReader.RecentByLinkFunc not set")
}
