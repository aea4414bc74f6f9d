// Package mocks holds hand-written test doubles for the link service
// boundaries. A nil Func field panics so a test that forgets to stub a
// call fails loudly.
package mocks

import (
	"context"

	"linktrack/internal/linkservice/domain"
	"linktrack/internal/linkservice/usecase"
)

// MockLinkRepository is a test mock for the LinkRepository interface.
type MockLinkRepository struct {
	CreateFunc            func(ctx context.Context, params usecase.CreateParams) (*domain.Link, error)
	FindBySlugFunc        func(ctx context.Context, slug string) (*domain.Link, error)
	FindByIDFunc          func(ctx context.Context, id int64) (*domain.Link, error)
	UpdateDestinationFunc func(ctx context.Context, id int64, destination, title string) error
	DeleteFunc            func(ctx context.Context, id int64) error
	FindAllFunc           func(ctx context.Context, params usecase.FindAllParams) ([]*domain.Link, error)
	CountFunc             func(ctx context.Context, params usecase.CountParams) (int64, error)
}

var _ usecase.LinkRepository = (*MockLinkRepository)(nil)

func (m *MockLinkRepository) Create(ctx context.Context, params usecase.CreateParams) (*domain.Link, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, params)
	}
	panic("MockLinkRepository.CreateFunc not set")
}

func (m *MockLinkRepository) FindBySlug(ctx context.Context, slug string) (*domain.Link, error) {
	if m.FindBySlugFunc != nil {
		return m.FindBySlugFunc(ctx, slug)
	}
	panic("MockLinkRepository.FindBySlugFunc not set")
}

func (m *MockLinkRepository) FindByID(ctx context.Context, id int64) (*domain.Link, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	panic("MockLinkRepository.FindByIDFunc not set")
}

func (m *MockLinkRepository) UpdateDestination(ctx context.Context, id int64, destination, title string) error {
	if m.UpdateDestinationFunc != nil {
		return m.UpdateDestinationFunc(ctx, id, destination, title)
	}
	panic("MockLinkRepository.UpdateDestinationFunc not set")
}

func (m *MockLinkRepository) Delete(ctx context.Context, id int64) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	panic("MockLinkRepository.DeleteFunc not set")
}

func (m *MockLinkRepository) FindAll(ctx context.Context, params usecase.FindAllParams) ([]*domain.Link, error) {
	if m.FindAllFunc != nil {
		return m.FindAllFunc(ctx, params)
	}
	panic("MockLinkRepository.FindAllFunc not set")
}

func (m *MockLinkRepository) Count(ctx context.Context, params usecase.CountParams) (int64, error) {
	if m.CountFunc != nil {
		return m.CountFunc(ctx, params)
	}
	panic("MockLinkRepository.CountFunc not set")
}
