package http

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/vadimbarashkov/shortlink/internal/entity"
	"github.com/vadimbarashkov/shortlink/internal/usecase"
)

type mockURLUseCase struct {
	mock.Mock
}

func (m *mockURLUseCase) ShortenURL(ctx context.Context, req usecase.ShortenRequest) (*entity.URL, error) {
	args := m.Called(ctx, req)
	u, _ := args.Get(0).(*entity.URL)
	return u, args.Error(1)
}

func (m *mockURLUseCase) ExpandURL(ctx context.Context, req usecase.ExpandRequest) (*entity.URL, error) {
	args := m.Called(ctx, req)
	u, _ := args.Get(0).(*entity.URL)
	return u, args.Error(1)
}

func (m *mockURLUseCase) ModifyURL(ctx context.Context, shortCode string, req usecase.ModifyRequest) (*entity.URL, error) {
	args := m.Called(ctx, shortCode, req)
	u, _ := args.Get(0).(*entity.URL)
	return u, args.Error(1)
}

func (m *mockURLUseCase) ListURLs(ctx context.Context, owner string) ([]*entity.URL, error) {
	args := m.Called(ctx, owner)
	urls, _ := args.Get(0).([]*entity.URL)
	return urls, args.Error(1)
}

func (m *mockURLUseCase) ListVisits(ctx context.Context, shortCode string) ([]*entity.Visit, error) {
	args := m.Called(ctx, shortCode)
	visits, _ := args.Get(0).([]*entity.Visit)
	return visits, args.Error(1)
}
