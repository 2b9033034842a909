package usecase

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/vadimbarashkov/shortlink/internal/entity"
)

type mockQuery struct {
	mock.Mock
}

func (m *mockQuery) GetURLByCode(ctx context.Context, code string) (*entity.URL, error) {
	args := m.Called(ctx, code)
	u, _ := args.Get(0).(*entity.URL)
	return u, args.Error(1)
}

func (m *mockQuery) GetURLsByOwner(ctx context.Context, owner string) ([]*entity.URL, error) {
	args := m.Called(ctx, owner)
	urls, _ := args.Get(0).([]*entity.URL)
	return urls, args.Error(1)
}

func (m *mockQuery) GetVisitsByCode(ctx context.Context, code string) ([]*entity.Visit, error) {
	args := m.Called(ctx, code)
	visits, _ := args.Get(0).([]*entity.Visit)
	return visits, args.Error(1)
}

type mockCommand struct {
	mock.Mock
}

func (m *mockCommand) Upsert(ctx context.Context, doc entity.Document) (int, error) {
	args := m.Called(ctx, doc)
	return args.Int(0), args.Error(1)
}

type mockCodeGenerator struct {
	mock.Mock
}

func (m *mockCodeGenerator) Generate(length int) (string, error) {
	args := m.Called(length)
	return args.String(0), args.Error(1)
}
