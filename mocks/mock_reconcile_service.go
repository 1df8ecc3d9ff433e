package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"docstracker/internal/domain"
	"docstracker/internal/service"
)

// MockReconcileService is a mock implementation of service.ReconcileService.
type MockReconcileService struct {
	mock.Mock
}

func (m *MockReconcileService) Run(ctx context.Context, input service.RunInput) (*service.RunSummary, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.RunSummary), args.Error(1)
}

func (m *MockReconcileService) Classify(ctx context.Context, input service.ClassifyInput) ([]service.Classification, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]service.Classification), args.Error(1)
}

func (m *MockReconcileService) Reference(ctx context.Context, dir, fallbackType string) (*domain.Reference, error) {
	args := m.Called(ctx, dir, fallbackType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reference), args.Error(1)
}

func (m *MockReconcileService) CheckAccess(ctx context.Context, root string) error {
	args := m.Called(ctx, root)
	return args.Error(0)
}
