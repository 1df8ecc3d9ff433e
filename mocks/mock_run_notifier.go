package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"docstracker/internal/port"
)

// MockRunNotifier is a mock implementation of port.RunNotifier.
type MockRunNotifier struct {
	mock.Mock
}

func (m *MockRunNotifier) NotifyRunCompleted(ctx context.Context, recipients []string, notice port.RunNotice) error {
	args := m.Called(ctx, recipients, notice)
	return args.Error(0)
}
