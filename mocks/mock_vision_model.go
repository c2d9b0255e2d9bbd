package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"orderlens/internal/port"
)

// MockVisionModel is a mock implementation of port.VisionModel.
type MockVisionModel struct {
	mock.Mock
}

func (m *MockVisionModel) Name() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockVisionModel) Generate(ctx context.Context, input port.PageInput) (string, error) {
	args := m.Called(ctx, input)
	return args.String(0), args.Error(1)
}
