package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"orderlens/internal/port"
)

// MockPageConverter is a mock implementation of port.PageConverter.
type MockPageConverter struct {
	mock.Mock
}

func (m *MockPageConverter) Convert(ctx context.Context, documentPath string) ([]port.PageImage, error) {
	args := m.Called(ctx, documentPath)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]port.PageImage), args.Error(1)
}
