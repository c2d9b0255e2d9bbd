package vision

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderlens/internal/config"
	"orderlens/internal/port"
)

type stubModel struct{ name string }

func (s *stubModel) Name() string { return s.name }
func (s *stubModel) Generate(_ context.Context, _ port.PageInput) (string, error) {
	return "", nil
}

func TestRegisterAndNew(t *testing.T) {
	Register("stub", func(cfg *config.VisionProviderConfig) (port.VisionModel, error) {
		return &stubModel{name: cfg.Provider}, nil
	})

	model, err := New(&config.VisionProviderConfig{Provider: "stub"})
	require.NoError(t, err)
	assert.Equal(t, "stub", model.Name())
	assert.Contains(t, Registered(), "stub")
}

func TestNew_UnknownProvider(t *testing.T) {
	_, err := New(&config.VisionProviderConfig{Provider: "nope"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown vision provider")
}
