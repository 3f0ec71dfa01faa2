package ai

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/documind/documind/internal/config"
)

func TestNewProvider_GeminiFromAIConfig(t *testing.T) {
	provider, err := NewProvider("gemini", config.AIConfig{
		Provider: "gemini",
		APIKey:   "test-key",
	})
	require.NoError(t, err)
	require.Equal(t, "gemini", provider.Name())
}

func TestNewProvider_Unknown(t *testing.T) {
	_, err := NewProvider("nope", config.AIConfig{})
	require.Error(t, err)
}

func TestNewProvider_NilArgs(t *testing.T) {
	_, err := NewProvider("gemini", nil)
	require.Error(t, err)
}
