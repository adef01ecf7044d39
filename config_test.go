package llmpipeline

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Empty(t, cfg.APIKey)
	assert.Equal(t, DefaultBaseURL, cfg.BaseURL)
	assert.Equal(t, DefaultAPIVersion, cfg.APIVersion)
	assert.Equal(t, 5, cfg.MaxImages)
	assert.Equal(t, 100, cfg.MaxImageSizeMB)
	assert.Equal(t, 4096, cfg.DefaultMaxTokens)
	assert.Equal(t, 0.8, cfg.DefaultTemperature)
	assert.Equal(t, 40, cfg.DefaultTopK)
	assert.Equal(t, 0.9, cfg.DefaultTopP)
	assert.Equal(t, 120*time.Second, cfg.Timeout)
}

func TestWithDefaultsKeepsSetFields(t *testing.T) {
	cfg := Config{
		APIKey:           "sk-test",
		BaseURL:          "http://localhost:9999",
		MaxImages:        2,
		DefaultMaxTokens: 64,
	}.WithDefaults()

	assert.Equal(t, "sk-test", cfg.APIKey)
	assert.Equal(t, "http://localhost:9999", cfg.BaseURL)
	assert.Equal(t, 2, cfg.MaxImages)
	assert.Equal(t, 64, cfg.DefaultMaxTokens)

	// Unset fields are filled in.
	assert.Equal(t, DefaultAPIVersion, cfg.APIVersion)
	assert.Equal(t, 100, cfg.MaxImageSizeMB)
	assert.Equal(t, 0.8, cfg.DefaultTemperature)
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "sk-from-env")

	cfg := ConfigFromEnv()
	assert.Equal(t, "sk-from-env", cfg.APIKey)
	assert.Equal(t, DefaultBaseURL, cfg.BaseURL)
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	raw := `
api_key: sk-file
max_images: 3
default_temperature: 0.2
`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "sk-file", cfg.APIKey)
	assert.Equal(t, 3, cfg.MaxImages)
	assert.Equal(t, 0.2, cfg.DefaultTemperature)

	// Fields the file leaves unset get defaults.
	assert.Equal(t, DefaultBaseURL, cfg.BaseURL)
	assert.Equal(t, 4096, cfg.DefaultMaxTokens)
}

func TestLoadConfigErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("api_key: [unclosed"), 0o644))

		_, err := LoadConfig(path)
		assert.Error(t, err)
	})
}
