package config

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

	assert.Equal(t, "localhost", cfg.MySQL.Host)
	assert.Equal(t, 3306, cfg.MySQL.Port)
	assert.Equal(t, "localhost:6379", cfg.Redis.Address)
	assert.Equal(t, 4096, cfg.Extractor.MaxTokens)
	assert.Equal(t, 10, cfg.Assistant.HistoryTurns)
	assert.Equal(t, 5, cfg.Assistant.MaxResumeFiles)
	assert.Equal(t, 2000, cfg.Assistant.MaxTokens)
	assert.InDelta(t, 0.7, cfg.Assistant.Temperature, 0.001)
}

func TestLoadConfigFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
gemini:
  api_key: file-key
  model: gemini-2.5-flash
  task_models:
    resume_parse: gemini-2.5-pro
server:
  address: ":9090"
model_qpm_limits:
  gemini-2.5-flash: 120
`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "file-key", cfg.Gemini.APIKey)
	assert.Equal(t, ":9090", cfg.Server.Address)

	// Defaults still fill what the file omits.
	assert.Equal(t, 10, cfg.Assistant.HistoryTurns)
}

func TestEnvOverridesBeatFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("gemini:\n  api_key: file-key\n"), 0o644))

	t.Setenv("GEMINI_API_KEY", "env-key")
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "env-key", cfg.Gemini.APIKey)
}

func TestGetModelForTask(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Gemini.Model = "gemini-2.5-flash"
	cfg.Gemini.TaskModels = map[string]string{"resume_parse": "gemini-2.5-pro"}

	assert.Equal(t, "gemini-2.5-pro", cfg.GetModelForTask("resume_parse"))
	assert.Equal(t, "gemini-2.5-flash", cfg.GetModelForTask("applicant_analyze"))
	assert.Equal(t, "gemini-2.5-flash", cfg.GetModelForTask("unknown"))
}

func TestQPMForModel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ModelQPMLimits = map[string]int{"gemini-2.5-flash": 120}

	assert.Equal(t, 120, cfg.QPMForModel("gemini-2.5-flash"))
	assert.Equal(t, 60, cfg.QPMForModel("something-else"))
}

func TestGetDuration(t *testing.T) {
	assert.Equal(t, 90*time.Second, GetDuration("90s", time.Minute))
	assert.Equal(t, time.Minute, GetDuration("", time.Minute))
	assert.Equal(t, time.Minute, GetDuration("not-a-duration", time.Minute))
}
