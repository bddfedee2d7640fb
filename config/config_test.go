package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meenmo/actus/config"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := config.Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 100, cfg.MaxDurationYears)
	assert.Equal(t, 1.0, cfg.EquivalenceTolerance)
	assert.False(t, cfg.StrictEventCoverage)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "actus.yaml")
	require.NoError(t, os.WriteFile(path, []byte("strict_event_coverage: true\nkernel_workers: 8\n"), 0o600))
	t.Setenv("ACTUS_KERNEL_WORKERS", "2")
	t.Setenv("ACTUS_LOG_LEVEL", "debug")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.StrictEventCoverage)
	assert.Equal(t, 2, cfg.KernelWorkers)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 4, cfg.PortfolioWorkers)
}

func TestLoad_RejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "actus.yaml")
	require.NoError(t, os.WriteFile(path, []byte("kernel_wrkers: 8\n"), 0o600))
	_, err := config.Load(path)
	assert.Error(t, err)
}

func TestWithEnv_IgnoresGarbage(t *testing.T) {
	env := map[string]string{"ACTUS_KERNEL_WORKERS": "many", "ACTUS_STATE_TOLERANCE": "1e-6"}
	cfg := config.Default().WithEnv(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})
	assert.Equal(t, 4, cfg.KernelWorkers)
	assert.Equal(t, 1e-6, cfg.StateTolerance)
}

func TestValidate(t *testing.T) {
	cfg := config.Default()
	cfg.KernelWorkers = 0
	assert.Error(t, cfg.Validate())

	cfg = config.Default()
	cfg.LogLevel = "loud"
	assert.Error(t, cfg.Validate())
}
