package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DeRisk-Technologies/MindKindler-sub001/internal/types"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_ValidFile(t *testing.T) {
	path := writeConfig(t, `
home: /var/lib/guardian
database:
  path: /var/lib/guardian/guardian.db
logging:
  level: debug
  format: text
safeguarding:
  keywords:
    - grooming
audit:
  retry_interval_seconds: 2
  max_retry_attempts: 3
`)

	cfg, err := NewLoader(NewValidator()).Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/guardian", cfg.Home)
	assert.Equal(t, "/var/lib/guardian/guardian.db", cfg.Database.Path)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, []string{"grooming"}, cfg.Safeguarding.Keywords)
	assert.Equal(t, 2, cfg.Audit.RetryIntervalSeconds)
	assert.Equal(t, 3, cfg.Audit.MaxRetryAttempts)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := NewLoader(NewValidator()).Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)

	var gerr *types.GuardianError
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, types.CONFIG_LOAD_FAILED, gerr.Code)
}

func TestLoad_EnvInterpolation(t *testing.T) {
	t.Setenv("GUARDIAN_TEST_DATA", "/srv/guardian")

	path := writeConfig(t, `
database:
  path: ${GUARDIAN_TEST_DATA}/guardian.db
`)

	cfg, err := NewLoader(NewValidator()).Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/guardian/guardian.db", cfg.Database.Path)
}

func TestLoad_UnsetEnvLeftIntact(t *testing.T) {
	path := writeConfig(t, `
database:
  path: ${GUARDIAN_TEST_UNSET_VAR}/guardian.db
`)

	cfg, err := NewLoader(NewValidator()).Load(path)
	require.NoError(t, err)
	assert.Equal(t, "${GUARDIAN_TEST_UNSET_VAR}/guardian.db", cfg.Database.Path)
}

func TestLoadWithDefaults_FallsBackWhenAbsent(t *testing.T) {
	home := t.TempDir()

	cfg, err := NewLoader(NewValidator()).LoadWithDefaults(
		filepath.Join(home, "config.yaml"), home)
	require.NoError(t, err)

	assert.Equal(t, home, cfg.Home)
	assert.Equal(t, filepath.Join(home, "guardian.db"), cfg.Database.Path)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadWithDefaults_PrefersExistingFile(t *testing.T) {
	home := t.TempDir()
	path := filepath.Join(home, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("database:\n  path: custom.db\n"), 0o644))

	cfg, err := NewLoader(NewValidator()).LoadWithDefaults(path, home)
	require.NoError(t, err)
	assert.Equal(t, "custom.db", cfg.Database.Path)
}
