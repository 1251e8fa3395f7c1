package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/serroba/richdocs/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func env(vars map[string]string) config.LookupFunc {
	return func(key string) (string, bool) {
		v, ok := vars[key]

		return v, ok
	}
}

func writeFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "richdocs.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestDefault(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, 100, cfg.HistorySize)

	level, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, zapcore.InfoLevel, level)
}

func TestParse_NoInput(t *testing.T) {
	t.Parallel()

	cfg, err := config.Parse(nil, env(nil))
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestParse_Precedence(t *testing.T) {
	t.Parallel()

	path := writeFile(t, `
addr: ":9000"
historySize: 20
wrapWidth: 72
logLevel: warn
readHeaderTimeout: 3s
`)

	cfg, err := config.Parse(
		[]string{"-config", path, "-history", "30"},
		env(map[string]string{
			"RICHDOCS_HISTORY_SIZE": "25",
			"RICHDOCS_WRAP_WIDTH":   "60",
			"RICHDOCS_DEVELOPMENT":  "true",
		}),
	)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Addr)
	assert.Equal(t, 30, cfg.HistorySize)
	assert.InDelta(t, 60.0, cfg.WrapWidth, 0)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.True(t, cfg.Development)
	assert.Equal(t, 3*time.Second, cfg.ReadHeaderTimeout)
	assert.Equal(t, 50, cfg.SnapshotEvery)
}

func TestParse_ConfigFromEnv(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "tabWidth: 8\n")

	cfg, err := config.Parse(nil, env(map[string]string{"RICHDOCS_CONFIG": path}))
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.TabWidth)
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args []string
		env  map[string]string
	}{
		{name: "unknown flag", args: []string{"-verbose"}},
		{name: "bad flag value", args: []string{"-history", "many"}},
		{name: "bad env int", env: map[string]string{"RICHDOCS_SNAPSHOT_EVERY": "often"}},
		{name: "bad env duration", env: map[string]string{"RICHDOCS_READ_HEADER_TIMEOUT": "soon"}},
		{name: "bad env bool", env: map[string]string{"RICHDOCS_DEVELOPMENT": "maybe"}},
		{name: "zero history", args: []string{"-history", "0"}},
		{name: "negative wrap", env: map[string]string{"RICHDOCS_WRAP_WIDTH": "-1"}},
		{name: "unknown level", args: []string{"-log-level", "loud"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := config.Parse(tt.args, env(tt.env))
			assert.ErrorIs(t, err, config.ErrInvalidConfig)
		})
	}
}

func TestParse_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := config.Parse([]string{"-config", filepath.Join(t.TempDir(), "absent.yaml")}, env(nil))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestDecode(t *testing.T) {
	t.Parallel()

	t.Run("keeps absent keys", func(t *testing.T) {
		t.Parallel()

		cfg := config.Default()
		require.NoError(t, cfg.Decode(strings.NewReader("snapshotEvery: 5\n")))
		assert.Equal(t, 5, cfg.SnapshotEvery)
		assert.Equal(t, 100, cfg.HistorySize)
	})

	t.Run("accepts an empty document", func(t *testing.T) {
		t.Parallel()

		cfg := config.Default()
		require.NoError(t, cfg.Decode(strings.NewReader("")))
		assert.Equal(t, config.Default(), cfg)
	})

	t.Run("rejects unknown keys", func(t *testing.T) {
		t.Parallel()

		cfg := config.Default()
		err := cfg.Decode(strings.NewReader("colour: blue\n"))
		assert.ErrorIs(t, err, config.ErrInvalidConfig)
	})
}
