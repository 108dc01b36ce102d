package config

import (
	"os"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets variables Load reads, restoring them afterwards.
func clearEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		if v, ok := os.LookupEnv(k); ok {
			t.Cleanup(func() { os.Setenv(k, v) })
		} else {
			t.Cleanup(func() { os.Unsetenv(k) })
		}
		os.Unsetenv(k)
	}
}

var envKeys = []string{"DTOBUDDY_PORT", "DTOBUDDY_OUT_DIR", "DTOBUDDY_ASSIST_MODEL", "DTOBUDDY_ASSIST_API_KEY", "GOOGLE_API_KEY", "DTOBUDDY_SESSION_IDLE_TIMEOUT", "DTOBUDDY_EXPORT_DIR"}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t, envKeys...)
	cfg, err := Load(Options{Fs: afero.NewMemMapFs(), Dir: "/work"})
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, ".", cfg.OutDir)
	assert.Equal(t, 256, cfg.EventBuffer)
	assert.Equal(t, "gemini-2.0-flash", cfg.Assist.Model)
	assert.Equal(t, 60*time.Second, cfg.Assist.Timeout)
	assert.Equal(t, 24*time.Hour, cfg.Session.MaxAge)
	assert.Equal(t, 30*time.Minute, cfg.Session.IdleTimeout)
	assert.Empty(t, cfg.Assist.APIKey)
	assert.Empty(t, cfg.ExportDir)
	assert.Empty(t, cfg.File)
}

func TestLoad_FileAndEnv(t *testing.T) {
	clearEnv(t, envKeys...)
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/work/dtobuddy.yaml", []byte(`
port: 9090
out_dir: generated
export_dir: /srv/export
assist:
  model: gemini-test
session:
  idle_timeout: 5m
`), 0o644))
	t.Setenv("DTOBUDDY_OUT_DIR", "from-env")

	cfg, err := Load(Options{Fs: fs, Dir: "/work"})
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "from-env", cfg.OutDir)
	assert.Equal(t, "gemini-test", cfg.Assist.Model)
	assert.Equal(t, "/srv/export", cfg.ExportDir)
	assert.Equal(t, 5*time.Minute, cfg.Session.IdleTimeout)
	assert.Equal(t, "/work/dtobuddy.yaml", cfg.File)
}

func TestLoad_DotEnv(t *testing.T) {
	clearEnv(t, envKeys...)
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/work/.env", []byte("GOOGLE_API_KEY=from-dotenv\nDTOBUDDY_PORT=7000\n"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/work/.env.local", []byte("DTOBUDDY_PORT=7001\n"), 0o644))

	cfg, err := Load(Options{Fs: fs, Dir: "/work"})
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.Assist.APIKey)
	assert.Equal(t, 7001, cfg.Port)
}

func TestLoad_ExplicitAPIKeyWins(t *testing.T) {
	clearEnv(t, envKeys...)
	t.Setenv("GOOGLE_API_KEY", "fallback")
	t.Setenv("DTOBUDDY_ASSIST_API_KEY", "explicit")

	cfg, err := Load(Options{Fs: afero.NewMemMapFs(), Dir: "/work"})
	require.NoError(t, err)
	assert.Equal(t, "explicit", cfg.Assist.APIKey)
}

func TestLoad_Errors(t *testing.T) {
	clearEnv(t, envKeys...)

	_, err := Load(Options{Fs: afero.NewMemMapFs(), File: "/missing.yaml"})
	assert.Error(t, err)

	t.Setenv("DTOBUDDY_PORT", "70000")
	_, err = Load(Options{Fs: afero.NewMemMapFs(), Dir: "/work"})
	assert.ErrorContains(t, err, "invalid port")
}
