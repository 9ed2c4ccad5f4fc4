package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadWritesDefaultConfig(t *testing.T) {
	req := require.New(t)
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, resolved, err := Load(nil, path)
	req.NoError(err)
	req.Equal(path, resolved)
	req.Equal(Default(), cfg)

	_, err = os.Stat(path)
	req.NoError(err)
}

func TestLoadFileAndEnvPrecedence(t *testing.T) {
	req := require.New(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	req.NoError(os.WriteFile(path, []byte("addr: \":7000\"\nhello_timeout: 3s\nsession_buffer: 16\n"), 0o600))

	t.Setenv("SOCIALCHAT_SESSION_BUFFER", "32")
	t.Setenv("SOCIALCHAT_JWT_SECRET", "from-env")

	cfg, _, err := Load(nil, path)
	req.NoError(err)
	req.Equal(":7000", cfg.Addr)
	req.Equal(3*time.Second, cfg.HelloTimeout)
	req.Equal(32, cfg.SessionBuffer)
	req.Equal("from-env", cfg.JWTSecret)
	req.Equal([]string{"*"}, cfg.AllowedOrigins)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("jwt_secret: \"\"\n"), 0o600))

	_, _, err := Load(nil, path)
	require.Error(t, err)
}

func TestUpdateFrom(t *testing.T) {
	cfg := Default()
	cfg.UpdateFrom(Config{Addr: ":1234", LogLevel: "debug"})

	require.Equal(t, ":1234", cfg.Addr)
	require.Equal(t, "debug", cfg.LogLevel)
	require.Equal(t, Default().ShutdownTimeout, cfg.ShutdownTimeout)
}
