package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/factgraph/ownertrie/config"
)

func TestDefaultValidates(t *testing.T) {
	require.NoError(t, config.Default().Validate())
}

func TestLoadParsesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ownertrie.yaml")
	require.NoError(t, os.WriteFile(path, []byte("backend: badger\nbadgerDir: /tmp/db\nverbosity: 2\n"), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, config.BackendBadger, cfg.Backend)
	require.Equal(t, "/tmp/db", cfg.BadgerDir)
	require.Equal(t, 2, cfg.Verbosity)
}

func TestValidateRejectsUnknownBackend(t *testing.T) {
	cfg := config.Default()
	cfg.Backend = "nope"
	require.Error(t, cfg.Validate())
}

func TestValidateRequiresBadgerDir(t *testing.T) {
	cfg := config.Default()
	cfg.Backend = config.BackendBadger
	cfg.BadgerDir = ""
	require.Error(t, cfg.Validate())
}
