package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_FileAndDefaults(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.yaml")
	content := `
log:
  level: debug
directory:
  packages: ` + filepath.Join(dir, "pkgs") + `
registry:
  lock: false
script:
  interpreter: bash
  args: ["-e", "{{.Script}}"]
`
	require.NoError(t, os.WriteFile(file, []byte(content), 0o644))

	cfg, err := LoadConfig(file)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, filepath.Join(dir, "pkgs"), cfg.Directory.Packages)
	assert.False(t, cfg.Registry.Lock)
	assert.Equal(t, "bash", cfg.Script.Interpreter)
	assert.Equal(t, []string{"-e", "{{.Script}}"}, cfg.Script.Args)
	assert.Equal(t, DefaultInstallScript, cfg.Script.Install)
	assert.Equal(t, DefaultUninstallScript, cfg.Script.Uninstall)
	assert.Equal(t, RegistryFileName, filepath.Base(cfg.Registry.File))
	assert.Equal(t, SourcesFileName, filepath.Base(cfg.Sources.File))
	assert.Equal(t, "history.db", filepath.Base(cfg.History.DSN))
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	file := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(file, []byte("server:\n  address: 127.0.0.1:1\n"), 0o644))
	t.Setenv("NUDEPLOY_SERVER_ADDRESS", "0.0.0.0:9000")
	t.Setenv("NUDEPLOY_SCRIPT_INSTALL", "Install.sh")

	cfg, err := LoadConfig(file)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9000", cfg.Server.Address)
	assert.Equal(t, "Install.sh", cfg.Script.Install)
}

func TestLoadConfig_BadFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(file, []byte("log: [unterminated"), 0o644))
	_, err := LoadConfig(file)
	assert.Error(t, err)
}
