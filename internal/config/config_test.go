package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFullFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "multiwfn_path: /opt/multiwfn/Multiwfn\n" +
		"script_dirs:\n" +
		"  - /srv/scripts\n" +
		"  - /srv/eda\n" +
		"catalog: /var/lib/wfnkit/catalog.db\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/opt/multiwfn/Multiwfn", cfg.MultiwfnPath)
	assert.Equal(t, []string{"/srv/scripts", "/srv/eda"}, cfg.ScriptDirs)
	assert.Equal(t, "/var/lib/wfnkit/catalog.db", cfg.Catalog)
	assert.Equal(t, path, cfg.File)
}

func TestLoadPartialFileFillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("multiwfn_path: /opt/Multiwfn\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/opt/Multiwfn", cfg.MultiwfnPath)
	assert.Equal(t, []string{
		filepath.Join("examples", "scripts"),
		filepath.Join("examples", "EDA"),
	}, cfg.ScriptDirs)
	assert.NotEmpty(t, cfg.Catalog)
}

func TestLoadEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.NotEmpty(t, cfg.MultiwfnPath)
	assert.Len(t, cfg.ScriptDirs, 2)
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("multiwfn_binary: /opt/Multiwfn\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config")
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("script_dirs: [unclosed\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadExplicitMissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}
