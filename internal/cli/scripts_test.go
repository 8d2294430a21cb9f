package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptsFixture lays out a script directory with one Multiwfn menu
// script, one shell helper and one nested data table.
func scriptsFixture(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "scripts")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "data"), 0o755))

	files := map[string]string{
		"esp_settings.txt": "12\n2\n0\nq\n",
		"plot.sh":          "#!/bin/sh\ngnuplot plot.gnu\n",
		"data/table.txt":   "x value pair\n1.0 2.0\n3.0 4.0\n",
	}
	for name, text := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(text), 0o755))
	}
	return dir
}

func TestScriptsListTable(t *testing.T) {
	dir := scriptsFixture(t)

	stdout, _, err := execute(t, "scripts", "list", "--scripts-dir", dir)
	require.NoError(t, err)

	assert.Contains(t, stdout, "IDENTIFIER")
	assert.Contains(t, stdout, "EXECUTOR")
	assert.Contains(t, stdout, "scripts:esp_settings.txt")
	assert.Contains(t, stdout, "multiwfn")
	assert.Contains(t, stdout, "scripts:plot.sh")
	assert.Contains(t, stdout, "shell")
	assert.Contains(t, stdout, "scripts:data/table.txt")
	assert.Contains(t, stdout, "data")
}

func TestScriptsListExecutorFilter(t *testing.T) {
	dir := scriptsFixture(t)

	stdout, _, err := execute(t, "scripts", "list", "--scripts-dir", dir, "--executor", "multiwfn")
	require.NoError(t, err)

	assert.Contains(t, stdout, "scripts:esp_settings.txt")
	assert.NotContains(t, stdout, "plot.sh")
	assert.NotContains(t, stdout, "table.txt")
}

func TestScriptsListEmpty(t *testing.T) {
	stdout, _, err := execute(t, "scripts", "list", "--scripts-dir", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, stdout, "No scripts found.")
}

func TestScriptsListJSON(t *testing.T) {
	dir := scriptsFixture(t)

	stdout, _, err := execute(t, "--format", "json", "scripts", "list", "--scripts-dir", dir)
	require.NoError(t, err)

	var response struct {
		Status string       `json:"status"`
		Data   []ScriptView `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &response))
	assert.Equal(t, "ok", response.Status)
	require.Len(t, response.Data, 3)

	byID := map[string]ScriptView{}
	for _, view := range response.Data {
		byID[view.Identifier] = view
	}
	assert.Equal(t, "multiwfn", byID["scripts:esp_settings.txt"].Executor)
	assert.Equal(t, "shell", byID["scripts:plot.sh"].Executor)
	assert.Equal(t, "data", byID["scripts:data/table.txt"].Category)
}

func TestScriptsShowByStem(t *testing.T) {
	dir := scriptsFixture(t)

	stdout, _, err := execute(t, "scripts", "show", "esp_settings", "--scripts-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, stdout, "12\n2\n0\nq")
}

func TestScriptsShowHead(t *testing.T) {
	dir := scriptsFixture(t)

	stdout, _, err := execute(t, "scripts", "show", "esp_settings", "--scripts-dir", dir, "--head", "2")
	require.NoError(t, err)
	assert.Contains(t, stdout, "12\n2")
	assert.NotContains(t, stdout, "q")
}

func TestScriptsShowUnknown(t *testing.T) {
	dir := scriptsFixture(t)

	stdout, _, err := execute(t, "scripts", "show", "nonexistent", "--scripts-dir", dir)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stdout, "Error [E203]")
	assert.Contains(t, stdout, "unknown script: nonexistent")
}

func TestScriptsShowJSONIncludesText(t *testing.T) {
	dir := scriptsFixture(t)

	stdout, _, err := execute(t, "--format", "json", "scripts", "show", "esp_settings", "--scripts-dir", dir)
	require.NoError(t, err)

	var response struct {
		Status string     `json:"status"`
		Data   ScriptView `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &response))
	assert.Equal(t, "ok", response.Status)
	assert.Equal(t, "scripts:esp_settings.txt", response.Data.Identifier)
	assert.Contains(t, response.Data.Text, "12\n2\n0\nq")
}
