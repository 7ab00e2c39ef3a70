package scan

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hellominers/statsupdater/internal/conf"
)

func TestScanClassifiesFiles(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"0d6c5c1e-3a58-4c43-9f49-4f7b5f0f2a11.json": `{"stat.mineBlock.1": 5}`,
		"5b1c8a8e-2f64-4c7e-9f3a-0a9cdb1e7b52.json": `{"DataVersion": 3839, "stats": {}}`,
		"legacy-name.json":                          `{"stat.jump": 3}`,
		"broken.json":                               `{"stat.jump": `,
		"ignored.txt":                               `{}`,
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o600))
	}
	// a directory matching the pattern is skipped
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.json"), 0o750))

	settings := &conf.Settings{Migration: conf.MigrationSettings{StatsDir: dir, Pattern: "*.json", ReadAhead: 2}}
	before := snapshot(t, dir)

	report, err := Scan(settings)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Legacy)
	assert.Equal(t, 1, report.Current)
	assert.Equal(t, 1, report.Corrupt)
	assert.Zero(t, report.Unreadable)
	assert.Equal(t, 2, report.Players)
	assert.Equal(t, 4, report.Total())
	assert.Equal(t, before, snapshot(t, dir), "scan must not modify any file")
}

func TestScanMissingDirectory(t *testing.T) {
	settings := &conf.Settings{Migration: conf.MigrationSettings{StatsDir: filepath.Join(t.TempDir(), "absent")}}
	_, err := Scan(settings)
	require.Error(t, err)
}

func TestPrintUsesHumanReadableCounts(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Print(&buf, "/srv/world/stats", Report{Legacy: 12345, Current: 2, Bytes: 2_500_000}))

	out := buf.String()
	assert.Contains(t, out, "Scanned 12,347 stats files (2.5 MB) in /srv/world/stats")
	assert.Contains(t, out, "legacy:     12,345")
}

func snapshot(t *testing.T, dir string) map[string]string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	out := make(map[string]string, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		require.NoError(t, err)
		out[e.Name()] = string(data)
	}
	return out
}
