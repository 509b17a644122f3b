package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	cfg := Default("Ferretera del Norte")
	cfg.Import.AllowPartialCommit = true
	cfg.Import.ReferenceDate = "2024-03-31"

	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, Save(path, cfg))

	got, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, cfg.Company.Name, got.Company.Name)
	assert.True(t, got.Import.AllowPartialCommit)
	assert.Equal(t, "2024-03-31", got.Import.ReferenceDate)
	assert.Equal(t, cfg.Log, got.Log)
	assert.Equal(t, cfg.Git, got.Git)
}

func TestDefaults(t *testing.T) {
	cfg := Default("My Company")

	assert.Equal(t, "My Company", cfg.Company.Name)
	assert.False(t, cfg.Import.AllowPartialCommit)
	assert.Empty(t, cfg.Import.ReferenceDate)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.True(t, cfg.Git.AutoCommit)
	assert.Equal(t, "Saldo", cfg.Git.AuthorName)
	assert.Equal(t, "saldo@cleared.dev", cfg.Git.AuthorEmail)
}

func TestLoadNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadBadReferenceDate(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("import:\n  reference_date: 31/03/2024\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reference_date")
}

func TestReference(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	got, err := ImportConfig{}.Reference(now)
	require.NoError(t, err)
	assert.Equal(t, now, got)

	got, err = ImportConfig{ReferenceDate: "2024-12-31"}.Reference(now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC), got)
}

func TestYAMLFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, Save(path, Default("Test Biz")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	contents := string(data)

	assert.Contains(t, contents, "name: Test Biz")
	assert.Contains(t, contents, "allow_partial_commit: false")
	assert.Contains(t, contents, "level: info")
	assert.Contains(t, contents, "auto_commit: true")
	assert.NotContains(t, contents, "reference_date")
}
