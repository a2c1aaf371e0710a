package backup

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunCopiesDatabase(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "maru.db")
	require.NoError(t, os.WriteFile(dbPath, []byte("sqlite payload"), 0o644))

	storage := filepath.Join(dir, "backups")
	logger := zerolog.Nop()
	svc := New(dbPath, Config{Enabled: true, StoragePath: storage}, &logger)

	require.NoError(t, svc.Run())

	entries, err := os.ReadDir(storage)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	data, err := os.ReadFile(filepath.Join(storage, entries[0].Name()))
	require.NoError(t, err)
	assert.Equal(t, []byte("sqlite payload"), data)
}

func TestRunFailsWithoutDatabase(t *testing.T) {
	dir := t.TempDir()
	logger := zerolog.Nop()
	svc := New(filepath.Join(dir, "missing.db"), Config{Enabled: true, StoragePath: dir}, &logger)
	assert.Error(t, svc.Run())
}

func TestNewAppliesDefaults(t *testing.T) {
	logger := zerolog.Nop()
	svc := New("maru.db", Config{}, &logger)
	assert.Equal(t, "backups", svc.cfg.StoragePath)
	assert.Equal(t, 24, svc.cfg.IntervalHours)
}
