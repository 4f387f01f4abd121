package stores

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/abroad/internal/data/db"
)

func TestRecoverFromCorruption_Success(t *testing.T) {
	tempDir := t.TempDir()
	dbPath := filepath.Join(tempDir, db.FileName)

	require.NoError(t, os.WriteFile(dbPath, []byte("corrupted data"), 0o644))
	walPath := dbPath + "-wal"
	shmPath := dbPath + "-shm"
	require.NoError(t, os.WriteFile(walPath, []byte("wal data"), 0o644))
	require.NoError(t, os.WriteFile(shmPath, []byte("shm data"), 0o644))

	require.NoError(t, RecoverFromCorruption(tempDir))

	backups, err := filepath.Glob(filepath.Join(tempDir, db.FileName+".corrupt.*"))
	require.NoError(t, err)

	var dbBackups, walBackups, shmBackups int
	for _, f := range backups {
		switch {
		case strings.HasSuffix(f, "-wal"):
			walBackups++
		case strings.HasSuffix(f, "-shm"):
			shmBackups++
		default:
			dbBackups++
		}
	}
	assert.Equal(t, 1, dbBackups)
	assert.Equal(t, 1, walBackups)
	assert.Equal(t, 1, shmBackups)

	for _, p := range []string{dbPath, walPath, shmPath} {
		_, err := os.Stat(p)
		assert.True(t, os.IsNotExist(err), "%s should be moved aside", filepath.Base(p))
	}
}

func TestRecoverFromCorruption_MissingFile(t *testing.T) {
	tempDir := t.TempDir()

	assert.NoError(t, RecoverFromCorruption(tempDir))

	files, _ := filepath.Glob(filepath.Join(tempDir, "*.corrupt.*"))
	assert.Empty(t, files)
}

func TestRecoverFromCorruption_ReopenAfterRecovery(t *testing.T) {
	tempDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tempDir, db.FileName), []byte("not a database at all, just text"), 0o644))

	_, err := db.Open(tempDir, db.DefaultOpenOptions())
	require.Error(t, err)

	require.NoError(t, RecoverFromCorruption(tempDir))

	database, err := db.Open(tempDir, db.DefaultOpenOptions())
	require.NoError(t, err)
	require.NoError(t, database.Close())
}

func TestIsNotFoundError(t *testing.T) {
	assert.True(t, IsNotFoundError(sql.ErrNoRows))
	assert.True(t, IsNotFoundError(fmt.Errorf("kv get: %w", sql.ErrNoRows)))
	assert.False(t, IsNotFoundError(errors.New("other")))
}

func TestIsCorruptionError_Message(t *testing.T) {
	assert.True(t, IsCorruptionError(errors.New("file is not a database (26)")))
	assert.False(t, IsCorruptionError(errors.New("connection refused")))
	assert.False(t, IsBusyError(errors.New("database is locked")))
}

func TestIsBusyError_LockedDatabase(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	opts := db.DefaultOpenOptions()
	opts.BusyTimeout = 0

	holder, err := db.Open(dir, opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = holder.Close() })
	other, err := db.Open(dir, opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = other.Close() })

	tx, err := holder.Conn().BeginTx(ctx, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = tx.Rollback() })
	_, err = tx.ExecContext(ctx, "INSERT INTO kv_store (key, value, created_at, updated_at) VALUES ('lock', x'00', 1, 1)")
	require.NoError(t, err)

	err = NewKVStore(other).Set(ctx, "journey:p-1", "blocked")
	require.Error(t, err)
	assert.True(t, IsBusyError(err), "got %v", err)
	assert.False(t, IsCorruptionError(err))
}
