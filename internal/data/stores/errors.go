package stores

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/colonyops/abroad/internal/data/db"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// IsBusyError reports whether err is SQLITE_BUSY or one of its extended
// codes, which is what a write gets once busy_timeout runs out.
func IsBusyError(err error) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code()&0xff == sqlite3.SQLITE_BUSY
	}
	return false
}

// IsCorruptionError reports whether abroad.db cannot be read as a database,
// either by result code or by the messages modernc reports for a damaged file.
func IsCorruptionError(err error) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() & 0xff {
		case sqlite3.SQLITE_CORRUPT, sqlite3.SQLITE_NOTADB, sqlite3.SQLITE_CANTOPEN:
			return true
		}
	}

	msg := err.Error()
	for _, marker := range corruptionMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

var corruptionMarkers = []string{
	"database disk image is malformed",
	"file is not a database",
	"database corruption",
}

// IsNotFoundError reports a missing KV key or profile row.
func IsNotFoundError(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// RecoverFromCorruption moves abroad.db and its -wal and -shm sidecars to
// abroad.db.corrupt.<timestamp> so the next db.Open starts an empty journey.
// A sidecar that cannot be renamed is removed; a stale WAL would otherwise be
// replayed into the fresh file.
func RecoverFromCorruption(dataDir string) error {
	dbPath := filepath.Join(dataDir, db.FileName)
	backupPath := fmt.Sprintf("%s.corrupt.%s", dbPath, time.Now().Format("20060102-150405"))

	if err := os.Rename(dbPath, backupPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to move aside %s: %w", db.FileName, err)
	}

	for _, suffix := range []string{"-wal", "-shm"} {
		sidecar := dbPath + suffix
		if _, err := os.Stat(sidecar); err != nil {
			continue
		}
		if err := os.Rename(sidecar, backupPath+suffix); err != nil {
			if rmErr := os.Remove(sidecar); rmErr != nil {
				return fmt.Errorf("failed to move aside %s%s: %w", db.FileName, suffix, err)
			}
		}
	}

	return nil
}
