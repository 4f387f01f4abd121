package doctor

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/colonyops/abroad/internal/data/db"
)

// StorageCheck verifies the data directory is writable and the database
// passes SQLite's quick integrity check.
type StorageCheck struct {
	dataDir string
	conn    *sql.DB
}

// NewStorageCheck creates a new storage check.
func NewStorageCheck(dataDir string, conn *sql.DB) *StorageCheck {
	return &StorageCheck{dataDir: dataDir, conn: conn}
}

func (c *StorageCheck) Name() string {
	return "Storage"
}

func (c *StorageCheck) Run(ctx context.Context) Result {
	result := Result{Name: c.Name()}
	result.Items = append(result.Items, c.checkDataDir(), c.checkDatabase(ctx))
	return result
}

func (c *StorageCheck) checkDataDir() CheckItem {
	item := CheckItem{Label: "data directory", Detail: c.dataDir}

	scratch, err := os.CreateTemp(c.dataDir, ".doctor-*")
	if err != nil {
		item.Status = StatusFail
		item.Detail = fmt.Sprintf("not writable: %v", err)
		return item
	}
	_ = scratch.Close()
	_ = os.Remove(scratch.Name())

	item.Status = StatusPass
	return item
}

func (c *StorageCheck) checkDatabase(ctx context.Context) CheckItem {
	item := CheckItem{Label: "database", Detail: filepath.Join(c.dataDir, db.FileName)}

	if c.conn == nil {
		item.Status = StatusFail
		item.Detail = "not open"
		return item
	}

	var verdict string
	if err := c.conn.QueryRowContext(ctx, "PRAGMA quick_check").Scan(&verdict); err != nil {
		item.Status = StatusFail
		item.Detail = fmt.Sprintf("integrity check failed: %v", err)
		return item
	}
	if verdict != "ok" {
		item.Status = StatusFail
		item.Detail = verdict
		return item
	}

	item.Status = StatusPass
	return item
}
