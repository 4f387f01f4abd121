package db

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by both *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

// Queries holds the statements used by the stores.
type Queries struct {
	db DBTX
}

// New returns queries bound to db.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// WithTx returns queries bound to tx.
func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// KvStore is a row of the kv_store table.
type KvStore struct {
	Key       string
	Value     []byte
	CreatedAt int64
	UpdatedAt int64
}

const kvGet = `SELECT key, value, created_at, updated_at FROM kv_store WHERE key = ?`

func (q *Queries) KVGet(ctx context.Context, key string) (KvStore, error) {
	var row KvStore
	err := q.db.QueryRowContext(ctx, kvGet, key).Scan(&row.Key, &row.Value, &row.CreatedAt, &row.UpdatedAt)
	return row, err
}

type KVSetParams struct {
	Key       string
	Value     []byte
	CreatedAt int64
	UpdatedAt int64
}

const kvSet = `INSERT INTO kv_store (key, value, created_at, updated_at)
VALUES (?, ?, ?, ?)
ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`

func (q *Queries) KVSet(ctx context.Context, arg KVSetParams) error {
	_, err := q.db.ExecContext(ctx, kvSet, arg.Key, arg.Value, arg.CreatedAt, arg.UpdatedAt)
	return err
}

const kvDelete = `DELETE FROM kv_store WHERE key = ?`

func (q *Queries) KVDelete(ctx context.Context, key string) error {
	_, err := q.db.ExecContext(ctx, kvDelete, key)
	return err
}

// Profile is a row of the profiles table.
type Profile struct {
	ID            string
	Name          string
	TargetCountry string
	StudyLevel    string
	StartDate     int64
	CreatedAt     int64
}

const createProfile = `INSERT INTO profiles (id, name, target_country, study_level, start_date, created_at)
VALUES (?, ?, ?, ?, ?, ?)`

type CreateProfileParams struct {
	ID            string
	Name          string
	TargetCountry string
	StudyLevel    string
	StartDate     int64
	CreatedAt     int64
}

func (q *Queries) CreateProfile(ctx context.Context, arg CreateProfileParams) error {
	_, err := q.db.ExecContext(ctx, createProfile,
		arg.ID, arg.Name, arg.TargetCountry, arg.StudyLevel, arg.StartDate, arg.CreatedAt,
	)
	return err
}

const getProfile = `SELECT id, name, target_country, study_level, start_date, created_at FROM profiles WHERE id = ?`

func (q *Queries) GetProfile(ctx context.Context, id string) (Profile, error) {
	var row Profile
	err := q.db.QueryRowContext(ctx, getProfile, id).Scan(
		&row.ID, &row.Name, &row.TargetCountry, &row.StudyLevel, &row.StartDate, &row.CreatedAt,
	)
	return row, err
}

const deleteProfile = `DELETE FROM profiles WHERE id = ?`

func (q *Queries) DeleteProfile(ctx context.Context, id string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteProfile, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
