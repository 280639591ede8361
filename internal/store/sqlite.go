package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/nhle/order-dashboard/internal/model"
)

// SQLiteStore implements the Store interface using a local SQLite database.
type SQLiteStore struct {
	db *sqlx.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Feed goroutines write snapshots concurrently; a single connection
	// serialises them and keeps ":memory:" databases shared.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SchemaVersion returns the highest applied migration version.
func (s *SQLiteStore) SchemaVersion() (int, error) {
	var v int
	if err := s.db.Get(&v, "SELECT COALESCE(MAX(version), 0) FROM schema_version"); err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	return v, nil
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		currentVersion, err = s.SchemaVersion()
		if err != nil {
			return err
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// SaveSnapshot replaces the stored snapshot of a collection.
func (s *SQLiteStore) SaveSnapshot(ctx context.Context, collection string, raw []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO snapshots (collection, raw, saved_at) VALUES (?, ?, ?)
		ON CONFLICT(collection) DO UPDATE SET raw = excluded.raw, saved_at = excluded.saved_at`,
		collection, string(raw), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("saving %s snapshot: %w", collection, err)
	}
	return nil
}

// LoadSnapshot returns the stored snapshot of a collection, or ErrNotFound.
func (s *SQLiteStore) LoadSnapshot(ctx context.Context, collection string) (*Snapshot, error) {
	var row struct {
		Collection string    `db:"collection"`
		Raw        string    `db:"raw"`
		SavedAt    time.Time `db:"saved_at"`
	}
	err := s.db.GetContext(ctx, &row,
		"SELECT collection, raw, saved_at FROM snapshots WHERE collection = ?", collection)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s snapshot: %w", collection, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("loading %s snapshot: %w", collection, err)
	}
	return &Snapshot{Collection: row.Collection, Raw: []byte(row.Raw), SavedAt: row.SavedAt}, nil
}

// GetFlag reads a boolean setting. Unset flags are false.
func (s *SQLiteStore) GetFlag(ctx context.Context, key string) (bool, error) {
	var value string
	err := s.db.GetContext(ctx, &value, "SELECT value FROM settings WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading setting %s: %w", key, err)
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("parsing setting %s=%q: %w", key, value, err)
	}
	return b, nil
}

// SetFlag writes a boolean setting.
func (s *SQLiteStore) SetFlag(ctx context.Context, key string, value bool) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, strconv.FormatBool(value), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("writing setting %s: %w", key, err)
	}
	return nil
}

// RecordExport appends an entry to the export history.
// If the record has no ID, a new UUID is generated.
func (s *SQLiteStore) RecordExport(ctx context.Context, rec model.ExportRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	locations, err := json.Marshal(rec.Locations)
	if err != nil {
		return fmt.Errorf("marshaling export locations: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO exports (
			id, order_id, token_number, customer, file_name, locations, size, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.OrderID, rec.TokenNumber, rec.Customer, rec.FileName,
		string(locations), rec.Size, rec.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("recording export %s: %w", rec.FileName, err)
	}
	return nil
}

type exportRow struct {
	ID          string    `db:"id"`
	OrderID     string    `db:"order_id"`
	TokenNumber int       `db:"token_number"`
	Customer    string    `db:"customer"`
	FileName    string    `db:"file_name"`
	Locations   string    `db:"locations"`
	Size        int       `db:"size"`
	CreatedAt   time.Time `db:"created_at"`
}

// ListExports returns the most recent exports, newest first. A limit of
// zero or less returns all of them.
func (s *SQLiteStore) ListExports(ctx context.Context, limit int) ([]model.ExportRecord, error) {
	query := "SELECT * FROM exports ORDER BY created_at DESC, rowid DESC"
	if limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}

	var rows []exportRow
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("querying exports: %w", err)
	}

	records := make([]model.ExportRecord, 0, len(rows))
	for _, r := range rows {
		rec := model.ExportRecord{
			ID:          r.ID,
			OrderID:     r.OrderID,
			TokenNumber: r.TokenNumber,
			Customer:    r.Customer,
			FileName:    r.FileName,
			Size:        r.Size,
			CreatedAt:   r.CreatedAt,
		}
		if r.Locations != "" {
			if err := json.Unmarshal([]byte(r.Locations), &rec.Locations); err != nil {
				return nil, fmt.Errorf("unmarshaling locations of export %s: %w", r.ID, err)
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

// CountExports returns the number of recorded exports.
func (s *SQLiteStore) CountExports(ctx context.Context) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM exports"); err != nil {
		return 0, fmt.Errorf("counting exports: %w", err)
	}
	return n, nil
}
