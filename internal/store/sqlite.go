// Package store persists finished region panels in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/ppiankov/landlock/internal/model"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// sortableTime is fixed-width so created_at orders correctly as text
const sortableTime = "2006-01-02T15:04:05.000000000Z07:00"

// ErrNotFound is returned when a region has no stored panel
var ErrNotFound = eris.New("store: panel not found")

// PanelRecord is one stored pipeline result
type PanelRecord struct {
	ID        string                  `json:"id"`
	RegionID  string                  `json:"region_id"`
	Verdict   model.Verdict           `json:"verdict"`
	Panel     model.RegionPanelOutput `json:"panel"`
	CreatedAt time.Time               `json:"created_at"`
}

// SQLiteStore keeps every panel ever produced, keyed by region
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLite opens the database at dsn and applies the schema
func NewSQLite(ctx context.Context, dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}

	s := &SQLiteStore{db: db, now: time.Now}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS panels (
	id           TEXT PRIMARY KEY,
	region_id    TEXT NOT NULL,
	verdict      TEXT NOT NULL,
	panel        TEXT NOT NULL,
	generated_at TEXT NOT NULL,
	created_at   TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_panels_region_created ON panels(region_id, created_at);
`

func (s *SQLiteStore) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return eris.Wrap(err, "sqlite: migrate")
	}
	return nil
}

// Close closes the database
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Save stores a panel under a new id
func (s *SQLiteStore) Save(ctx context.Context, panel model.RegionPanelOutput) (*PanelRecord, error) {
	raw, err := json.Marshal(panel)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal panel")
	}

	rec := &PanelRecord{
		ID:        uuid.New().String(),
		RegionID:  panel.RegionID,
		Verdict:   panel.UnderwriterAnalysis.Verdict,
		Panel:     panel,
		CreatedAt: s.now().UTC(),
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO panels (id, region_id, verdict, panel, generated_at, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.RegionID, string(rec.Verdict), string(raw), panel.GeneratedAt, rec.CreatedAt.Format(sortableTime),
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: insert panel for %s", panel.RegionID)
	}
	return rec, nil
}

// Latest returns the most recently stored panel for a region
func (s *SQLiteStore) Latest(ctx context.Context, regionID string) (*PanelRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, region_id, verdict, panel, created_at FROM panels
		 WHERE region_id = ? ORDER BY created_at DESC, rowid DESC LIMIT 1`,
		regionID,
	)
	rec, err := scanPanel(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, eris.Wrapf(ErrNotFound, "region %s", regionID)
	}
	return rec, err
}

// List returns up to limit panels for a region, newest first. A non-positive limit returns all.
func (s *SQLiteStore) List(ctx context.Context, regionID string, limit int) ([]PanelRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, region_id, verdict, panel, created_at FROM panels
		 WHERE region_id = ? ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		regionID, limit,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list panels for %s", regionID)
	}
	defer func() { _ = rows.Close() }()

	records := []PanelRecord{}
	for rows.Next() {
		rec, err := scanPanel(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate panels")
	}
	return records, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPanel(row scanner) (*PanelRecord, error) {
	var (
		rec       PanelRecord
		verdict   string
		panelJSON string
		createdAt string
	)
	if err := row.Scan(&rec.ID, &rec.RegionID, &verdict, &panelJSON, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, eris.Wrap(err, "sqlite: scan panel")
	}

	rec.Verdict = model.Verdict(verdict)
	if err := json.Unmarshal([]byte(panelJSON), &rec.Panel); err != nil {
		return nil, eris.Wrapf(err, "sqlite: unmarshal panel %s", rec.ID)
	}
	t, err := time.Parse(sortableTime, createdAt)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: parse created_at %s", rec.ID)
	}
	rec.CreatedAt = t
	return &rec, nil
}
