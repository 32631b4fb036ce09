// Package store persists campaign results to SQLite. Observation rows are
// stored as JSON arrays, which round-trips float64 values exactly, so a
// restored dataset is bit-identical to the one that was saved.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/argonlab/campaign-core/internal/campaign"
)

const timeFormat = time.RFC3339Nano

// ErrNotFound indicates the requested campaign does not exist in the store
var ErrNotFound = errors.New("campaign not found")

// CampaignRecord is the stored metadata of one campaign
type CampaignRecord struct {
	ID         string
	Name       string
	Experiment string
	State      string
	ConfigYAML string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Store provides a SQLite-backed campaign result store
type Store struct {
	sqlDB *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS campaigns (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL DEFAULT '',
	experiment  TEXT NOT NULL DEFAULT '',
	state       TEXT NOT NULL DEFAULT '',
	config_yaml TEXT NOT NULL DEFAULT '',
	created_at  TEXT NOT NULL,
	updated_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS observations (
	campaign_id TEXT    NOT NULL REFERENCES campaigns(id) ON DELETE CASCADE,
	row         INTEGER NOT NULL,
	x           TEXT    NOT NULL,
	y           TEXT    NOT NULL,
	PRIMARY KEY (campaign_id, row)
);

CREATE TABLE IF NOT EXISTS iterations (
	campaign_id       TEXT    NOT NULL REFERENCES campaigns(id) ON DELETE CASCADE,
	iteration         INTEGER NOT NULL,
	priming           INTEGER NOT NULL,
	rows              INTEGER NOT NULL,
	acquisition_value REAL    NOT NULL,
	duration_ns       INTEGER NOT NULL,
	PRIMARY KEY (campaign_id, iteration)
);
`

// Open opens a SQLite store at the provided path
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the underlying SQLite database
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// PutCampaign inserts or updates campaign metadata
func (s *Store) PutCampaign(ctx context.Context, rec CampaignRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(rec.ID) == "" {
		return fmt.Errorf("campaign id is required")
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now().UTC()
	}

	_, err := s.sqlDB.ExecContext(ctx, `
		INSERT INTO campaigns (id, name, experiment, state, config_yaml, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			experiment = excluded.experiment,
			state = excluded.state,
			config_yaml = excluded.config_yaml,
			updated_at = excluded.updated_at`,
		rec.ID, rec.Name, rec.Experiment, rec.State, rec.ConfigYAML,
		rec.CreatedAt.Format(timeFormat), rec.UpdatedAt.Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("put campaign %s: %w", rec.ID, err)
	}
	return nil
}

// GetCampaign returns stored campaign metadata
func (s *Store) GetCampaign(ctx context.Context, id string) (CampaignRecord, error) {
	var rec CampaignRecord
	var createdAt, updatedAt string

	err := s.sqlDB.QueryRowContext(ctx, `
		SELECT id, name, experiment, state, config_yaml, created_at, updated_at
		FROM campaigns WHERE id = ?`, id,
	).Scan(&rec.ID, &rec.Name, &rec.Experiment, &rec.State, &rec.ConfigYAML, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return CampaignRecord{}, ErrNotFound
	}
	if err != nil {
		return CampaignRecord{}, fmt.Errorf("get campaign %s: %w", id, err)
	}

	if rec.CreatedAt, err = time.Parse(timeFormat, createdAt); err != nil {
		return CampaignRecord{}, fmt.Errorf("parse created_at for %s: %w", id, err)
	}
	if rec.UpdatedAt, err = time.Parse(timeFormat, updatedAt); err != nil {
		return CampaignRecord{}, fmt.Errorf("parse updated_at for %s: %w", id, err)
	}
	return rec, nil
}

// ListCampaigns returns all stored campaigns, most recently updated first
func (s *Store) ListCampaigns(ctx context.Context) ([]CampaignRecord, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `
		SELECT id, name, experiment, state, config_yaml, created_at, updated_at
		FROM campaigns ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}
	defer rows.Close()

	var out []CampaignRecord
	for rows.Next() {
		var rec CampaignRecord
		var createdAt, updatedAt string
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.Experiment, &rec.State, &rec.ConfigYAML, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan campaign: %w", err)
		}
		if rec.CreatedAt, err = time.Parse(timeFormat, createdAt); err != nil {
			return nil, fmt.Errorf("parse created_at for %s: %w", rec.ID, err)
		}
		if rec.UpdatedAt, err = time.Parse(timeFormat, updatedAt); err != nil {
			return nil, fmt.Errorf("parse updated_at for %s: %w", rec.ID, err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// SaveDataset replaces the stored observations and iteration records of a
// campaign with the dataset's current contents, atomically.
func (s *Store) SaveDataset(ctx context.Context, id string, data *campaign.Dataset) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save for %s: %w", id, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM observations WHERE campaign_id = ?`, id); err != nil {
		return fmt.Errorf("clear observations for %s: %w", id, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM iterations WHERE campaign_id = ?`, id); err != nil {
		return fmt.Errorf("clear iterations for %s: %w", id, err)
	}

	x, y := data.X(), data.Y()
	for i := range x {
		xJSON, err := json.Marshal(x[i])
		if err != nil {
			return fmt.Errorf("encode observation %d: %w", i, err)
		}
		yJSON, err := json.Marshal(y[i])
		if err != nil {
			return fmt.Errorf("encode response %d: %w", i, err)
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO observations (campaign_id, row, x, y) VALUES (?, ?, ?, ?)`,
			id, i, string(xJSON), string(yJSON)); err != nil {
			return fmt.Errorf("insert observation %d: %w", i, err)
		}
	}

	for _, rec := range data.Records() {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO iterations (campaign_id, iteration, priming, rows, acquisition_value, duration_ns)
			VALUES (?, ?, ?, ?, ?, ?)`,
			id, rec.Iteration, rec.Priming, rec.Rows, rec.AcquisitionValue, int64(rec.Duration)); err != nil {
			return fmt.Errorf("insert iteration %d: %w", rec.Iteration, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save for %s: %w", id, err)
	}
	return nil
}

// LoadDataset rebuilds a campaign's dataset from storage. A campaign with no
// stored observations yields an empty dataset.
func (s *Store) LoadDataset(ctx context.Context, id string) (*campaign.Dataset, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `
		SELECT x, y FROM observations WHERE campaign_id = ? ORDER BY row`, id)
	if err != nil {
		return nil, fmt.Errorf("load observations for %s: %w", id, err)
	}
	defer rows.Close()

	var x, y [][]float64
	for rows.Next() {
		var xJSON, yJSON string
		if err := rows.Scan(&xJSON, &yJSON); err != nil {
			return nil, fmt.Errorf("scan observation: %w", err)
		}
		var xRow, yRow []float64
		if err := json.Unmarshal([]byte(xJSON), &xRow); err != nil {
			return nil, fmt.Errorf("decode observation: %w", err)
		}
		if err := json.Unmarshal([]byte(yJSON), &yRow); err != nil {
			return nil, fmt.Errorf("decode response: %w", err)
		}
		x = append(x, xRow)
		y = append(y, yRow)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	iterRows, err := s.sqlDB.QueryContext(ctx, `
		SELECT iteration, priming, rows, acquisition_value, duration_ns
		FROM iterations WHERE campaign_id = ? ORDER BY iteration`, id)
	if err != nil {
		return nil, fmt.Errorf("load iterations for %s: %w", id, err)
	}
	defer iterRows.Close()

	var records []campaign.IterationRecord
	for iterRows.Next() {
		var rec campaign.IterationRecord
		var durationNS int64
		if err := iterRows.Scan(&rec.Iteration, &rec.Priming, &rec.Rows, &rec.AcquisitionValue, &durationNS); err != nil {
			return nil, fmt.Errorf("scan iteration: %w", err)
		}
		rec.Duration = time.Duration(durationNS)
		records = append(records, rec)
	}
	if err := iterRows.Err(); err != nil {
		return nil, err
	}

	return campaign.Restore(x, y, records)
}
