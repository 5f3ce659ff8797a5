// Package store persists the pipeline's two durable tables: per-entity
// per-period history snapshots and team overrides. The in-memory copy is
// authoritative for the session; SQLite writes are best-effort and surface
// as warnings when they fail, never as aborts.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	_ "modernc.org/sqlite"

	apperrors "cwhub/internal/errors"
	"cwhub/pkg/contracts/domain"
)

const (
	dateLayout    = "2006-01-02"
	timeLayout    = time.RFC3339Nano
	persistTries  = 3
	persistWindow = 5 * time.Second
)

// Store holds history records and team overrides, backed by SQLite.
type Store struct {
	db     *sql.DB
	logger *slog.Logger

	mu        sync.RWMutex
	history   map[domain.HistoryKey]domain.HistoryRecord
	overrides map[string]domain.TeamOverride
}

// Open opens (or creates) the database at path, applies the schema, and
// loads both tables into memory. Use ":memory:" for tests.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, apperrors.NewStorageError("open database", err).WithContext("path", path)
	}
	// The pipeline is single-writer; one connection avoids SQLITE_BUSY
	// races between the memory cache and the file.
	db.SetMaxOpenConns(1)

	s := &Store{
		db:        db,
		logger:    logger,
		history:   make(map[domain.HistoryKey]domain.HistoryRecord),
		overrides: make(map[string]domain.TeamOverride),
	}

	if err := s.applySchema(); err != nil {
		db.Close()
		return nil, err
	}
	if err := s.loadAll(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("store opened",
		slog.String("path", path),
		slog.Int("history_records", len(s.history)),
		slog.Int("overrides", len(s.overrides)))

	return s, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) applySchema() error {
	const schema = `
CREATE TABLE IF NOT EXISTS history (
	entity_key   TEXT NOT NULL,
	period_start TEXT NOT NULL,
	period_end   TEXT NOT NULL,
	uploaded_at  TEXT NOT NULL,
	display_name TEXT NOT NULL DEFAULT '',
	group_hint   TEXT NOT NULL DEFAULT '',
	values_json  TEXT NOT NULL,
	PRIMARY KEY (entity_key, period_start, period_end)
);
CREATE TABLE IF NOT EXISTS team_overrides (
	entity_key   TEXT PRIMARY KEY,
	display_name TEXT NOT NULL DEFAULT '',
	team         TEXT NOT NULL,
	source       TEXT NOT NULL,
	updated_at   TEXT NOT NULL
);`
	if _, err := s.db.Exec(schema); err != nil {
		return apperrors.NewStorageError("apply schema", err)
	}
	return nil
}

func (s *Store) loadAll() error {
	rows, err := s.db.Query(`SELECT entity_key, period_start, period_end, uploaded_at, display_name, group_hint, values_json FROM history`)
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var rec domain.HistoryRecord
		var start, end, uploaded, valuesJSON string
		if err := rows.Scan(&rec.EntityKey, &start, &end, &uploaded, &rec.DisplayName, &rec.GroupHint, &valuesJSON); err != nil {
			return fmt.Errorf("scan history row: %w", err)
		}
		rec.PeriodStart, _ = time.Parse(dateLayout, start)
		rec.PeriodEnd, _ = time.Parse(dateLayout, end)
		rec.UploadedAt, _ = time.Parse(time.RFC3339Nano, uploaded)
		if err := json.Unmarshal([]byte(valuesJSON), &rec.Values); err != nil {
			s.logger.Warn("skipping history row with corrupt values",
				slog.String("entity_key", rec.EntityKey),
				slog.String("error", err.Error()))
			continue
		}
		s.history[rec.Key()] = rec
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate history rows: %w", err)
	}

	oRows, err := s.db.Query(`SELECT entity_key, display_name, team, source, updated_at FROM team_overrides`)
	if err != nil {
		return fmt.Errorf("load overrides: %w", err)
	}
	defer oRows.Close()

	for oRows.Next() {
		var o domain.TeamOverride
		var updated string
		if err := oRows.Scan(&o.EntityKey, &o.DisplayName, &o.Team, &o.Source, &updated); err != nil {
			return fmt.Errorf("scan override row: %w", err)
		}
		o.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updated)
		s.overrides[o.EntityKey] = o
	}
	return oRows.Err()
}

// persist retries a best-effort write with bounded exponential backoff.
// The caller treats a returned error as a warning, not a failure.
func (s *Store) persist(ctx context.Context, op func() error) error {
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = persistWindow
	return backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(bo, persistTries), ctx))
}
