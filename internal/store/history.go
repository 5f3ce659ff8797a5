package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"

	"cwhub/internal/infrastructure"
	"cwhub/internal/period"
	"cwhub/pkg/contracts/domain"
)

// MergeResult summarizes one Merge call. Warnings carry persistence
// failures; the in-memory result is still authoritative for the session.
type MergeResult struct {
	Inserted int
	Replaced int
	Kept     int
	Warnings []string
}

// Merge reconciles incoming records against stored history. An existing
// record is replaced only when the incoming upload timestamp is greater than
// or equal to its own, so ties favor the newest upload and replaying an
// identical file changes nothing. Replacement is whole-record: a newer,
// sparser upload drops fields absent from it.
func (s *Store) Merge(ctx context.Context, records []domain.HistoryRecord) MergeResult {
	var result MergeResult

	s.mu.Lock()
	var dirty []domain.HistoryRecord
	for _, rec := range records {
		key := rec.Key()
		existing, ok := s.history[key]
		if ok && rec.UploadedAt.Before(existing.UploadedAt) {
			result.Kept++
			continue
		}
		s.history[key] = rec
		dirty = append(dirty, rec)
		if ok {
			result.Replaced++
		} else {
			result.Inserted++
		}
	}
	s.mu.Unlock()

	for _, rec := range dirty {
		if err := s.persistHistory(ctx, rec); err != nil {
			infrastructure.PersistenceWarnings.Inc()
			s.logger.WarnContext(ctx, "history write failed, in-memory record remains authoritative",
				slog.String("entity_key", rec.EntityKey),
				slog.String("period_end", rec.PeriodEnd.Format(dateLayout)),
				slog.String("error", err.Error()))
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("could not persist record for %s: %v", rec.EntityKey, err))
		}
	}

	return result
}

func (s *Store) persistHistory(ctx context.Context, rec domain.HistoryRecord) error {
	valuesJSON, err := json.Marshal(rec.Values)
	if err != nil {
		return fmt.Errorf("encode values: %w", err)
	}
	return s.persist(ctx, func() error {
		_, err := s.db.ExecContext(ctx, `
INSERT INTO history (entity_key, period_start, period_end, uploaded_at, display_name, group_hint, values_json)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (entity_key, period_start, period_end) DO UPDATE SET
	uploaded_at = excluded.uploaded_at,
	display_name = excluded.display_name,
	group_hint = excluded.group_hint,
	values_json = excluded.values_json`,
			rec.EntityKey,
			rec.PeriodStart.Format(dateLayout),
			rec.PeriodEnd.Format(dateLayout),
			rec.UploadedAt.Format(timeLayout),
			rec.DisplayName,
			rec.GroupHint,
			string(valuesJSON),
		)
		return err
	})
}

// ByWindow returns the history records whose period end falls inside the
// window, sorted by entity key then period end for deterministic output.
func (s *Store) ByWindow(w period.Window) []domain.HistoryRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.HistoryRecord
	for _, rec := range s.history {
		if w.Contains(rec.PeriodEnd) {
			out = append(out, rec)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].EntityKey != out[j].EntityKey {
			return out[i].EntityKey < out[j].EntityKey
		}
		return out[i].PeriodEnd.Before(out[j].PeriodEnd)
	})
	return out
}

// ByEntity returns all history for one entity key, oldest first.
func (s *Store) ByEntity(entityKey string) []domain.HistoryRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.HistoryRecord
	for _, rec := range s.history {
		if rec.EntityKey == entityKey {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].PeriodEnd.Before(out[j].PeriodEnd)
	})
	return out
}

// HistoryLen returns the number of stored history records.
func (s *Store) HistoryLen() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.history)
}

// ClearHistory removes all history records. This is the only deletion path.
// The returned error is a persistence warning: the in-memory clear always
// takes effect.
func (s *Store) ClearHistory(ctx context.Context) error {
	s.mu.Lock()
	s.history = make(map[domain.HistoryKey]domain.HistoryRecord)
	s.mu.Unlock()

	err := s.persist(ctx, func() error {
		_, err := s.db.ExecContext(ctx, `DELETE FROM history`)
		return err
	})
	if err != nil {
		infrastructure.PersistenceWarnings.Inc()
		s.logger.WarnContext(ctx, "history clear did not reach the database",
			slog.String("error", err.Error()))
		return fmt.Errorf("clear persisted history: %w", err)
	}
	return nil
}
