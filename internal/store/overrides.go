package store

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"cwhub/internal/infrastructure"
	"cwhub/pkg/contracts/domain"
)

// Override returns the persisted override for an entity key, if any.
// Implements roster.OverrideSnapshot.
func (s *Store) Override(entityKey string) (domain.TeamOverride, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.overrides[entityKey]
	return o, ok
}

// Overrides returns all overrides sorted by entity key.
func (s *Store) Overrides() []domain.TeamOverride {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.TeamOverride, 0, len(s.overrides))
	for _, o := range s.overrides {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].EntityKey < out[j].EntityKey
	})
	return out
}

// SaveOverride upserts an override. The in-memory cache updates first, so
// the override is effective immediately; the database write is fire-and-
// forget best-effort and a failure comes back as a warning error.
func (s *Store) SaveOverride(ctx context.Context, o domain.TeamOverride) error {
	if o.UpdatedAt.IsZero() {
		o.UpdatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	s.overrides[o.EntityKey] = o
	s.mu.Unlock()

	err := s.persist(ctx, func() error {
		_, err := s.db.ExecContext(ctx, `
INSERT INTO team_overrides (entity_key, display_name, team, source, updated_at)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (entity_key) DO UPDATE SET
	display_name = excluded.display_name,
	team = excluded.team,
	source = excluded.source,
	updated_at = excluded.updated_at`,
			o.EntityKey, o.DisplayName, o.Team, string(o.Source), o.UpdatedAt.Format(timeLayout))
		return err
	})
	if err != nil {
		infrastructure.PersistenceWarnings.Inc()
		s.logger.WarnContext(ctx, "override write failed, override active for this session only",
			slog.String("entity_key", o.EntityKey),
			slog.String("team", o.Team),
			slog.String("error", err.Error()))
		return fmt.Errorf("persist override for %s: %w", o.EntityKey, err)
	}
	return nil
}

// DeleteOverride removes an override by entity key. Same best-effort write
// semantics as SaveOverride.
func (s *Store) DeleteOverride(ctx context.Context, entityKey string) error {
	s.mu.Lock()
	delete(s.overrides, entityKey)
	s.mu.Unlock()

	err := s.persist(ctx, func() error {
		_, err := s.db.ExecContext(ctx, `DELETE FROM team_overrides WHERE entity_key = ?`, entityKey)
		return err
	})
	if err != nil {
		infrastructure.PersistenceWarnings.Inc()
		s.logger.WarnContext(ctx, "override delete did not reach the database",
			slog.String("entity_key", entityKey),
			slog.String("error", err.Error()))
		return fmt.Errorf("delete override for %s: %w", entityKey, err)
	}
	return nil
}
