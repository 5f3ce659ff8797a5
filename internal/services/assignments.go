package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	apperrors "cwhub/internal/errors"
	"cwhub/internal/period"
	"cwhub/internal/roster"
	"cwhub/internal/store"
	"cwhub/pkg/contracts/domain"
)

// allTime is the window that matches every stored record.
func allTime() period.Window {
	return period.Window{To: time.Date(9999, time.January, 1, 0, 0, 0, 0, time.UTC)}
}

// AssignmentService manages the manual override layer on top of the
// roster: listing how every known entity currently resolves, pinning an
// entity to a team, dismissing it, and clearing an override.
type AssignmentService struct {
	store  *store.Store
	roster *roster.Roster
	logger *slog.Logger
	now    func() time.Time
}

// NewAssignmentService builds an assignment service.
func NewAssignmentService(st *store.Store, r *roster.Roster, logger *slog.Logger) *AssignmentService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AssignmentService{
		store:  st,
		roster: r,
		logger: logger,
		now:    time.Now,
	}
}

// List resolves every entity that appears anywhere in history, sorted by
// entity key. The caller filters by status when only the needs-assignment
// bucket matters.
func (as *AssignmentService) List(ctx context.Context) []roster.Assignment {
	resolver := roster.NewResolver(as.roster, as.store)

	seen := make(map[string]domain.HistoryRecord)
	for _, rec := range as.store.ByWindow(allTime()) {
		prev, ok := seen[rec.EntityKey]
		if !ok || prev.PeriodEnd.Before(rec.PeriodEnd) {
			seen[rec.EntityKey] = rec
		}
	}

	out := make([]roster.Assignment, 0, len(seen))
	for _, rec := range seen {
		out = append(out, resolver.Resolve(rec.DisplayName, rec.GroupHint))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].EntityKey < out[j].EntityKey
	})
	return out
}

// Assign pins an entity to a team. Passing domain.DismissedTeam dismisses
// the entity instead of assigning it.
func (as *AssignmentService) Assign(ctx context.Context, displayName, team string) (domain.TeamOverride, error) {
	if displayName == "" {
		return domain.TeamOverride{}, fmt.Errorf("display name is required")
	}
	if team == "" {
		return domain.TeamOverride{}, fmt.Errorf("team is required")
	}

	// A hint-style team name snaps to its canonical roster spelling.
	if canonical, ok := as.roster.MatchTeam(team); ok {
		team = canonical
	}

	o := domain.TeamOverride{
		EntityKey:   roster.EntityKey(displayName),
		DisplayName: displayName,
		Team:        team,
		Source:      domain.OverrideSourceManual,
		UpdatedAt:   as.now().UTC(),
	}
	if err := as.store.SaveOverride(ctx, o); err != nil {
		// The override is live in memory; the error is a durability warning.
		as.logger.WarnContext(ctx, "override saved without durability",
			slog.String("entity_key", o.EntityKey),
			slog.String("error", err.Error()))
	}

	as.logger.InfoContext(ctx, "override saved",
		slog.String("entity_key", o.EntityKey),
		slog.String("team", o.Team))
	return o, nil
}

// Dismiss excludes an entity from all downstream aggregation until the
// override is cleared.
func (as *AssignmentService) Dismiss(ctx context.Context, displayName string) (domain.TeamOverride, error) {
	return as.Assign(ctx, displayName, domain.DismissedTeam)
}

// Clear removes the override for an entity key, restoring roster and hint
// resolution.
func (as *AssignmentService) Clear(ctx context.Context, entityKey string) error {
	if _, ok := as.store.Override(entityKey); !ok {
		return apperrors.NewNotFoundError("override for " + entityKey)
	}
	if err := as.store.DeleteOverride(ctx, entityKey); err != nil {
		as.logger.WarnContext(ctx, "override cleared without durability",
			slog.String("entity_key", entityKey),
			slog.String("error", err.Error()))
	}
	return nil
}

// Overrides returns the persisted override list.
func (as *AssignmentService) Overrides() []domain.TeamOverride {
	return as.store.Overrides()
}
