package services

import (
	"context"
	"log/slog"
	"time"

	"cwhub/internal/analytics"
	"cwhub/internal/period"
	"cwhub/internal/roster"
	"cwhub/internal/store"
	"cwhub/pkg/contracts/domain"
)

// Report is the full read-side view for one window: per-entity summaries,
// team rollups, and the entities that still need a human assignment.
type Report struct {
	Window          period.Window              `json:"window"`
	Summaries       []domain.AggregatedSummary `json:"summaries"`
	Teams           []domain.TeamRollup        `json:"teams"`
	NeedsAssignment []roster.Assignment        `json:"needs_assignment,omitempty"`
}

// ReportService computes summaries, rollups, and classifications from the
// current history snapshot. Team membership is resolved fresh on every
// call, so an override saved a second ago already shapes the next report.
type ReportService struct {
	store       *store.Store
	roster      *roster.Roster
	trendMetric string
	logger      *slog.Logger
	now         func() time.Time
}

// NewReportService builds a report service. trendMetric names the field
// trend and tier classification read, normally sales_per_hour.
func NewReportService(st *store.Store, r *roster.Roster, trendMetric string, logger *slog.Logger) *ReportService {
	if logger == nil {
		logger = slog.Default()
	}
	if trendMetric == "" {
		trendMetric = analytics.FieldSalesPerHour
	}
	return &ReportService{
		store:       st,
		roster:      r,
		trendMetric: trendMetric,
		logger:      logger,
		now:         time.Now,
	}
}

// Summaries aggregates the window's history into one summary per entity,
// classifies each against the population, and rolls teams up. Dismissed
// entities are dropped before aggregation; unresolved ones are reported in
// the needs-assignment bucket but excluded from team rollups.
func (rs *ReportService) Summaries(ctx context.Context, win period.Window) *Report {
	records := rs.store.ByWindow(win)
	resolver := roster.NewResolver(rs.roster, rs.store)
	now := rs.now().UTC()

	// ByWindow sorts by entity key, so one pass groups the records.
	var entityOrder []string
	byEntity := make(map[string][]domain.HistoryRecord)
	for _, rec := range records {
		if _, ok := byEntity[rec.EntityKey]; !ok {
			entityOrder = append(entityOrder, rec.EntityKey)
		}
		byEntity[rec.EntityKey] = append(byEntity[rec.EntityKey], rec)
	}

	report := &Report{Window: win}
	histories := make(map[string][]domain.HistoryRecord)
	var recentMeans []float64

	for _, key := range entityOrder {
		recs := byEntity[key]
		latest := recs[len(recs)-1]

		assignment := resolver.Resolve(latest.DisplayName, latest.GroupHint)
		if assignment.Status == roster.StatusDismissed {
			continue
		}

		summary := analytics.Summarize(key, recs)
		summary.Team = assignment.Team
		if assignment.Status == roster.StatusNeedsAssignment {
			report.NeedsAssignment = append(report.NeedsAssignment, assignment)
		}

		// Trend windows reach beyond the report window, so classification
		// reads the entity's full daily history.
		history := analytics.WithDerived(rs.store.ByEntity(key))
		histories[key] = history
		recentMeans = append(recentMeans, analytics.RecentMean(history, rs.trendMetric, now))

		report.Summaries = append(report.Summaries, summary)
	}

	populationMean := analytics.PopulationMean(recentMeans)
	for i := range report.Summaries {
		key := report.Summaries[i].EntityKey
		c := analytics.Classify(histories[key], rs.trendMetric, now, populationMean)
		report.Summaries[i].Classification = &c
	}

	report.Teams = analytics.RollupTeams(report.Summaries)

	rs.logger.InfoContext(ctx, "report computed",
		slog.String("window", win.String()),
		slog.Int("entities", len(report.Summaries)),
		slog.Int("teams", len(report.Teams)),
		slog.Int("needs_assignment", len(report.NeedsAssignment)))

	return report
}

// Classifications returns just the per-entity verdicts for a window,
// keyed by entity, for callers that do not need the full summary payload.
func (rs *ReportService) Classifications(ctx context.Context, win period.Window) map[string]domain.TrafficClassification {
	report := rs.Summaries(ctx, win)
	out := make(map[string]domain.TrafficClassification, len(report.Summaries))
	for _, s := range report.Summaries {
		if s.Classification != nil {
			out[s.EntityKey] = *s.Classification
		}
	}
	return out
}
