package analytics

import (
	"sort"
	"time"

	"cwhub/internal/ingest"
	"cwhub/internal/roster"
	"cwhub/pkg/contracts/domain"
)

// CollapseRows folds multiple raw source rows for the same entity and date
// into one synthesized record. Summable fields add; a rate field survives
// only when exactly one underlying row reported it. Conflicting samples for
// the same rate in the same record yield missing, because there is no
// principled way to combine them.
func CollapseRows(records []domain.NormalizedRecord) []domain.NormalizedRecord {
	type group struct {
		rec        domain.NormalizedRecord
		rateCounts map[string]int
	}

	groups := make(map[string]*group)
	var order []string

	for _, rec := range records {
		key := roster.EntityKey(rec.Name) + "|" + rec.Date.Format("2006-01-02")
		g, ok := groups[key]
		if !ok {
			g = &group{
				rec: domain.NormalizedRecord{
					Name:      rec.Name,
					Date:      rec.Date,
					GroupHint: rec.GroupHint,
					DayCount:  rec.DayCount,
					Values:    make(map[string]float64),
				},
				rateCounts: make(map[string]int),
			}
			groups[key] = g
			order = append(order, key)
		}
		if g.rec.GroupHint == "" {
			g.rec.GroupHint = rec.GroupHint
		}

		for field, v := range rec.Values {
			switch Kind(field) {
			case KindSummable:
				g.rec.Values[field] += v
			case KindRate:
				g.rateCounts[field]++
				g.rec.Values[field] = v
			}
		}
	}

	out := make([]domain.NormalizedRecord, 0, len(order))
	for _, key := range order {
		g := groups[key]
		for field, n := range g.rateCounts {
			if n > 1 {
				delete(g.rec.Values, field)
			}
		}
		out = append(out, g.rec)
	}
	return out
}

// Summarize rolls the daily history of one entity into a period summary.
// Summable fields are totals; rate fields are arithmetic means over the
// days that reported them; derived per-hour metrics are recomputed from the
// aggregated totals. Division by zero yields 0 for derived metrics, not an
// error.
func Summarize(entityKey string, records []domain.HistoryRecord) domain.AggregatedSummary {
	summary := domain.AggregatedSummary{
		EntityKey: entityKey,
		Values:    make(map[string]float64),
	}
	if len(records) == 0 {
		return summary
	}

	sorted := make([]domain.HistoryRecord, len(records))
	copy(sorted, records)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].PeriodEnd.Before(sorted[j].PeriodEnd)
	})

	rateTotals := make(map[string]float64)
	rateDays := make(map[string]int)

	for _, rec := range sorted {
		if summary.DisplayName == "" {
			summary.DisplayName = rec.DisplayName
		}
		for field, v := range rec.Values {
			switch Kind(field) {
			case KindSummable:
				summary.Values[field] += v
			case KindRate:
				rateTotals[field] += v
				rateDays[field]++
			}
		}
	}

	for field, total := range rateTotals {
		summary.Values[field] = total / float64(rateDays[field])
	}

	summary.Days = len(sorted)
	summary.PeriodStart = sorted[0].PeriodStart
	summary.PeriodEnd = sorted[len(sorted)-1].PeriodEnd

	summary.Values[FieldSalesPerHour] = safeDivide(
		summary.Values[ingest.FieldSales],
		summary.Values[ingest.FieldClockedHours],
	)

	summary.RedFlags = redFlags(summary.Values)
	return summary
}

// RollupTeams aggregates entity summaries at team level. Values sum across
// members; Entities counts distinct entity keys, so a member appearing in
// several summaries still counts once. Entities without a team are left out.
func RollupTeams(summaries []domain.AggregatedSummary) []domain.TeamRollup {
	type teamAcc struct {
		values  map[string]float64
		members map[string]struct{}
	}

	teams := make(map[string]*teamAcc)
	for _, s := range summaries {
		if s.Team == "" {
			continue
		}
		acc, ok := teams[s.Team]
		if !ok {
			acc = &teamAcc{values: make(map[string]float64), members: make(map[string]struct{})}
			teams[s.Team] = acc
		}
		acc.members[s.EntityKey] = struct{}{}
		for field, v := range s.Values {
			if Kind(field) == KindSummable {
				acc.values[field] += v
			}
		}
	}

	out := make([]domain.TeamRollup, 0, len(teams))
	for team, acc := range teams {
		acc.values[FieldSalesPerHour] = safeDivide(
			acc.values[ingest.FieldSales],
			acc.values[ingest.FieldClockedHours],
		)
		out = append(out, domain.TeamRollup{
			Team:     team,
			Entities: len(acc.members),
			Values:   acc.values,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Team < out[j].Team
	})
	return out
}

// WithDerived returns copies of the records with the per-day derived
// metrics materialized, so trend windows can read sales_per_hour the same
// way they read stored fields. The inputs are not mutated.
func WithDerived(records []domain.HistoryRecord) []domain.HistoryRecord {
	out := make([]domain.HistoryRecord, len(records))
	for i, rec := range records {
		values := make(map[string]float64, len(rec.Values)+1)
		for k, v := range rec.Values {
			values[k] = v
		}
		if hours, ok := values[ingest.FieldClockedHours]; ok && hours > 0 {
			values[FieldSalesPerHour] = values[ingest.FieldSales] / hours
		}
		rec.Values = values
		out[i] = rec
	}
	return out
}

func safeDivide(numerator, denominator float64) float64 {
	if denominator <= 0 {
		return 0
	}
	return numerator / denominator
}

// dayKey normalizes a timestamp to its UTC date for windowing.
func dayKey(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
