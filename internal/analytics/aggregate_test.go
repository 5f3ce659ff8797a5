package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cwhub/internal/ingest"
	"cwhub/pkg/contracts/domain"
)

func day(d int) time.Time {
	return time.Date(2026, 8, d, 0, 0, 0, 0, time.UTC)
}

func raw(name string, d int, values map[string]float64) domain.NormalizedRecord {
	return domain.NormalizedRecord{Name: name, Date: day(d), Values: values}
}

func hist(key string, end int, values map[string]float64) domain.HistoryRecord {
	return domain.HistoryRecord{
		EntityKey:   key,
		DisplayName: key,
		PeriodStart: day(end),
		PeriodEnd:   day(end),
		Values:      values,
	}
}

func TestCollapseRows(t *testing.T) {
	t.Run("summables add across duplicate rows", func(t *testing.T) {
		out := CollapseRows([]domain.NormalizedRecord{
			raw("Ana", 17, map[string]float64{ingest.FieldSales: 100, ingest.FieldClockedHours: 4}),
			raw("Ana", 17, map[string]float64{ingest.FieldSales: 50, ingest.FieldClockedHours: 2}),
		})
		require.Len(t, out, 1)
		assert.InDelta(t, 150.0, out[0].Values[ingest.FieldSales], 1e-9)
		assert.InDelta(t, 6.0, out[0].Values[ingest.FieldClockedHours], 1e-9)
	})

	t.Run("single rate sample survives", func(t *testing.T) {
		out := CollapseRows([]domain.NormalizedRecord{
			raw("Ana", 17, map[string]float64{ingest.FieldSales: 100, ingest.FieldGoldenRatio: 35}),
			raw("Ana", 17, map[string]float64{ingest.FieldSales: 50}),
		})
		require.Len(t, out, 1)
		assert.InDelta(t, 35.0, out[0].Values[ingest.FieldGoldenRatio], 1e-9)
	})

	t.Run("conflicting rate samples become missing", func(t *testing.T) {
		out := CollapseRows([]domain.NormalizedRecord{
			raw("Ana", 17, map[string]float64{ingest.FieldSales: 100, ingest.FieldGoldenRatio: 35}),
			raw("Ana", 17, map[string]float64{ingest.FieldSales: 50, ingest.FieldGoldenRatio: 20}),
		})
		require.Len(t, out, 1)
		_, ok := out[0].Values[ingest.FieldGoldenRatio]
		assert.False(t, ok)
	})

	t.Run("same name different dates stay separate", func(t *testing.T) {
		out := CollapseRows([]domain.NormalizedRecord{
			raw("Ana", 17, map[string]float64{ingest.FieldSales: 100}),
			raw("Ana", 18, map[string]float64{ingest.FieldSales: 50}),
		})
		assert.Len(t, out, 2)
	})

	t.Run("accent variants collapse together", func(t *testing.T) {
		out := CollapseRows([]domain.NormalizedRecord{
			raw("José Ñúñez", 17, map[string]float64{ingest.FieldSales: 100}),
			raw("Jose Nunez", 17, map[string]float64{ingest.FieldSales: 50}),
		})
		require.Len(t, out, 1)
		assert.InDelta(t, 150.0, out[0].Values[ingest.FieldSales], 1e-9)
	})
}

func TestSummarize(t *testing.T) {
	t.Run("totals and derived per hour from non-uniform days", func(t *testing.T) {
		s := Summarize("ana", []domain.HistoryRecord{
			hist("ana", 17, map[string]float64{ingest.FieldSales: 100, ingest.FieldClockedHours: 5}),
			hist("ana", 18, map[string]float64{ingest.FieldSales: 10, ingest.FieldClockedHours: 1}),
		})
		assert.InDelta(t, 110.0, s.Values[ingest.FieldSales], 1e-9)
		assert.InDelta(t, 6.0, s.Values[ingest.FieldClockedHours], 1e-9)
		// 110 / 6, not the mean of the daily ratios (20 and 10).
		assert.InDelta(t, 110.0/6.0, s.Values[FieldSalesPerHour], 1e-9)
		assert.Equal(t, 2, s.Days)
		assert.True(t, s.PeriodStart.Equal(day(17)))
		assert.True(t, s.PeriodEnd.Equal(day(18)))
	})

	t.Run("rates average over reporting days only", func(t *testing.T) {
		s := Summarize("ana", []domain.HistoryRecord{
			hist("ana", 17, map[string]float64{ingest.FieldSales: 1, ingest.FieldGoldenRatio: 40}),
			hist("ana", 18, map[string]float64{ingest.FieldSales: 1}),
			hist("ana", 19, map[string]float64{ingest.FieldSales: 1, ingest.FieldGoldenRatio: 20}),
		})
		assert.InDelta(t, 30.0, s.Values[ingest.FieldGoldenRatio], 1e-9)
	})

	t.Run("zero hours yields zero per hour", func(t *testing.T) {
		s := Summarize("ana", []domain.HistoryRecord{
			hist("ana", 17, map[string]float64{ingest.FieldSales: 100}),
		})
		assert.Zero(t, s.Values[FieldSalesPerHour])
	})

	t.Run("empty history yields empty summary", func(t *testing.T) {
		s := Summarize("ana", nil)
		assert.Zero(t, s.Days)
		assert.Empty(t, s.Values)
	})

	t.Run("red flags attach below thresholds", func(t *testing.T) {
		s := Summarize("ana", []domain.HistoryRecord{
			hist("ana", 17, map[string]float64{
				ingest.FieldSales:        100,
				ingest.FieldClockedHours: 5,
				ingest.FieldGoldenRatio:  25,
			}),
		})
		kpis := make([]string, 0, len(s.RedFlags))
		for _, f := range s.RedFlags {
			kpis = append(kpis, f.KPI)
		}
		// 25 GR < 30 and 20 $/hr < 40 flag; absent KPIs do not.
		assert.ElementsMatch(t, []string{ingest.FieldGoldenRatio, FieldSalesPerHour}, kpis)
	})
}

func TestRollupTeams(t *testing.T) {
	summaries := []domain.AggregatedSummary{
		{EntityKey: "ana", Team: "Alpha", Values: map[string]float64{ingest.FieldSales: 100, ingest.FieldClockedHours: 5}},
		{EntityKey: "bea", Team: "Alpha", Values: map[string]float64{ingest.FieldSales: 50, ingest.FieldClockedHours: 5}},
		{EntityKey: "cat", Team: "Bravo", Values: map[string]float64{ingest.FieldSales: 30, ingest.FieldClockedHours: 3, ingest.FieldGoldenRatio: 40}},
		{EntityKey: "dan", Team: "", Values: map[string]float64{ingest.FieldSales: 999}},
	}

	teams := RollupTeams(summaries)
	require.Len(t, teams, 2)

	alpha, bravo := teams[0], teams[1]
	assert.Equal(t, "Alpha", alpha.Team)
	assert.Equal(t, 2, alpha.Entities)
	assert.InDelta(t, 150.0, alpha.Values[ingest.FieldSales], 1e-9)
	assert.InDelta(t, 15.0, alpha.Values[FieldSalesPerHour], 1e-9)

	assert.Equal(t, "Bravo", bravo.Team)
	// Rates never sum across members.
	_, ok := bravo.Values[ingest.FieldGoldenRatio]
	assert.False(t, ok)
}

func TestWithDerived(t *testing.T) {
	records := []domain.HistoryRecord{
		hist("ana", 17, map[string]float64{ingest.FieldSales: 100, ingest.FieldClockedHours: 4}),
		hist("ana", 18, map[string]float64{ingest.FieldSales: 100}),
	}
	out := WithDerived(records)

	assert.InDelta(t, 25.0, out[0].Values[FieldSalesPerHour], 1e-9)
	_, ok := out[1].Values[FieldSalesPerHour]
	assert.False(t, ok, "no hours means no derived rate")
	_, ok = records[0].Values[FieldSalesPerHour]
	assert.False(t, ok, "inputs must not be mutated")
}
