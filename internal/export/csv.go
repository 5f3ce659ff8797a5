// Package export renders reports as CSV for download into spreadsheet
// tools. Output is UTF-8 with a BOM so Excel opens accented names
// correctly.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"cwhub/internal/analytics"
	"cwhub/internal/ingest"
	"cwhub/pkg/contracts/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// summaryColumns is the fixed metric column order. Missing values render
// as empty cells, not zeros, so a metric the upload never carried stays
// visibly absent.
var summaryColumns = []string{
	ingest.FieldSales,
	ingest.FieldClockedHours,
	analytics.FieldSalesPerHour,
	ingest.FieldMessagesSent,
	ingest.FieldFansChatted,
	ingest.FieldCharactersTyped,
	ingest.FieldResponseTime,
	ingest.FieldGoldenRatio,
	ingest.FieldFanCVR,
	ingest.FieldUnlockRate,
	ingest.FieldPPVsSent,
	ingest.FieldPPVsUnlocked,
	ingest.FieldTips,
}

// WriteSummaries streams entity summaries as CSV.
func WriteSummaries(w io.Writer, summaries []domain.AggregatedSummary) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return fmt.Errorf("write BOM: %w", err)
	}

	cw := csv.NewWriter(w)

	header := []string{"entity_key", "display_name", "team", "period_start", "period_end", "days"}
	header = append(header, summaryColumns...)
	header = append(header, "trend", "trend_pct", "tier", "red_flags")
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, s := range summaries {
		row := []string{
			s.EntityKey,
			s.DisplayName,
			s.Team,
			s.PeriodStart.Format("2006-01-02"),
			s.PeriodEnd.Format("2006-01-02"),
			fmt.Sprintf("%d", s.Days),
		}
		for _, col := range summaryColumns {
			row = append(row, formatValue(s.Values, col))
		}
		row = append(row, classificationCells(s.Classification)...)
		row = append(row, redFlagCell(s.RedFlags))
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row for %s: %w", s.EntityKey, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteTeamRollups streams team rollups as CSV.
func WriteTeamRollups(w io.Writer, teams []domain.TeamRollup) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return fmt.Errorf("write BOM: %w", err)
	}

	cw := csv.NewWriter(w)

	header := []string{"team", "entities"}
	header = append(header, summaryColumns...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, t := range teams {
		row := []string{t.Team, fmt.Sprintf("%d", t.Entities)}
		for _, col := range summaryColumns {
			row = append(row, formatValue(t.Values, col))
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row for %s: %w", t.Team, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatValue(values map[string]float64, field string) string {
	v, ok := values[field]
	if !ok {
		return ""
	}
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".")
}

func classificationCells(c *domain.TrafficClassification) []string {
	if c == nil {
		return []string{"", "", ""}
	}
	return []string{
		string(c.Trend),
		fmt.Sprintf("%.1f", c.TrendPct),
		string(c.Tier),
	}
}

func redFlagCell(flags []domain.RedFlag) string {
	if len(flags) == 0 {
		return ""
	}
	parts := make([]string, 0, len(flags))
	for _, f := range flags {
		parts = append(parts, fmt.Sprintf("%s %.1f<%.0f", f.KPI, f.Value, f.Threshold))
	}
	return strings.Join(parts, "; ")
}
