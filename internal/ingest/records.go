package ingest

import (
	"strings"

	"cwhub/pkg/contracts/domain"
)

// RowOptions tune per-row acceptance during record building.
type RowOptions struct {
	// MinQualifyHours drops rows whose clocked hours fall below the
	// threshold. Rows that report no hours at all are kept.
	MinQualifyHours float64
}

// SkippedRow names a dropped row and why it was dropped.
type SkippedRow struct {
	Name   string
	Reason SkipReason
}

// BuildRecords converts parsed rows into normalized records using a resolved
// header map. Rows are dropped, never fatal: a blank identity or
// insufficient worked time lands the row on the skipped list and processing
// continues.
func BuildRecords(rows [][]string, fields map[int]string, opts RowOptions) ([]domain.NormalizedRecord, []SkippedRow) {
	var records []domain.NormalizedRecord
	var skipped []SkippedRow

	for _, row := range rows[1:] {
		rec := domain.NormalizedRecord{Values: make(map[string]float64)}

		for idx, field := range fields {
			if idx >= len(row) {
				continue
			}
			cell := strings.TrimSpace(row[idx])
			if cell == "" {
				continue
			}

			switch field {
			case FieldEmployee:
				rec.Name = cell
			case FieldTeam:
				rec.GroupHint = cell
			case FieldDate:
				if r, ok := ParseDateRange(cell); ok {
					rec.Date = r.End
					rec.DayCount = r.Days
				}
			default:
				if v, ok := parseByKind(field, cell); ok {
					rec.Values[field] = v
				}
			}
		}

		if rec.Name == "" {
			skipped = append(skipped, SkippedRow{Name: "(blank)", Reason: SkipIdentityBlank})
			continue
		}
		if opts.MinQualifyHours > 0 {
			if hours, ok := rec.Values[FieldClockedHours]; ok && hours < opts.MinQualifyHours {
				skipped = append(skipped, SkippedRow{Name: rec.Name, Reason: SkipInsufficientHours})
				continue
			}
		}

		records = append(records, rec)
	}

	return records, skipped
}

func parseByKind(field, cell string) (float64, bool) {
	spec, ok := Spec(field)
	if !ok {
		return 0, false
	}
	switch spec.Kind {
	case KindHours:
		return ParseHours(cell)
	case KindSeconds:
		return ParseSeconds(cell)
	case KindNumber:
		return ParseNumber(cell)
	default:
		return 0, false
	}
}
