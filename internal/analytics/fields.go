// Package analytics rolls granular daily records into period summaries and
// classifies relative workload against the population baseline. Everything
// here is pure computation over a history snapshot: recomputed on every
// read, never persisted.
package analytics

import (
	"cwhub/internal/ingest"
	"cwhub/pkg/contracts/domain"
)

// FieldKind decides how a canonical field combines across rows and days.
type FieldKind int

const (
	// KindSummable fields add up: counts, money amounts, characters,
	// worked hours.
	KindSummable FieldKind = iota
	// KindRate fields are ratios or time-based KPIs. They never sum; see
	// CollapseRows and Summarize for the combination rules.
	KindRate
)

// FieldSalesPerHour is derived on aggregation from total sales over total
// hours. It never appears in uploads and is always recomputed from the
// aggregated totals, so daily rounding does not compound.
const FieldSalesPerHour = "sales_per_hour"

var fieldKinds = map[string]FieldKind{
	ingest.FieldSales:           KindSummable,
	ingest.FieldClockedHours:    KindSummable,
	ingest.FieldMessagesSent:    KindSummable,
	ingest.FieldFansChatted:     KindSummable,
	ingest.FieldCharactersTyped: KindSummable,
	ingest.FieldPPVsSent:        KindSummable,
	ingest.FieldPPVsUnlocked:    KindSummable,
	ingest.FieldTips:            KindSummable,
	ingest.FieldResponseTime:    KindRate,
	ingest.FieldGoldenRatio:     KindRate,
	ingest.FieldFanCVR:          KindRate,
	ingest.FieldUnlockRate:      KindRate,
}

// Kind returns how a field combines. Unknown fields are treated as rates,
// the conservative choice: never invent a sum for a metric we cannot name.
func Kind(field string) FieldKind {
	if k, ok := fieldKinds[field]; ok {
		return k
	}
	return KindRate
}

// Coaching thresholds from the ops playbook: a KPI below its threshold is a
// red flag on the entity's summary.
var redFlagThresholds = []domain.RedFlag{
	{KPI: ingest.FieldGoldenRatio, Threshold: 30},
	{KPI: ingest.FieldFanCVR, Threshold: 8},
	{KPI: FieldSalesPerHour, Threshold: 40},
	{KPI: ingest.FieldUnlockRate, Threshold: 20},
}

// redFlags evaluates the thresholds against a summary's values. A KPI the
// summary does not carry is not flagged.
func redFlags(values map[string]float64) []domain.RedFlag {
	var flags []domain.RedFlag
	for _, t := range redFlagThresholds {
		if v, ok := values[t.KPI]; ok && v < t.Threshold {
			flags = append(flags, domain.RedFlag{KPI: t.KPI, Value: v, Threshold: t.Threshold})
		}
	}
	return flags
}
