package domain

import (
	"time"
)

// Trend is the direction of an entity's recent movement against the
// preceding window.
type Trend string

const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
)

// Tier is the coarse workload classification relative to the population mean.
type Tier string

const (
	TierHigh   Tier = "high"
	TierMedium Tier = "medium"
	TierLow    Tier = "low"
	TierNone   Tier = "none"
)

// TrafficClassification is the derived trend/tier verdict for one entity.
// It is recomputed on every read and never persisted.
type TrafficClassification struct {
	Trend    Trend   `json:"trend"`
	TrendPct float64 `json:"trend_pct"`
	Tier     Tier    `json:"tier"`
}

// RedFlag marks a KPI that fell below its coaching threshold.
type RedFlag struct {
	KPI       string  `json:"kpi"`
	Value     float64 `json:"value"`
	Threshold float64 `json:"threshold"`
}

// AggregatedSummary is the in-memory period rollup for one entity. Summable
// fields are totals, rate fields are day-averages, derived fields are
// recomputed from the totals.
type AggregatedSummary struct {
	EntityKey   string             `json:"entity_key"`
	DisplayName string             `json:"display_name"`
	Team        string             `json:"team,omitempty"`
	PeriodStart time.Time          `json:"period_start"`
	PeriodEnd   time.Time          `json:"period_end"`
	Days        int                `json:"days"`
	Values      map[string]float64 `json:"values"`
	RedFlags    []RedFlag          `json:"red_flags,omitempty"`

	Classification *TrafficClassification `json:"classification,omitempty"`
}

// TeamRollup aggregates entity summaries at team level. Entities counts
// distinct members, so an entity referenced by several records still counts
// once for its team.
type TeamRollup struct {
	Team     string             `json:"team"`
	Entities int                `json:"entities"`
	Values   map[string]float64 `json:"values"`
}
