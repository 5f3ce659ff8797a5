package domain

import (
	"time"
)

// NormalizedRecord is one employee/model row after header resolution and value
// normalization. Canonical fields live in Values; a field that could not be
// resolved from the source row is absent from the map, never zero.
type NormalizedRecord struct {
	Name      string             `json:"name" validate:"required"`
	Date      time.Time          `json:"date"`
	GroupHint string             `json:"group_hint,omitempty"`
	DayCount  int                `json:"day_count,omitempty"`
	Values    map[string]float64 `json:"values"`
}

// HistoryKey uniquely identifies a HistoryRecord.
type HistoryKey struct {
	EntityKey   string    `json:"entity_key"`
	PeriodStart time.Time `json:"period_start"`
	PeriodEnd   time.Time `json:"period_end"`
}

// HistoryRecord is the persisted per-entity-per-period snapshot. Records are
// mutated only by whole-record replacement when a newer upload supersedes an
// older one for the same key.
type HistoryRecord struct {
	EntityKey   string             `json:"entity_key" db:"entity_key" validate:"required"`
	DisplayName string             `json:"display_name" db:"display_name"`
	PeriodStart time.Time          `json:"period_start" db:"period_start"`
	PeriodEnd   time.Time          `json:"period_end" db:"period_end"`
	UploadedAt  time.Time          `json:"uploaded_at" db:"uploaded_at"`
	GroupHint   string             `json:"group_hint,omitempty" db:"group_hint"`
	Values      map[string]float64 `json:"values" db:"values"`
}

// Key returns the identity of the record within the history store.
func (r HistoryRecord) Key() HistoryKey {
	return HistoryKey{
		EntityKey:   r.EntityKey,
		PeriodStart: r.PeriodStart,
		PeriodEnd:   r.PeriodEnd,
	}
}

// Value returns a canonical field value and whether the record carries it.
func (r HistoryRecord) Value(field string) (float64, bool) {
	v, ok := r.Values[field]
	return v, ok
}
