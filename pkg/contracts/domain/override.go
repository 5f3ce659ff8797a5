package domain

import (
	"time"
)

// OverrideSource records how a team override came to exist.
type OverrideSource string

const (
	OverrideSourceManual OverrideSource = "manual"
	OverrideSourceUpload OverrideSource = "upload"
)

// DismissedTeam is the reserved override value meaning the entity was
// dismissed by a human and must be excluded from all downstream aggregation.
const DismissedTeam = "Dismissed"

// TeamOverride pins an entity to a team (or to DismissedTeam) regardless of
// what the roster or future uploads say. Once written it wins every resolution
// until it is explicitly changed or cleared.
type TeamOverride struct {
	EntityKey   string         `json:"entity_key" db:"entity_key" validate:"required"`
	DisplayName string         `json:"display_name" db:"display_name"`
	Team        string         `json:"team" db:"team" validate:"required"`
	Source      OverrideSource `json:"source" db:"source"`
	UpdatedAt   time.Time      `json:"updated_at" db:"updated_at"`
}

// Dismissed reports whether the override excludes the entity entirely.
func (o TeamOverride) Dismissed() bool {
	return o.Team == DismissedTeam
}
