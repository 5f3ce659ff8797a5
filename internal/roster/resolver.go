package roster

import (
	"cwhub/pkg/contracts/domain"
)

// ResolutionStatus is where an entity landed after the waterfall. Every
// entity lands in exactly one status.
type ResolutionStatus string

const (
	StatusResolved        ResolutionStatus = "resolved"
	StatusNeedsAssignment ResolutionStatus = "needs_assignment"
	StatusDismissed       ResolutionStatus = "dismissed"
)

// ResolutionSource names which waterfall step produced the team.
type ResolutionSource string

const (
	SourceOverride ResolutionSource = "override"
	SourceRoster   ResolutionSource = "roster"
	SourceHint     ResolutionSource = "upload_hint"
	SourceNone     ResolutionSource = "none"
)

// Assignment is the outcome of resolving one entity.
type Assignment struct {
	EntityKey   string           `json:"entity_key"`
	DisplayName string           `json:"display_name"`
	Team        string           `json:"team,omitempty"`
	Status      ResolutionStatus `json:"status"`
	Source      ResolutionSource `json:"source"`
}

// OverrideSnapshot exposes the current override cache to the resolver. The
// store package provides the live implementation.
type OverrideSnapshot interface {
	Override(entityKey string) (domain.TeamOverride, bool)
}

// Resolver assigns each entity to a canonical team through a prioritized
// fallback chain: persisted override, roster lookup, upload group hint, and
// finally the needs-assignment bucket. Resolution is a pure function of the
// roster and override snapshots plus the upload's own hint; nothing is
// cached between calls.
type Resolver struct {
	roster    *Roster
	overrides OverrideSnapshot
}

// NewResolver wires a resolver over the given snapshots.
func NewResolver(r *Roster, overrides OverrideSnapshot) *Resolver {
	return &Resolver{roster: r, overrides: overrides}
}

// Resolve runs the waterfall for one entity. groupHint is the upload's own
// free-text team column, which only applies when neither an override nor the
// roster answers.
func (rs *Resolver) Resolve(displayName, groupHint string) Assignment {
	key := EntityKey(displayName)
	a := Assignment{EntityKey: key, DisplayName: displayName}

	if rs.overrides != nil {
		if o, ok := rs.overrides.Override(key); ok {
			if o.Dismissed() {
				a.Status = StatusDismissed
				a.Source = SourceOverride
				return a
			}
			a.Team = o.Team
			a.Status = StatusResolved
			a.Source = SourceOverride
			return a
		}
	}

	if rs.roster != nil {
		if c, ok := rs.roster.Lookup(key); ok && c.Team != "" {
			a.Team = c.Team
			a.Status = StatusResolved
			a.Source = SourceRoster
			return a
		}
		if team, ok := rs.roster.MatchTeam(groupHint); ok {
			a.Team = team
			a.Status = StatusResolved
			a.Source = SourceHint
			return a
		}
	}

	a.Status = StatusNeedsAssignment
	a.Source = SourceNone
	return a
}
