package domain

// ChatterStatus represents the roster status of a chatter.
type ChatterStatus string

const (
	ChatterStatusActive    ChatterStatus = "Active"
	ChatterStatusProbation ChatterStatus = "Probation"
	ChatterStatusInactive  ChatterStatus = "Inactive"
)

// Chatter is a roster entry supplied by the external roster collaborator.
// The pipeline reads these for team resolution and never writes them back.
type Chatter struct {
	FullName string        `json:"full_name" validate:"required"`
	Team     string        `json:"team,omitempty"`
	Role     string        `json:"role,omitempty"`
	Status   ChatterStatus `json:"status"`
	Shift    string        `json:"shift,omitempty"`
}

// Active reports whether the chatter should participate in resolution.
// Probation counts as active, matching how the roster source filters.
func (c Chatter) Active() bool {
	return c.Status == ChatterStatusActive || c.Status == ChatterStatusProbation
}
