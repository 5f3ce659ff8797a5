package roster

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"cwhub/pkg/contracts/domain"
)

// Roster is a read-only snapshot of the known entities and their teams,
// supplied by the external roster collaborator. The pipeline never writes it.
type Roster struct {
	byKey       map[string]domain.Chatter
	byFirstLast map[string]domain.Chatter
	byFirst     map[string]domain.Chatter
	teams       map[string]string // normalized team token -> canonical name
}

// New builds a roster snapshot from chatter entries. Inactive entries are
// dropped; ambiguous first-last or first-token shortcuts keep the first
// entry seen and ignore later collisions.
func New(chatters []domain.Chatter) *Roster {
	r := &Roster{
		byKey:       make(map[string]domain.Chatter),
		byFirstLast: make(map[string]domain.Chatter),
		byFirst:     make(map[string]domain.Chatter),
		teams:       make(map[string]string),
	}

	for _, c := range chatters {
		if !c.Active() {
			continue
		}
		key := EntityKey(c.FullName)
		if key == "" {
			continue
		}
		if _, exists := r.byKey[key]; !exists {
			r.byKey[key] = c
		}
		if fl := firstLastKey(key); fl != key {
			if _, exists := r.byFirstLast[fl]; !exists {
				r.byFirstLast[fl] = c
			}
		}
		if ft := firstToken(key); ft != "" {
			if _, exists := r.byFirst[ft]; !exists {
				r.byFirst[ft] = c
			}
		}
		if c.Team != "" {
			r.teams[teamToken(c.Team)] = c.Team
		}
	}

	return r
}

// Lookup resolves an entity key against the roster: exact match first, then
// first+last token, then first token only.
func (r *Roster) Lookup(key string) (domain.Chatter, bool) {
	if c, ok := r.byKey[key]; ok {
		return c, true
	}
	if c, ok := r.byFirstLast[firstLastKey(key)]; ok {
		return c, true
	}
	if c, ok := r.byFirst[firstToken(key)]; ok {
		return c, true
	}
	return domain.Chatter{}, false
}

// MatchTeam resolves a free-text group hint against the valid team set. A
// leading "team " prefix is ignored and matching is case-insensitive.
func (r *Roster) MatchTeam(hint string) (string, bool) {
	token := teamToken(hint)
	if token == "" {
		return "", false
	}
	team, ok := r.teams[token]
	return team, ok
}

// Teams returns the canonical team names known to the roster.
func (r *Roster) Teams() []string {
	out := make([]string, 0, len(r.teams))
	for _, team := range r.teams {
		out = append(out, team)
	}
	return out
}

// Size returns the number of distinct active entities.
func (r *Roster) Size() int {
	return len(r.byKey)
}

func teamToken(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "team ")
	return strings.Join(strings.Fields(s), " ")
}

// LoadCSV reads a roster export with a full_name,team_name,role,status
// header row. Unknown columns are ignored; rows without a name are skipped.
func LoadCSV(path string) ([]domain.Chatter, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open roster file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read roster file: %w", err)
	}
	if len(rows) < 2 {
		return nil, nil
	}

	cols := make(map[string]int)
	for i, h := range rows[0] {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}

	cell := func(row []string, name string) string {
		idx, ok := cols[name]
		if !ok || idx >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[idx])
	}

	var chatters []domain.Chatter
	for _, row := range rows[1:] {
		name := cell(row, "full_name")
		if name == "" {
			continue
		}
		status := domain.ChatterStatus(cell(row, "status"))
		if status == "" {
			status = domain.ChatterStatusActive
		}
		chatters = append(chatters, domain.Chatter{
			FullName: name,
			Team:     cell(row, "team_name"),
			Role:     cell(row, "role"),
			Status:   status,
			Shift:    cell(row, "favorite_shift"),
		})
	}

	slog.Debug("roster loaded", slog.String("path", path), slog.Int("entries", len(chatters)))
	return chatters, nil
}
