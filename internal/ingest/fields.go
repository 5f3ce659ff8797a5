package ingest

import (
	"strings"
)

// Canonical field names. Multiple differently-worded spreadsheet headers
// resolve to these; aggregation and classification only ever see canonical
// names.
const (
	FieldEmployee        = "employee"
	FieldDate            = "date"
	FieldSales           = "sales"
	FieldClockedHours    = "clocked_hours"
	FieldMessagesSent    = "messages_sent"
	FieldFansChatted     = "fans_chatted"
	FieldCharactersTyped = "characters_typed"
	FieldResponseTime    = "response_time"
	FieldGoldenRatio     = "golden_ratio"
	FieldFanCVR          = "fan_cvr"
	FieldUnlockRate      = "unlock_rate"
	FieldPPVsSent        = "ppvs_sent"
	FieldPPVsUnlocked    = "ppvs_unlocked"
	FieldTips            = "tips"
	FieldTeam            = "team"
)

// ValueKind selects the normalizer applied to a resolved column.
type ValueKind int

const (
	KindText ValueKind = iota
	KindNumber
	KindHours
	KindSeconds
	KindDate
)

// FieldSpec describes one canonical field: its accepted header phrases in
// priority order and the normalizer its values go through. The alias lists
// are append-only configuration; adding a phrase changes resolution for
// future uploads only, stored history is never re-normalized.
type FieldSpec struct {
	Name    string
	Kind    ValueKind
	Aliases []string
}

// dictionary is the canonical field dictionary in resolution priority order.
var dictionary = []FieldSpec{
	{FieldEmployee, KindText, []string{"employee", "employee name", "chatter", "chatter name", "agent", "full name", "name"}},
	{FieldDate, KindDate, []string{"date", "date range", "report date", "day", "period"}},
	{FieldSales, KindNumber, []string{"sales", "total sales", "net sales", "revenue", "total revenue", "earnings"}},
	{FieldClockedHours, KindHours, []string{"clocked hours", "hours worked", "worked hours", "total hours", "time clocked", "hours"}},
	{FieldMessagesSent, KindNumber, []string{"messages sent", "total messages", "msg sent", "messages"}},
	{FieldFansChatted, KindNumber, []string{"fans chatted", "unique fans", "fans messaged", "fans"}},
	{FieldCharactersTyped, KindNumber, []string{"characters typed", "chars typed", "character count", "characters"}},
	{FieldResponseTime, KindSeconds, []string{"response time", "avg response time", "average response", "reply time"}},
	{FieldGoldenRatio, KindNumber, []string{"golden ratio", "gr %", "golden %"}},
	{FieldFanCVR, KindNumber, []string{"fan cvr", "fan conversion", "conversion rate", "cvr"}},
	{FieldUnlockRate, KindNumber, []string{"unlock rate", "ppv unlock rate", "unlock %"}},
	{FieldPPVsSent, KindNumber, []string{"ppvs sent", "ppv sent", "ppvs"}},
	{FieldPPVsUnlocked, KindNumber, []string{"ppvs unlocked", "ppv unlocked", "unlocked ppvs"}},
	{FieldTips, KindNumber, []string{"tips", "tip total", "tips received"}},
	{FieldTeam, KindText, []string{"team", "team name", "squad", "group"}},
}

// specByName indexes the dictionary for normalizer lookup.
var specByName = func() map[string]FieldSpec {
	m := make(map[string]FieldSpec, len(dictionary))
	for _, spec := range dictionary {
		m[spec.Name] = spec
	}
	return m
}()

// Spec returns the dictionary entry for a canonical field.
func Spec(name string) (FieldSpec, bool) {
	spec, ok := specByName[name]
	return spec, ok
}

// headerSeparators are collapsed to spaces before matching.
var headerSeparators = strings.NewReplacer("_", " ", "-", " ", ".", " ", "/", " ", ":", " ", "(", " ", ")", " ")

// NormalizeHeader lower-cases a header, folds separators to spaces, and
// collapses internal whitespace.
func NormalizeHeader(header string) string {
	header = strings.ToLower(strings.TrimSpace(header))
	header = headerSeparators.Replace(header)
	return strings.Join(strings.Fields(header), " ")
}

// ResolveFields maps header positions to canonical field names in two
// passes: exact alias match first, then substring containment in either
// direction. Earlier headers have priority, each header claims at most one
// field and each field at most one header. Headers matching nothing are
// dropped silently.
//
// Returns MissingRequiredFieldError if no header resolved to the identity
// field or the primary value field; the caller must abort the upload.
func ResolveFields(headers []string) (map[int]string, error) {
	normalized := make([]string, len(headers))
	for i, h := range headers {
		normalized[i] = NormalizeHeader(h)
	}

	resolved := make(map[int]string)
	claimed := make(map[string]bool)

	// Pass 1: exact alias match.
	for i, header := range normalized {
		if header == "" {
			continue
		}
		for _, spec := range dictionary {
			if claimed[spec.Name] {
				continue
			}
			if matchExact(header, spec.Aliases) {
				resolved[i] = spec.Name
				claimed[spec.Name] = true
				break
			}
		}
	}

	// Pass 2: substring containment in either direction.
	for i, header := range normalized {
		if header == "" {
			continue
		}
		if _, done := resolved[i]; done {
			continue
		}
		for _, spec := range dictionary {
			if claimed[spec.Name] {
				continue
			}
			if matchContains(header, spec.Aliases) {
				resolved[i] = spec.Name
				claimed[spec.Name] = true
				break
			}
		}
	}

	if !claimed[FieldEmployee] {
		return nil, &MissingRequiredFieldError{Field: FieldEmployee}
	}
	if !claimed[FieldSales] {
		return nil, &MissingRequiredFieldError{Field: FieldSales}
	}

	return resolved, nil
}

func matchExact(header string, aliases []string) bool {
	for _, alias := range aliases {
		if header == alias {
			return true
		}
	}
	return false
}

func matchContains(header string, aliases []string) bool {
	for _, alias := range aliases {
		if strings.Contains(header, alias) || strings.Contains(alias, header) {
			return true
		}
	}
	return false
}
