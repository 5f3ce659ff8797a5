package ingest

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Value normalizers. All numeric conversions are total: a value that cannot
// be parsed yields ok == false, never an error. Date parsing alone reports
// failure the same way but callers treat it as "no date", not "zero date".

// ParseNumber converts currency, percent, and plain count encodings to a
// float. Blank and "-" are missing. A single comma with one or two trailing
// digits is treated as a decimal comma; any other comma is a thousands
// separator.
func ParseNumber(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	if s == "" || s == "-" {
		return 0, false
	}

	s = strings.NewReplacer("$", "", "%", "", " ", "", "\u00a0", "").Replace(s)
	if s == "" || s == "-" {
		return 0, false
	}

	if strings.Contains(s, ",") {
		if strings.Contains(s, ".") {
			s = strings.ReplaceAll(s, ",", "")
		} else if idx := strings.LastIndex(s, ","); strings.Count(s, ",") == 1 && len(s)-idx-1 <= 2 {
			s = s[:idx] + "." + s[idx+1:]
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

var (
	hoursMinutesRe = regexp.MustCompile(`^(?:(\d+(?:\.\d+)?)\s*h(?:rs?|ours?)?)?\s*(?:(\d+(?:\.\d+)?)\s*m(?:in(?:s)?)?)?$`)
	minutesSecsRe  = regexp.MustCompile(`^(?:(\d+(?:\.\d+)?)\s*m(?:in(?:s)?)?)?\s*(?:(\d+(?:\.\d+)?)\s*s(?:ec(?:s)?)?)?$`)
	clockRe        = regexp.MustCompile(`^(\d+):(\d{1,2})(?::(\d{1,2}))?$`)
)

// ParseHours converts a worked-time encoding to fractional hours.
// Accepted: "2h 30min", "2h", "45min", "2:30", "2:30:15", bare numeric hours.
func ParseHours(raw string) (float64, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" || s == "-" {
		return 0, false
	}

	if m := clockRe.FindStringSubmatch(s); m != nil {
		h, _ := strconv.ParseFloat(m[1], 64)
		min, _ := strconv.ParseFloat(m[2], 64)
		var sec float64
		if m[3] != "" {
			sec, _ = strconv.ParseFloat(m[3], 64)
		}
		return h + min/60 + sec/3600, true
	}

	if m := hoursMinutesRe.FindStringSubmatch(s); m != nil && (m[1] != "" || m[2] != "") {
		var hours float64
		if m[1] != "" {
			h, _ := strconv.ParseFloat(m[1], 64)
			hours += h
		}
		if m[2] != "" {
			min, _ := strconv.ParseFloat(m[2], 64)
			hours += min / 60
		}
		return hours, true
	}

	return ParseNumber(s)
}

// ParseSeconds converts a response-time encoding to whole seconds.
// Accepted: "5m 30s", "5m", "42s", "1:02:03", "5:30", bare numeric seconds.
func ParseSeconds(raw string) (float64, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" || s == "-" {
		return 0, false
	}

	if m := clockRe.FindStringSubmatch(s); m != nil {
		first, _ := strconv.ParseFloat(m[1], 64)
		second, _ := strconv.ParseFloat(m[2], 64)
		if m[3] != "" {
			// H:MM:SS
			third, _ := strconv.ParseFloat(m[3], 64)
			return math.Round(first*3600 + second*60 + third), true
		}
		// MM:SS
		return math.Round(first*60 + second), true
	}

	if m := minutesSecsRe.FindStringSubmatch(s); m != nil && (m[1] != "" || m[2] != "") {
		var secs float64
		if m[1] != "" {
			min, _ := strconv.ParseFloat(m[1], 64)
			secs += min * 60
		}
		if m[2] != "" {
			sec, _ := strconv.ParseFloat(m[2], 64)
			secs += sec
		}
		return math.Round(secs), true
	}

	if v, ok := ParseNumber(s); ok {
		return math.Round(v), true
	}
	return 0, false
}

var isoDateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)

// genericDateLayouts are tried after the ISO and slash forms, standing in
// for "whatever the platform's date parser accepts" in the source tools.
var genericDateLayouts = []string{
	"2006/01/02",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"02-01-2006",
	"Jan 2 2006",
}

// ParseDate converts heterogeneous date encodings to a UTC midnight time.
// Slash and dash dates with a first component above 12 are read day-first,
// otherwise month-first.
func ParseDate(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}

	if isoDateRe.MatchString(s) {
		if t, err := time.Parse("2006-01-02", s[:10]); err == nil {
			return t.UTC(), true
		}
	}

	if t, ok := parseSlashDate(s); ok {
		return t, true
	}

	for _, layout := range genericDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return dateOnly(t), true
		}
	}

	return time.Time{}, false
}

func parseSlashDate(s string) (time.Time, bool) {
	sep := "/"
	if !strings.Contains(s, "/") {
		if !strings.Contains(s, ".") {
			return time.Time{}, false
		}
		sep = "."
	}
	parts := strings.Split(s, sep)
	if len(parts) != 3 {
		return time.Time{}, false
	}

	a, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	b, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
	y, err3 := strconv.Atoi(strings.TrimSpace(parts[2]))
	if err1 != nil || err2 != nil || err3 != nil {
		return time.Time{}, false
	}
	if y < 100 {
		y += 2000
	}

	// First component above 12 can only be a day.
	day, month := b, a
	if a > 12 {
		day, month = a, b
	}
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}

	return time.Date(y, time.Month(month), day, 0, 0, 0, 0, time.UTC), true
}

// DateRange is a parsed date or date-range cell. End stamps the record's
// period date; Days is the inclusive day count, kept as metadata only.
type DateRange struct {
	Start time.Time
	End   time.Time
	Days  int
}

// ParseDateRange splits a cell on " - " and parses the pieces. Two parseable
// tokens make a range, one makes a single-day range, anything else is
// missing.
func ParseDateRange(raw string) (DateRange, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return DateRange{}, false
	}

	parts := strings.Split(s, " - ")
	if len(parts) == 2 {
		start, okStart := ParseDate(parts[0])
		end, okEnd := ParseDate(parts[1])
		if okStart && okEnd {
			if end.Before(start) {
				start, end = end, start
			}
			days := int(end.Sub(start).Hours()/24) + 1
			return DateRange{Start: start, End: end, Days: days}, true
		}
		return DateRange{}, false
	}

	if t, ok := ParseDate(s); ok {
		return DateRange{Start: t, End: t, Days: 1}, true
	}
	return DateRange{}, false
}

func dateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
