package ingest

import (
	"strings"
)

// parseCSV is a lenient CSV reader for human-produced exports: quoted fields
// with "" escapes, commas and newlines inside quotes, CRLF or LF line ends,
// and rows of uneven width. An unterminated quote runs to end of input
// rather than failing the file.
func parseCSV(data []byte) [][]string {
	var (
		rows     [][]string
		row      []string
		field    strings.Builder
		inQuotes bool
		started  bool
	)

	endField := func() {
		row = append(row, field.String())
		field.Reset()
		started = false
	}
	endRow := func() {
		endField()
		rows = append(rows, row)
		row = nil
	}

	for i := 0; i < len(data); i++ {
		c := data[i]

		if inQuotes {
			if c == '"' {
				if i+1 < len(data) && data[i+1] == '"' {
					field.WriteByte('"')
					i++
					continue
				}
				inQuotes = false
				continue
			}
			field.WriteByte(c)
			continue
		}

		switch c {
		case '"':
			if !started && field.Len() == 0 {
				inQuotes = true
				started = true
				continue
			}
			// Bare quote mid-field: keep it literal.
			field.WriteByte(c)
		case ',':
			endField()
		case '\r':
			if i+1 < len(data) && data[i+1] == '\n' {
				i++
			}
			endRow()
		case '\n':
			endRow()
		default:
			field.WriteByte(c)
			started = true
		}
	}

	// Flush a final row without a trailing newline.
	if field.Len() > 0 || started || len(row) > 0 {
		endRow()
	}

	// Drop rows that are entirely blank.
	out := rows[:0]
	for _, r := range rows {
		if !rowBlank(r) {
			out = append(out, r)
		}
	}
	return out
}

func rowBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
