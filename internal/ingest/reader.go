package ingest

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Limits are the pre-parse ceilings enforced on every upload.
type Limits struct {
	MaxBytes int64
	MaxRows  int
}

// ReadRows validates and parses raw upload bytes into string rows, first row
// included (headers). The limits are checked before and after parsing; any
// violation rejects the whole file.
func ReadRows(fileName string, data []byte, limits Limits) ([][]string, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	switch ext {
	case ".csv", ".xlsx":
	default:
		return nil, &UnsupportedFormatError{Ext: ext}
	}

	if limits.MaxBytes > 0 && int64(len(data)) > limits.MaxBytes {
		return nil, &SizeLimitError{Size: int64(len(data)), Limit: limits.MaxBytes}
	}

	var rows [][]string
	var err error
	switch ext {
	case ".csv":
		rows = parseCSV(data)
	case ".xlsx":
		rows, err = readXLSX(data)
		if err != nil {
			return nil, err
		}
	}

	if len(rows) <= 1 {
		return nil, &EmptySheetError{}
	}
	if limits.MaxRows > 0 && len(rows)-1 > limits.MaxRows {
		return nil, &RowLimitError{Rows: len(rows) - 1, Limit: limits.MaxRows}
	}

	return rows, nil
}

// readXLSX reads the first worksheet of an xlsx workbook. GetRows returns
// display values, which unwraps formula, rich-text, and hyperlink cells the
// way the exporting tools render them.
func readXLSX(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &EmptySheetError{}
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read worksheet %q: %w", sheets[0], err)
	}

	out := rows[:0]
	for _, r := range rows {
		if !rowBlank(r) {
			out = append(out, r)
		}
	}
	return out, nil
}
