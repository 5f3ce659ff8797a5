package ingest

import (
	"fmt"
)

// Upload-fatal errors. Any of these aborts the whole upload with no partial
// commit to history; the message is surfaced to the user verbatim.

// UnsupportedFormatError reports a file extension the pipeline does not accept.
type UnsupportedFormatError struct {
	Ext string
}

func (e *UnsupportedFormatError) Error() string {
	if e.Ext == ".xls" {
		return "legacy .xls files are not supported: re-export the report as .xlsx or .csv"
	}
	return fmt.Sprintf("unsupported file format %q: only .csv and .xlsx are accepted", e.Ext)
}

// SizeLimitError reports an upload exceeding the byte ceiling.
type SizeLimitError struct {
	Size  int64
	Limit int64
}

func (e *SizeLimitError) Error() string {
	return fmt.Sprintf("file is %.1f MB, the limit is %.1f MB", float64(e.Size)/(1<<20), float64(e.Limit)/(1<<20))
}

// RowLimitError reports an upload exceeding the row ceiling.
type RowLimitError struct {
	Rows  int
	Limit int
}

func (e *RowLimitError) Error() string {
	return fmt.Sprintf("file has %d rows, the limit is %d", e.Rows, e.Limit)
}

// EmptySheetError reports a file with no data rows below the header.
type EmptySheetError struct{}

func (e *EmptySheetError) Error() string {
	return "the file contains no data rows"
}

// MissingRequiredFieldError reports that header resolution could not claim a
// column for a required canonical field.
type MissingRequiredFieldError struct {
	Field string
}

func (e *MissingRequiredFieldError) Error() string {
	return fmt.Sprintf("could not find a %q column in the file headers", e.Field)
}

// SkipReason explains why a single row was dropped without aborting the upload.
type SkipReason string

const (
	SkipIdentityBlank     SkipReason = "identity_blank"
	SkipInsufficientHours SkipReason = "insufficient_hours"
	SkipUnknownEntity     SkipReason = "unknown_entity"
)
