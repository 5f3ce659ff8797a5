package domain

import (
	"time"
)

// UploadResult reports the outcome of one upload merge back to the caller.
// Skipped rows never abort the upload; a capped preview of their names is
// carried for triage alongside the total count.
type UploadResult struct {
	UploadID       string    `json:"upload_id"`
	FileName       string    `json:"file_name"`
	PeriodStart    time.Time `json:"period_start"`
	PeriodEnd      time.Time `json:"period_end"`
	Merged         int       `json:"merged"`
	Replaced       int       `json:"replaced"`
	Skipped        int       `json:"skipped"`
	SkippedPreview []string  `json:"skipped_preview,omitempty"`
	Warnings       []string  `json:"warnings,omitempty"`
	UploadedAt     time.Time `json:"uploaded_at"`
}
