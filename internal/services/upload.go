// Package services wires the ingestion, reconciliation, and reporting
// stages into the operations the transport layer exposes. Services own no
// state of their own; the store is the single source of truth and the
// roster and override snapshots are consulted live on every call.
package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"cwhub/internal/analytics"
	"cwhub/internal/config"
	"cwhub/internal/infrastructure"
	"cwhub/internal/ingest"
	"cwhub/internal/period"
	"cwhub/internal/roster"
	"cwhub/internal/store"
	"cwhub/pkg/contracts/domain"
)

// UploadService runs the full ingestion pipeline for one uploaded file:
// format validation, parsing, header resolution, row normalization,
// identity screening, per-day collapsing, period stamping, and the history
// merge. A rejected file commits nothing; a skipped row never aborts the
// rest of the file.
type UploadService struct {
	store  *store.Store
	roster *roster.Roster
	cfg    config.PipelineConfig
	logger *slog.Logger
	now    func() time.Time
}

// NewUploadService builds an upload service over the given store and
// roster snapshot.
func NewUploadService(st *store.Store, r *roster.Roster, cfg config.PipelineConfig, logger *slog.Logger) *UploadService {
	if logger == nil {
		logger = slog.Default()
	}
	return &UploadService{
		store:  st,
		roster: r,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// ProcessUpload ingests one file and merges its records into history.
// win, when non-nil, stamps rows that carry no date of their own; rows
// with an explicit date or date range always keep it. A nil win falls back
// to the current canonical week.
func (s *UploadService) ProcessUpload(ctx context.Context, fileName string, data []byte, win *period.Window) (*domain.UploadResult, error) {
	timer := prometheus.NewTimer(infrastructure.UploadDuration)
	defer timer.ObserveDuration()

	rows, err := ingest.ReadRows(fileName, data, ingest.Limits{
		MaxBytes: s.cfg.MaxUploadBytes,
		MaxRows:  s.cfg.MaxRows,
	})
	if err != nil {
		return nil, s.reject(ctx, fileName, err)
	}

	fields, err := ingest.ResolveFields(rows[0])
	if err != nil {
		return nil, s.reject(ctx, fileName, err)
	}

	records, skipped := ingest.BuildRecords(rows, fields, ingest.RowOptions{
		MinQualifyHours: s.cfg.MinQualifyHours,
	})

	// Identity screen: a row whose entity resolves nowhere at ingest time
	// is dropped and reported, not stored. Dismissed entities stay in
	// history and are filtered on the read side instead.
	resolver := roster.NewResolver(s.roster, s.store)
	kept := records[:0]
	for _, rec := range records {
		if resolver.Resolve(rec.Name, rec.GroupHint).Status == roster.StatusNeedsAssignment {
			skipped = append(skipped, ingest.SkippedRow{Name: rec.Name, Reason: ingest.SkipUnknownEntity})
			continue
		}
		kept = append(kept, rec)
	}

	collapsed := analytics.CollapseRows(kept)
	uploadedAt := s.now().UTC()

	history := make([]domain.HistoryRecord, 0, len(collapsed))
	var batchStart, batchEnd time.Time
	for _, rec := range collapsed {
		start, end := stampPeriod(rec, win, uploadedAt)
		if batchStart.IsZero() || start.Before(batchStart) {
			batchStart = start
		}
		if end.After(batchEnd) {
			batchEnd = end
		}
		history = append(history, domain.HistoryRecord{
			EntityKey:   roster.EntityKey(rec.Name),
			DisplayName: rec.Name,
			PeriodStart: start,
			PeriodEnd:   end,
			UploadedAt:  uploadedAt,
			GroupHint:   rec.GroupHint,
			Values:      rec.Values,
		})
	}

	merge := s.store.Merge(ctx, history)

	infrastructure.UploadsTotal.WithLabelValues("accepted").Inc()
	infrastructure.RowsMerged.Add(float64(merge.Inserted + merge.Replaced))
	for _, row := range skipped {
		infrastructure.RowsSkipped.WithLabelValues(string(row.Reason)).Inc()
	}

	result := &domain.UploadResult{
		UploadID:       uuid.NewString(),
		FileName:       fileName,
		PeriodStart:    batchStart,
		PeriodEnd:      batchEnd,
		Merged:         merge.Inserted + merge.Replaced,
		Replaced:       merge.Replaced,
		Skipped:        len(skipped),
		SkippedPreview: skippedPreview(skipped, s.cfg.SkippedPreviewCap),
		Warnings:       merge.Warnings,
		UploadedAt:     uploadedAt,
	}

	s.logger.InfoContext(ctx, "upload processed",
		slog.String("upload_id", result.UploadID),
		slog.String("file", fileName),
		slog.Int("merged", result.Merged),
		slog.Int("replaced", result.Replaced),
		slog.Int("kept", merge.Kept),
		slog.Int("skipped", result.Skipped))

	return result, nil
}

func (s *UploadService) reject(ctx context.Context, fileName string, err error) error {
	infrastructure.UploadsTotal.WithLabelValues("rejected").Inc()
	s.logger.WarnContext(ctx, "upload rejected",
		slog.String("file", fileName),
		slog.String("error", err.Error()))
	return err
}

// stampPeriod resolves the period for one collapsed record. A record that
// parsed its own date (or date range) keeps it; dateless records take the
// explicit upload window when given, else the current canonical week.
func stampPeriod(rec domain.NormalizedRecord, win *period.Window, uploadedAt time.Time) (time.Time, time.Time) {
	if !rec.Date.IsZero() {
		end := rec.Date
		start := end
		if rec.DayCount > 1 {
			start = end.AddDate(0, 0, -(rec.DayCount - 1))
		}
		return start, end
	}
	w := period.CurrentWeek(uploadedAt)
	if win != nil {
		w = *win
	}
	return w.From, w.To.AddDate(0, 0, -1)
}

func skippedPreview(skipped []ingest.SkippedRow, limit int) []string {
	if limit <= 0 || len(skipped) == 0 {
		return nil
	}
	n := len(skipped)
	if n > limit {
		n = limit
	}
	preview := make([]string, 0, n)
	for _, row := range skipped[:n] {
		preview = append(preview, row.Name)
	}
	return preview
}
