package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cwhub/internal/config"
	"cwhub/internal/ingest"
	"cwhub/internal/period"
	"cwhub/internal/roster"
	"cwhub/internal/store"
	"cwhub/pkg/contracts/domain"
)

func testPipelineConfig() config.PipelineConfig {
	return config.PipelineConfig{
		MaxUploadBytes:    1 << 20,
		MaxRows:           1000,
		MinQualifyHours:   4,
		SkippedPreviewCap: 3,
		TrendMetric:       "sales_per_hour",
	}
}

func testServiceRoster() *roster.Roster {
	return roster.New([]domain.Chatter{
		{FullName: "Ana Garcia", Team: "Alpha", Status: domain.ChatterStatusActive},
		{FullName: "Bea Lopez", Team: "Bravo", Status: domain.ChatterStatusActive},
	})
}

func newTestUploadService(t *testing.T) (*UploadService, *store.Store) {
	t.Helper()
	st, err := store.Open(":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return NewUploadService(st, testServiceRoster(), testPipelineConfig(), nil), st
}

func TestProcessUploadMergesRows(t *testing.T) {
	svc, st := newTestUploadService(t)

	csv := "Employee,Date,Sales,Clocked Hours,Team\n" +
		"Ana Garcia,2026-08-17,$250.00,8h,Alpha\n" +
		"Bea Lopez,2026-08-17,150,6:30,Bravo\n"

	result, err := svc.ProcessUpload(context.Background(), "report.csv", []byte(csv), nil)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Merged)
	assert.Zero(t, result.Skipped)
	assert.NotEmpty(t, result.UploadID)
	assert.True(t, result.PeriodStart.Equal(time.Date(2026, 8, 17, 0, 0, 0, 0, time.UTC)))

	recs := st.ByEntity("ana garcia")
	require.Len(t, recs, 1)
	assert.InDelta(t, 250.0, recs[0].Values[ingest.FieldSales], 1e-9)
	assert.InDelta(t, 8.0, recs[0].Values[ingest.FieldClockedHours], 1e-9)
	assert.Equal(t, "Ana Garcia", recs[0].DisplayName)
}

func TestProcessUploadSkipsAndReports(t *testing.T) {
	svc, st := newTestUploadService(t)

	csv := "Employee,Date,Sales,Clocked Hours\n" +
		"Ana Garcia,2026-08-17,250,8\n" +
		",2026-08-17,100,8\n" +
		"Ana Garcia,2026-08-18,50,2\n" +
		"Total Stranger,2026-08-17,75,8\n"

	result, err := svc.ProcessUpload(context.Background(), "report.csv", []byte(csv), nil)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Merged)
	assert.Equal(t, 3, result.Skipped)
	assert.Contains(t, result.SkippedPreview, "(blank)")
	assert.Contains(t, result.SkippedPreview, "Ana Garcia")
	assert.Contains(t, result.SkippedPreview, "Total Stranger")
	assert.Equal(t, 1, st.HistoryLen())
}

func TestProcessUploadUnknownEntityWithValidHintKept(t *testing.T) {
	svc, st := newTestUploadService(t)

	csv := "Employee,Date,Sales,Team\n" +
		"New Hire,2026-08-17,100,Team Alpha\n"

	result, err := svc.ProcessUpload(context.Background(), "report.csv", []byte(csv), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Merged)
	require.Len(t, st.ByEntity("new hire"), 1)
}

func TestProcessUploadRejectsBadFiles(t *testing.T) {
	svc, _ := newTestUploadService(t)
	ctx := context.Background()

	t.Run("xls", func(t *testing.T) {
		_, err := svc.ProcessUpload(ctx, "old.xls", []byte("x"), nil)
		var unsupported *ingest.UnsupportedFormatError
		assert.ErrorAs(t, err, &unsupported)
	})

	t.Run("no identity column", func(t *testing.T) {
		_, err := svc.ProcessUpload(ctx, "r.csv", []byte("Date,Sales\n2026-08-17,1\n"), nil)
		var missing *ingest.MissingRequiredFieldError
		assert.ErrorAs(t, err, &missing)
	})

	t.Run("nothing commits on rejection", func(t *testing.T) {
		svc, st := newTestUploadService(t)
		_, err := svc.ProcessUpload(ctx, "r.csv", []byte("Date,Sales\n2026-08-17,1\n"), nil)
		require.Error(t, err)
		assert.Zero(t, st.HistoryLen())
	})
}

func TestProcessUploadReplayIsIdempotent(t *testing.T) {
	svc, st := newTestUploadService(t)
	ctx := context.Background()

	csv := "Employee,Date,Sales\nAna Garcia,2026-08-17,100\n"

	first, err := svc.ProcessUpload(ctx, "report.csv", []byte(csv), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Merged)
	assert.Zero(t, first.Replaced)

	second, err := svc.ProcessUpload(ctx, "report.csv", []byte(csv), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, second.Replaced)
	assert.Equal(t, 1, st.HistoryLen())
}

func TestProcessUploadNewerUploadWins(t *testing.T) {
	svc, st := newTestUploadService(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 18, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }
	_, err := svc.ProcessUpload(ctx, "a.csv", []byte("Employee,Date,Sales\nAna Garcia,2026-08-17,100\n"), nil)
	require.NoError(t, err)

	svc.now = func() time.Time { return base.Add(time.Hour) }
	_, err = svc.ProcessUpload(ctx, "b.csv", []byte("Employee,Date,Sales\nAna Garcia,2026-08-17,180\n"), nil)
	require.NoError(t, err)

	recs := st.ByEntity("ana garcia")
	require.Len(t, recs, 1)
	assert.InDelta(t, 180.0, recs[0].Values[ingest.FieldSales], 1e-9)

	t.Run("stale upload does not clobber", func(t *testing.T) {
		svc.now = func() time.Time { return base.Add(-time.Hour) }
		res, err := svc.ProcessUpload(ctx, "c.csv", []byte("Employee,Date,Sales\nAna Garcia,2026-08-17,1\n"), nil)
		require.NoError(t, err)
		assert.Zero(t, res.Merged)
		recs := st.ByEntity("ana garcia")
		assert.InDelta(t, 180.0, recs[0].Values[ingest.FieldSales], 1e-9)
	})
}

func TestProcessUploadPeriodStamping(t *testing.T) {
	svc, st := newTestUploadService(t)
	ctx := context.Background()

	t.Run("explicit window stamps dateless rows", func(t *testing.T) {
		win := period.Custom(
			time.Date(2026, 8, 11, 0, 0, 0, 0, time.UTC),
			time.Date(2026, 8, 17, 0, 0, 0, 0, time.UTC),
		)
		_, err := svc.ProcessUpload(ctx, "r.csv", []byte("Employee,Sales\nAna Garcia,100\n"), &win)
		require.NoError(t, err)

		recs := st.ByEntity("ana garcia")
		require.Len(t, recs, 1)
		assert.True(t, recs[0].PeriodStart.Equal(win.From))
		assert.True(t, recs[0].PeriodEnd.Equal(time.Date(2026, 8, 17, 0, 0, 0, 0, time.UTC)))
	})

	t.Run("row date range wins over window", func(t *testing.T) {
		win := period.Custom(
			time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2026, 1, 7, 0, 0, 0, 0, time.UTC),
		)
		_, err := svc.ProcessUpload(ctx, "r.csv",
			[]byte("Employee,Date,Sales\nBea Lopez,2026-08-11 - 2026-08-17,700\n"), &win)
		require.NoError(t, err)

		recs := st.ByEntity("bea lopez")
		require.Len(t, recs, 1)
		assert.True(t, recs[0].PeriodStart.Equal(time.Date(2026, 8, 11, 0, 0, 0, 0, time.UTC)))
		assert.True(t, recs[0].PeriodEnd.Equal(time.Date(2026, 8, 17, 0, 0, 0, 0, time.UTC)))
	})
}
