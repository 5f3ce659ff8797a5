package http

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cwhub/internal/config"
	"cwhub/internal/roster"
	"cwhub/internal/services"
	"cwhub/internal/store"
	"cwhub/pkg/contracts/domain"
)

func newTestServer(t *testing.T) (http.Handler, *store.Store) {
	t.Helper()

	st, err := store.Open(":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	r := roster.New([]domain.Chatter{
		{FullName: "Ana Garcia", Team: "Alpha", Status: domain.ChatterStatusActive},
		{FullName: "Bea Lopez", Team: "Bravo", Status: domain.ChatterStatusActive},
	})
	cfg := config.Default()

	handler := NewRouter(Deps{
		Uploads:     services.NewUploadService(st, r, cfg.Pipeline, nil),
		Reports:     services.NewReportService(st, r, cfg.Pipeline.TrendMetric, nil),
		Assignments: services.NewAssignmentService(st, r, nil),
		Store:       st,
		Server:      cfg.Server,
	})
	return handler, st
}

func multipartUpload(t *testing.T, fileName, content string, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", fileName)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())
	return &body, w.FormDataContentType()
}

func doUpload(t *testing.T, handler http.Handler, fileName, content string) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartUpload(t, fileName, content, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/uploads", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestUploadEndpoint(t *testing.T) {
	handler, st := newTestServer(t)

	t.Run("accepts csv and reports merge", func(t *testing.T) {
		rec := doUpload(t, handler, "report.csv",
			"Employee,Date,Sales,Clocked Hours\nAna Garcia,2026-08-17,250,8\n")
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var result domain.UploadResult
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
		assert.Equal(t, 1, result.Merged)
		assert.NotEmpty(t, result.UploadID)
		assert.Equal(t, 1, st.HistoryLen())
	})

	t.Run("rejects xls with 422", func(t *testing.T) {
		rec := doUpload(t, handler, "legacy.xls", "junk")
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, rec.Body.String(), "UPLOAD_REJECTED")
		assert.Contains(t, rec.Body.String(), ".xlsx or .csv")
	})

	t.Run("rejects missing file part", func(t *testing.T) {
		var body bytes.Buffer
		w := multipart.NewWriter(&body)
		require.NoError(t, w.WriteField("note", "no file here"))
		require.NoError(t, w.Close())

		req := httptest.NewRequest(http.MethodPost, "/api/uploads", &body)
		req.Header.Set("Content-Type", w.FormDataContentType())
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects half a window", func(t *testing.T) {
		body, contentType := multipartUpload(t, "r.csv", "Employee,Sales\nAna Garcia,1\n",
			map[string]string{"from": "2026-08-11"})
		req := httptest.NewRequest(http.MethodPost, "/api/uploads", body)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestSummariesEndpoint(t *testing.T) {
	handler, _ := newTestServer(t)

	rec := doUpload(t, handler, "report.csv",
		"Employee,Date,Sales,Clocked Hours\nAna Garcia,2026-08-17,250,8\nBea Lopez,2026-08-17,120,6\n")
	require.Equal(t, http.StatusCreated, rec.Code)

	t.Run("custom window returns both entities", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/summaries?from=2026-08-17&to=2026-08-23", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var report services.Report
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
		assert.Len(t, report.Summaries, 2)
		assert.Len(t, report.Teams, 2)
	})

	t.Run("invalid window keyword is rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/summaries?window=fortnight", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("csv export", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/summaries/export?from=2026-08-17&to=2026-08-23", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Header().Get("Content-Type"), "text/csv")
		assert.Contains(t, rec.Body.String(), "ana garcia")
	})
}

func TestOverrideEndpoints(t *testing.T) {
	handler, _ := newTestServer(t)

	rec := doUpload(t, handler, "report.csv",
		"Employee,Date,Sales,Team\nMystery Person,2026-08-17,99,Team Alpha\n")
	require.Equal(t, http.StatusCreated, rec.Code)

	t.Run("put pins a team", func(t *testing.T) {
		body := strings.NewReader(`{"display_name":"Mystery Person","team":"Bravo"}`)
		req := httptest.NewRequest(http.MethodPut, "/api/overrides/mystery%20person", body)
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var o domain.TeamOverride
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &o))
		assert.Equal(t, "Bravo", o.Team)
	})

	t.Run("validation rejects empty team", func(t *testing.T) {
		body := strings.NewReader(`{"display_name":"Mystery Person","team":""}`)
		req := httptest.NewRequest(http.MethodPut, "/api/overrides/mystery%20person", body)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("mismatched key rejected", func(t *testing.T) {
		body := strings.NewReader(`{"display_name":"Somebody Else","team":"Alpha"}`)
		req := httptest.NewRequest(http.MethodPut, "/api/overrides/mystery%20person", body)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "KEY_MISMATCH")
	})

	t.Run("assignments listing reflects override", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/assignments", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"source":"override"`)
	})

	t.Run("delete clears", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/api/overrides/mystery%20person", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)

		req = httptest.NewRequest(http.MethodDelete, "/api/overrides/mystery%20person", nil)
		rec = httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestHistoryAndHealthEndpoints(t *testing.T) {
	handler, st := newTestServer(t)

	rec := doUpload(t, handler, "report.csv", "Employee,Date,Sales\nAna Garcia,2026-08-17,250\n")
	require.Equal(t, http.StatusCreated, rec.Code)

	t.Run("healthz reports counts", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"history_records":1`)
	})

	t.Run("clear history", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/api/history", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 0, st.HistoryLen())
	})

	t.Run("metrics exposed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "cwhub_pipeline_uploads_total")
	})

	t.Run("request id issued", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	})
}
