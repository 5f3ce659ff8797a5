package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"

	apierrors "cwhub/internal/errors"
	"cwhub/internal/export"
	"cwhub/internal/period"
	"cwhub/internal/services"
)

type reportHandler struct {
	service *services.ReportService
	logger  *slog.Logger
	now     func() time.Time
}

func newReportHandler(service *services.ReportService, logger *slog.Logger) *reportHandler {
	return &reportHandler{
		service: service,
		logger:  logger.With(slog.String("component", "report_handler")),
		now:     time.Now,
	}
}

// Summaries returns the full report for a window: per-entity summaries
// with classifications, team rollups, and the needs-assignment bucket.
// Window selection: ?window=current (default) or previous, or explicit
// ?from=2006-01-02&to=2006-01-02.
func (h *reportHandler) Summaries(w http.ResponseWriter, r *http.Request) {
	win, apiErr := h.queryWindow(r)
	if apiErr != nil {
		render.Render(w, r, apiErr)
		return
	}
	render.JSON(w, r, h.service.Summaries(r.Context(), win))
}

// Classifications returns only the per-entity trend and tier verdicts.
func (h *reportHandler) Classifications(w http.ResponseWriter, r *http.Request) {
	win, apiErr := h.queryWindow(r)
	if apiErr != nil {
		render.Render(w, r, apiErr)
		return
	}
	render.JSON(w, r, map[string]interface{}{
		"window":          win,
		"classifications": h.service.Classifications(r.Context(), win),
	})
}

// Export streams the window's summaries as a CSV download. ?view=teams
// exports the team rollups instead.
func (h *reportHandler) Export(w http.ResponseWriter, r *http.Request) {
	win, apiErr := h.queryWindow(r)
	if apiErr != nil {
		render.Render(w, r, apiErr)
		return
	}

	report := h.service.Summaries(r.Context(), win)

	name := fmt.Sprintf("summaries_%s_%s.csv",
		win.From.Format("2006-01-02"), win.To.AddDate(0, 0, -1).Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)

	var err error
	if r.URL.Query().Get("view") == "teams" {
		err = export.WriteTeamRollups(w, report.Teams)
	} else {
		err = export.WriteSummaries(w, report.Summaries)
	}
	if err != nil {
		h.logger.ErrorContext(r.Context(), "csv export failed",
			slog.String("error", err.Error()))
	}
}

func (h *reportHandler) queryWindow(r *http.Request) (period.Window, *apierrors.APIError) {
	q := r.URL.Query()
	fromStr := q.Get("from")
	toStr := q.Get("to")

	if fromStr != "" || toStr != "" {
		if fromStr == "" || toStr == "" {
			return period.Window{}, apierrors.New(http.StatusBadRequest, "INVALID_PERIOD", "from and to must be given together")
		}
		from, err := time.Parse("2006-01-02", fromStr)
		if err != nil {
			return period.Window{}, apierrors.NewWithDetails(http.StatusBadRequest, "INVALID_PERIOD", "invalid from date", err.Error())
		}
		to, err := time.Parse("2006-01-02", toStr)
		if err != nil {
			return period.Window{}, apierrors.NewWithDetails(http.StatusBadRequest, "INVALID_PERIOD", "invalid to date", err.Error())
		}
		if to.Before(from) {
			return period.Window{}, apierrors.New(http.StatusBadRequest, "INVALID_PERIOD", "to must not precede from")
		}
		return period.Custom(from, to), nil
	}

	switch q.Get("window") {
	case "", "current":
		return period.CurrentWeek(h.now()), nil
	case "previous":
		return period.PreviousWeek(h.now()), nil
	default:
		return period.Window{}, apierrors.New(http.StatusBadRequest, "INVALID_PERIOD", "window must be current or previous")
	}
}
