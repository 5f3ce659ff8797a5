package http

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"

	apierrors "cwhub/internal/errors"
	"cwhub/internal/ingest"
	"cwhub/internal/period"
	"cwhub/internal/services"
)

const uploadMemoryLimit = 1 << 20

type uploadHandler struct {
	service *services.UploadService
	logger  *slog.Logger
}

func newUploadHandler(service *services.UploadService, logger *slog.Logger) *uploadHandler {
	return &uploadHandler{
		service: service,
		logger:  logger.With(slog.String("component", "upload_handler")),
	}
}

// Create ingests one multipart upload. The file goes in the "file" part;
// optional "from" and "to" form fields (2006-01-02) pin the period for
// rows that carry no date of their own.
func (h *uploadHandler) Create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(uploadMemoryLimit); err != nil {
		render.Render(w, r, apierrors.InvalidRequestWithError(err))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		render.Render(w, r, apierrors.New(http.StatusBadRequest, "MISSING_FILE", "multipart field 'file' is required"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		render.Render(w, r, apierrors.InvalidRequestWithError(err))
		return
	}

	win, apiErr := formWindow(r)
	if apiErr != nil {
		render.Render(w, r, apiErr)
		return
	}

	result, err := h.service.ProcessUpload(r.Context(), header.Filename, data, win)
	if err != nil {
		render.Render(w, r, mapUploadError(err))
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, result)
}

// formWindow reads the optional from/to form fields. Both or neither must
// be present.
func formWindow(r *http.Request) (*period.Window, *apierrors.APIError) {
	fromStr := r.FormValue("from")
	toStr := r.FormValue("to")
	if fromStr == "" && toStr == "" {
		return nil, nil
	}
	if fromStr == "" || toStr == "" {
		return nil, apierrors.New(http.StatusBadRequest, "INVALID_PERIOD", "from and to must be given together")
	}

	from, err := time.Parse("2006-01-02", fromStr)
	if err != nil {
		return nil, apierrors.NewWithDetails(http.StatusBadRequest, "INVALID_PERIOD", "invalid from date", err.Error())
	}
	to, err := time.Parse("2006-01-02", toStr)
	if err != nil {
		return nil, apierrors.NewWithDetails(http.StatusBadRequest, "INVALID_PERIOD", "invalid to date", err.Error())
	}
	if to.Before(from) {
		return nil, apierrors.New(http.StatusBadRequest, "INVALID_PERIOD", "to must not precede from")
	}

	w := period.Custom(from, to)
	return &w, nil
}

// mapUploadError turns pipeline rejections into 422s the UI can surface
// verbatim; anything else is a 500.
func mapUploadError(err error) *apierrors.APIError {
	var (
		unsupported *ingest.UnsupportedFormatError
		tooBig      *ingest.SizeLimitError
		tooMany     *ingest.RowLimitError
		empty       *ingest.EmptySheetError
		missing     *ingest.MissingRequiredFieldError
	)
	switch {
	case errors.As(err, &unsupported),
		errors.As(err, &tooBig),
		errors.As(err, &tooMany),
		errors.As(err, &empty),
		errors.As(err, &missing):
		return apierrors.UploadRejected(err)
	default:
		return apierrors.ErrInternalServer
	}
}
