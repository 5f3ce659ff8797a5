package http

import (
	"net/http"

	"github.com/go-chi/render"

	"cwhub/internal/store"
)

type healthHandler struct {
	store *store.Store
}

func newHealthHandler(st *store.Store) *healthHandler {
	return &healthHandler{store: st}
}

// Check reports liveness plus the store's record counts, enough for a
// probe to tell an empty deployment from a broken one.
func (h *healthHandler) Check(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]interface{}{
		"status":          "ok",
		"history_records": h.store.HistoryLen(),
		"overrides":       len(h.store.Overrides()),
	})
}
