package httpapi

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/NirajanKhadka/JobQst-sub000/internal/store"
)

type RecordsHandler struct {
	Store *store.DB
}

func (h RecordsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))

	recs, err := h.Store.ListRecords(r.Context(), store.ListRecordsOpts{
		Sort:   q.Get("sort"),
		Window: q.Get("window"),
		Status: q.Get("status"),
		Limit:  limit,
	})
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "store_error", err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, recs)
}

// GetByPath serves /records/{dedup_group_id}.
func (h RecordsHandler) GetByPath(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(strings.TrimPrefix(r.URL.Path, "/records/"))
	if id == "" || strings.Contains(id, "/") {
		WriteError(w, r, http.StatusBadRequest, "bad_request", "invalid record id")
		return
	}

	rec, err := h.Store.GetRecord(r.Context(), id)
	if errors.Is(err, sql.ErrNoRows) {
		WriteError(w, r, http.StatusNotFound, "not_found", "no such record")
		return
	}
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "store_error", err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, rec)
}

// Counts serves /records/counts, the per-status totals for dashboards.
func (h RecordsHandler) Counts(w http.ResponseWriter, r *http.Request) {
	counts, err := h.Store.CountByStatus(r.Context())
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "store_error", err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, counts)
}
