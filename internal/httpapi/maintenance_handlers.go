package httpapi

import (
	"net"
	"net/http"
	"sync/atomic"

	"github.com/NirajanKhadka/JobQst-sub000/internal/config"
	"github.com/NirajanKhadka/JobQst-sub000/internal/store"
)

// MaintenanceHandler exposes the retention sweep on demand. Local
// callers only; this deletes data.
type MaintenanceHandler struct {
	Store  *store.DB
	CfgVal *atomic.Value // config.Config
}

func (h MaintenanceHandler) Cleanup(w http.ResponseWriter, r *http.Request) {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if host != "127.0.0.1" && host != "::1" && host != "localhost" {
		WriteError(w, r, http.StatusForbidden, "forbidden", "local requests only")
		return
	}

	cfg := h.CfgVal.Load().(config.Config)
	n, err := h.Store.CleanupOldRecords(r.Context(), cfg.Store.RetentionDays)
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "store_error", err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"deleted": n})
}
