package httpapi

import (
	"encoding/json"
	"net/http"
	"path/filepath"
	"sync/atomic"

	"github.com/NirajanKhadka/JobQst-sub000/internal/config"
)

type ConfigHandler struct {
	CfgVal  *atomic.Value // stores config.Config
	CfgPath string
}

func (h ConfigHandler) Get(w http.ResponseWriter, r *http.Request) {
	cur := h.CfgVal.Load().(config.Config)
	WriteJSON(w, http.StatusOK, cur)
}

// Put validates, saves and swaps in the new config. Validation errors
// come back structured so a client can show them next to the fields.
func (h ConfigHandler) Put(w http.ResponseWriter, r *http.Request) {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var incoming config.Config
	if err := dec.Decode(&incoming); err != nil {
		WriteError(w, r, http.StatusBadRequest, "bad_json", "invalid JSON: "+err.Error())
		return
	}
	if dec.More() {
		WriteError(w, r, http.StatusBadRequest, "bad_json", "invalid JSON: trailing data")
		return
	}

	normalized, vr := config.NormalizeAndValidate(incoming)
	if !vr.OK() {
		WriteJSON(w, http.StatusBadRequest, vr)
		return
	}

	// The raw config is saved, not the normalized copy, so empty
	// "use the default" fields stay empty in the file.
	if err := config.SaveAtomic(h.CfgPath, incoming); err != nil {
		WriteError(w, r, http.StatusInternalServerError, "save_failed", err.Error())
		return
	}

	h.CfgVal.Store(normalized)
	WriteJSON(w, http.StatusOK, normalized)
}

func (h ConfigHandler) Path(w http.ResponseWriter, r *http.Request) {
	abs, _ := filepath.Abs(h.CfgPath)
	WriteJSON(w, http.StatusOK, map[string]any{"path": abs})
}

// Validate re-checks the active config and reports errors and warnings
// without changing anything.
func (h ConfigHandler) Validate(w http.ResponseWriter, r *http.Request) {
	cur := h.CfgVal.Load().(config.Config)
	_, vr := config.NormalizeAndValidate(cur)
	WriteJSON(w, http.StatusOK, vr)
}
