package httpapi

import (
	"net/http"

	"github.com/NirajanKhadka/JobQst-sub000/internal/pipeline"
)

type MetricsHandler struct {
	Metrics *pipeline.Metrics
}

func (h MetricsHandler) Get(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.Metrics.Snapshot())
}
