package httpapi

import "net/http"

// NewMux wires every handler. The caller wraps it with Chain and owns
// the http.Server, so shutdown stays in main.
func NewMux(d Deps) *http.ServeMux {
	mux := http.NewServeMux()

	// Records
	rh := RecordsHandler{Store: d.Store}
	mux.HandleFunc("/records", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: rh.List,
	}))
	mux.HandleFunc("/records/counts", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: rh.Counts,
	}))
	mux.HandleFunc("/records/", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: rh.GetByPath, // expects /records/{dedup_group_id}
	}))

	// Runs
	runh := RunsHandler{CfgVal: d.CfgVal, RunStatus: d.RunStatus, Run: d.RunPipeline}
	mux.HandleFunc("/runs", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: runh.Start,
	}))
	mux.HandleFunc("/runs/status", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: runh.Status,
	}))

	// Config
	ch := ConfigHandler{CfgVal: d.CfgVal, CfgPath: d.CfgPath}
	mux.HandleFunc("/config", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Get,
		http.MethodPut: ch.Put,
	}))
	mux.HandleFunc("/config/path", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Path,
	}))
	mux.HandleFunc("/config/validate", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Validate,
	}))

	// Secrets (read the live CfgVal, never a snapshot)
	sh := SecretsHandler{CfgVal: d.CfgVal}
	mux.HandleFunc("/secrets/imap", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: sh.SetIMAPPassword,
	}))
	mux.HandleFunc("/secrets/anthropic", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: sh.SetAnthropicKey,
	}))

	// SSE events
	eh := EventsHandler{Hub: d.Hub}
	mux.HandleFunc("/events", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: eh.ServeSSE,
	}))

	// Metrics
	mh := MetricsHandler{Metrics: d.Metrics}
	mux.HandleFunc("/metrics", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: mh.Get,
	}))

	// Maintenance
	mnt := MaintenanceHandler{Store: d.Store, CfgVal: d.CfgVal}
	mux.HandleFunc("/db/cleanup", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: mnt.Cleanup,
	}))

	mux.HandleFunc("/healthz", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: HealthHandler{}.Health,
	}))

	return mux
}
