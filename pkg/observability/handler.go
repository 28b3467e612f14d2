package observability

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/switchyard/pkg/domain"
)

// PlanSource yields the currently committed plan, or nil before the first
// planning pass. The Bin's Plan method satisfies it.
type PlanSource func() *domain.Plan

// NewHandler builds the introspection surface: GET /health, GET /graph
// (the committed plan as JSON) and GET /metrics. A nil gatherer falls back
// to the default registry.
func NewHandler(plans PlanSource, gatherer prometheus.Gatherer) http.Handler {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	r.Get("/graph", func(w http.ResponseWriter, _ *http.Request) {
		plan := plans()
		if plan == nil {
			http.Error(w, "no plan committed", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(plan); err != nil {
			slog.Error("graph response encode failed", "error", err)
		}
	})

	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	return r
}
