package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tcc/restaurant-services/internal/metrics"
)

// AdminAppHandler serves the probe endpoints used to exercise the
// monitoring pipeline end to end.
type AdminAppHandler struct {
	logger *slog.Logger
	sink   metrics.Sink
}

func NewAdminAppHandler(logger *slog.Logger, sink metrics.Sink) *AdminAppHandler {
	return &AdminAppHandler{
		logger: logger.With(slog.String("handler", "adminapp")),
		sink:   sink,
	}
}

func (h *AdminAppHandler) Init(r chi.Router) {
	r.Route("/admin-app-2", func(r chi.Router) {
		r.Get("/custom-healthcheck", h.Healthcheck)
		r.Get("/custom-metrics", h.Metrics)
		r.Get("/custom-info", h.Info)
	})
}

func (h *AdminAppHandler) Healthcheck(w http.ResponseWriter, r *http.Request) {
	writeText(w, "Custom healthcheck: OK")
}

func (h *AdminAppHandler) Metrics(w http.ResponseWriter, r *http.Request) {
	h.sink.Inc("custom_metrics_accessed_total", nil, 1)
	writeText(w, "Custom metrics recorded")
}

func (h *AdminAppHandler) Info(w http.ResponseWriter, r *http.Request) {
	writeText(w, "Custom info endpoint")
}

func writeText(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(body))
}
