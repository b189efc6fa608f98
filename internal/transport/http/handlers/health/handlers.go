package healthhandler

import (
	"context"
	"net/http"
	"time"

	"hrms/internal/platform/metrics"
	"hrms/internal/requestctx"
	"hrms/internal/transport/http/api"
)

// Pinger checks the backing store. It is nil when running on in-memory
// stores.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	DB      Pinger
	Metrics *metrics.Collector
}

func NewHandler(db Pinger, collector *metrics.Collector) *Handler {
	return &Handler{DB: db, Metrics: collector}
}

func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) HandleReady(w http.ResponseWriter, r *http.Request) {
	if h.DB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.DB.Ping(ctx); err != nil {
			requestctx.Logger(r.Context()).Warn("readiness ping failed", "err", err)
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (h *Handler) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	if h.Metrics == nil {
		api.Fail(w, http.StatusNotFound, "metrics_disabled", "metrics are disabled", requestctx.GetRequestID(r.Context()))
		return
	}
	api.Success(w, h.Metrics.Snapshot(), requestctx.GetRequestID(r.Context()))
}
