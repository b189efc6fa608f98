package cronhandler

import (
	"context"
	"crypto/subtle"
	"net/http"
	"time"

	"hrms/internal/domain/attendance"
	"hrms/internal/domain/auth"
	"hrms/internal/platform/jobs"
	"hrms/internal/platform/metrics"
	"hrms/internal/requestctx"
	"hrms/internal/transport/http/api"
	"hrms/internal/transport/http/middleware"
)

const SecretHeader = "X-Cron-Secret"

type Reconciler interface {
	Reconcile(ctx context.Context, now time.Time) (attendance.Summary, error)
}

// Handler exposes the attendance sweep to an external scheduler and builds
// the run function the in-process scheduler uses.
type Handler struct {
	Reconciler Reconciler
	Jobs       *jobs.Service
	Metrics    *metrics.Collector
	Secret     string
	Now        func() time.Time
}

func NewHandler(reconciler Reconciler, jobsSvc *jobs.Service, collector *metrics.Collector, secret string, loc *time.Location) *Handler {
	if loc == nil {
		loc = time.Local
	}
	return &Handler{
		Reconciler: reconciler,
		Jobs:       jobsSvc,
		Metrics:    collector,
		Secret:     secret,
		Now:        func() time.Time { return time.Now().In(loc) },
	}
}

// Run returns a job body that sweeps at the time it is invoked.
func (h *Handler) Run() jobs.RunFunc {
	return func(ctx context.Context) (any, error) {
		return h.reconcile(ctx, h.Now())
	}
}

func (h *Handler) HandleAttendance(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "cron secret or reconcile permission required", requestctx.GetRequestID(r.Context()))
		return
	}

	now := h.Now()
	var (
		result any
		err    error
	)
	if h.Jobs != nil {
		result, err = h.Jobs.RunNow(r.Context(), jobs.JobAttendanceReconcile, func(ctx context.Context) (any, error) {
			return h.reconcile(ctx, now)
		})
	} else {
		result, err = h.reconcile(r.Context(), now)
	}
	if err != nil {
		requestctx.Logger(r.Context()).Error("attendance reconcile failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "reconcile_failed", "attendance reconciliation failed", requestctx.GetRequestID(r.Context()))
		return
	}
	api.Success(w, result, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) reconcile(ctx context.Context, now time.Time) (attendance.Summary, error) {
	summary, err := h.Reconciler.Reconcile(ctx, now)
	if h.Metrics != nil {
		h.Metrics.RecordReconcile(summary, err)
	}
	return summary, err
}

func (h *Handler) authorized(r *http.Request) bool {
	if h.Secret != "" {
		provided := r.Header.Get(SecretHeader)
		if provided != "" && subtle.ConstantTimeCompare([]byte(provided), []byte(h.Secret)) == 1 {
			return true
		}
	}
	user, ok := middleware.GetUser(r.Context())
	return ok && user.Can(auth.PermReconcileRun)
}
