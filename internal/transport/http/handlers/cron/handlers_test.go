package cronhandler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrms/internal/domain/attendance"
	"hrms/internal/domain/auth"
	"hrms/internal/platform/jobs"
	"hrms/internal/platform/metrics"
	"hrms/internal/transport/http/middleware"
)

type stubReconciler struct {
	calls   []time.Time
	summary attendance.Summary
	err     error
}

func (s *stubReconciler) Reconcile(_ context.Context, now time.Time) (attendance.Summary, error) {
	s.calls = append(s.calls, now)
	return s.summary, s.err
}

var sweepTime = time.Date(2024, time.March, 6, 23, 40, 0, 0, time.UTC)

func newCronHandler(stub *stubReconciler) (*Handler, *metrics.Collector) {
	collector := metrics.New()
	h := NewHandler(stub, jobs.New(nil), collector, "s3cret", time.UTC)
	h.Now = func() time.Time { return sweepTime }
	return h, collector
}

func call(h *Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	middleware.RequestID(http.HandlerFunc(h.HandleAttendance)).ServeHTTP(rec, req)
	return rec
}

func TestCronRequiresSecretOrPermission(t *testing.T) {
	stub := &stubReconciler{summary: attendance.Summary{Mode: attendance.ModeReminder}}
	h, _ := newCronHandler(stub)

	anonymous := httptest.NewRequest(http.MethodPost, "/api/v1/cron/attendance", nil)
	assert.Equal(t, http.StatusUnauthorized, call(h, anonymous).Code)

	wrong := httptest.NewRequest(http.MethodPost, "/api/v1/cron/attendance", nil)
	wrong.Header.Set(SecretHeader, "guess")
	assert.Equal(t, http.StatusUnauthorized, call(h, wrong).Code)

	employee := httptest.NewRequest(http.MethodPost, "/api/v1/cron/attendance", nil)
	employee = employee.WithContext(middleware.WithUser(employee.Context(), auth.UserContext{UserID: "u1", Role: auth.RoleEmployee}))
	assert.Equal(t, http.StatusUnauthorized, call(h, employee).Code)
	assert.Empty(t, stub.calls)

	hr := httptest.NewRequest(http.MethodPost, "/api/v1/cron/attendance", nil)
	hr = hr.WithContext(middleware.WithUser(hr.Context(), auth.UserContext{UserID: "u2", Role: auth.RoleHR}))
	assert.Equal(t, http.StatusOK, call(h, hr).Code)

	secret := httptest.NewRequest(http.MethodPost, "/api/v1/cron/attendance", nil)
	secret.Header.Set(SecretHeader, "s3cret")
	assert.Equal(t, http.StatusOK, call(h, secret).Code)
	assert.Equal(t, []time.Time{sweepTime, sweepTime}, stub.calls)
}

func TestCronReturnsSummaryAndRecordsMetrics(t *testing.T) {
	stub := &stubReconciler{summary: attendance.Summary{
		Mode:          attendance.ModeReminder,
		Processed:     3,
		RemindersSent: 2,
		Failed:        1,
	}}
	h, collector := newCronHandler(stub)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cron/attendance", nil)
	req.Header.Set(SecretHeader, "s3cret")
	rec := call(h, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data attendance.Summary `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, 2, envelope.Data.RemindersSent)
	assert.Equal(t, 1, envelope.Data.Failed)

	reconcile := collector.Snapshot()["reconcile"].(map[string]any)
	assert.Equal(t, uint64(1), reconcile["runsTotal"])
	assert.Equal(t, uint64(2), reconcile["remindersSentTotal"])
}

func TestCronFailure(t *testing.T) {
	stub := &stubReconciler{err: errors.New("directory down")}
	h, collector := newCronHandler(stub)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cron/attendance", nil)
	req.Header.Set(SecretHeader, "s3cret")
	assert.Equal(t, http.StatusInternalServerError, call(h, req).Code)

	reconcile := collector.Snapshot()["reconcile"].(map[string]any)
	assert.Equal(t, uint64(1), reconcile["failedRunsTotal"])
}

func TestRunUsesCurrentTime(t *testing.T) {
	stub := &stubReconciler{summary: attendance.Summary{Mode: attendance.ModeNone, Message: "not scheduled time"}}
	h, _ := newCronHandler(stub)

	result, err := h.Run()(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "not scheduled time", result.(attendance.Summary).Message)
	assert.Equal(t, []time.Time{sweepTime}, stub.calls)
}
