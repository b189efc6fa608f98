package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrms/internal/domain/leave"
	"hrms/internal/platform/config"
)

func testConfig() config.Config {
	return config.Config{
		StoreDriver:       config.StoreDriverMemory,
		JWTSecret:         "journey-secret",
		Environment:       "test",
		Timezone:          "UTC",
		SeedAdminEmail:    "admin@example.com",
		SeedAdminPassword: "admin-password",
		MaxBodyBytes:      1 << 20,
		OvertimeThreshold: 8,
		HalfDayThreshold:  5,
		LateAfter:         "09:30",
		ReconcileInterval: time.Minute,
		CronSecret:        "cron-secret",
		MetricsEnabled:    true,
	}
}

type client struct {
	t      *testing.T
	router http.Handler
}

func (c client) do(method, path, token, body string, headers ...string) *httptest.ResponseRecorder {
	c.t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	c.router.ServeHTTP(rec, req)
	return rec
}

func (c client) data(rec *httptest.ResponseRecorder, dst any) {
	c.t.Helper()
	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(c.t, json.Unmarshal(rec.Body.Bytes(), &envelope), rec.Body.String())
	require.True(c.t, envelope.Success, rec.Body.String())
	require.NoError(c.t, json.Unmarshal(envelope.Data, dst))
}

func (c client) login(email, password string) string {
	c.t.Helper()
	rec := c.do(http.MethodPost, "/api/v1/auth/login", "", fmt.Sprintf(`{"email":%q,"password":%q}`, email, password))
	require.Equal(c.t, http.StatusOK, rec.Code, rec.Body.String())
	var result struct {
		Token string `json:"token"`
	}
	c.data(rec, &result)
	return result.Token
}

func (c client) createEmployee(token, body string) string {
	c.t.Helper()
	rec := c.do(http.MethodPost, "/api/v1/employees", token, body)
	require.Equal(c.t, http.StatusCreated, rec.Code, rec.Body.String())
	var result map[string]string
	c.data(rec, &result)
	return result["id"]
}

func newTestApp(t *testing.T) (*App, client) {
	t.Helper()
	app, err := New(context.Background(), testConfig(), slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(app.Close)
	return app, client{t: t, router: app.Router}
}

func TestLeaveJourney(t *testing.T) {
	_, c := newTestApp(t)
	admin := c.login("admin@example.com", "admin-password")

	managerID := c.createEmployee(admin, `{"firstName":"Mia","email":"mia@example.com","joiningDate":"2020-01-01","role":"manager","password":"manager-pass"}`)
	c.createEmployee(admin, fmt.Sprintf(`{"firstName":"Ray","email":"ray@example.com","joiningDate":"2020-01-01","managerId":%q,"password":"report-pass"}`, managerID))

	manager := c.login("mia@example.com", "manager-pass")
	report := c.login("ray@example.com", "report-pass")

	year := time.Now().Year() + 1
	rec := c.do(http.MethodPost, "/api/v1/leave/requests", report,
		fmt.Sprintf(`{"leaveType":"pto","startDate":"%d-01-10","endDate":"%d-01-12","reason":"ski trip"}`, year, year))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created leave.Request
	c.data(rec, &created)
	assert.Equal(t, 3, created.TotalDays)

	rec = c.do(http.MethodPost, "/api/v1/leave/requests/"+created.ID+"/approve", manager, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = c.do(http.MethodGet, fmt.Sprintf("/api/v1/leave/balances?year=%d", year), report, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var balances []leave.Entitlement
	c.data(rec, &balances)
	require.NotEmpty(t, balances)
	assert.Equal(t, leave.TypePTO, balances[0].LeaveType)
	assert.Equal(t, 3.0, balances[0].Used)
	assert.Equal(t, 9.0, balances[0].Available)

	rec = c.do(http.MethodPost, "/api/v1/employees", report, `{"firstName":"X","email":"x@example.com","joiningDate":"2020-01-01"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = c.do(http.MethodGet, "/api/v1/audit/events?entityId="+created.ID, admin, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("X-Total-Count"))
	assert.Equal(t, http.StatusForbidden, c.do(http.MethodGet, "/api/v1/audit/events", manager, "").Code)
}

func TestAttendanceAndCron(t *testing.T) {
	app, c := newTestApp(t)
	admin := c.login("admin@example.com", "admin-password")
	c.createEmployee(admin, `{"firstName":"Ray","email":"ray@example.com","joiningDate":"2020-01-01","password":"report-pass"}`)
	report := c.login("ray@example.com", "report-pass")

	rec := c.do(http.MethodPost, "/api/v1/attendance/check-in", report, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, http.StatusOK, c.do(http.MethodGet, "/api/v1/attendance/today", report, "").Code)

	assert.Equal(t, http.StatusUnauthorized, c.do(http.MethodPost, "/api/v1/cron/attendance", "", "").Code)
	rec = c.do(http.MethodPost, "/api/v1/cron/attendance", "", "", "X-Cron-Secret", "cron-secret")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"mode"`)

	rec = c.do(http.MethodGet, "/metrics", admin, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"reconcile"`)
	assert.Equal(t, http.StatusForbidden, c.do(http.MethodGet, "/metrics", report, "").Code)

	assert.NotNil(t, app.Reconciler)
}

func TestRoutesRequireAuthentication(t *testing.T) {
	_, c := newTestApp(t)

	assert.Equal(t, http.StatusOK, c.do(http.MethodGet, "/healthz", "", "").Code)
	assert.Equal(t, http.StatusOK, c.do(http.MethodGet, "/readyz", "", "").Code)
	assert.Equal(t, http.StatusUnauthorized, c.do(http.MethodGet, "/api/v1/leave/balances", "", "").Code)
	assert.Equal(t, http.StatusUnauthorized, c.do(http.MethodGet, "/api/v1/me", "not-a-token", "").Code)

	rec := c.do(http.MethodGet, "/api/v1/me", "", "")
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestNewRejectsBadPolicy(t *testing.T) {
	cfg := testConfig()
	cfg.LeavePolicy = "pto=lots"
	_, err := New(context.Background(), cfg, nil)
	require.Error(t, err)

	cfg = testConfig()
	cfg.LateAfter = "9am"
	_, err = New(context.Background(), cfg, nil)
	require.Error(t, err)
}
