package leavehandler

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"hrms/internal/domain/audit"
	"hrms/internal/domain/auth"
	"hrms/internal/domain/core"
	"hrms/internal/domain/leave"
	"hrms/internal/domain/notifications"
	"hrms/internal/requestctx"
	"hrms/internal/transport/http/api"
	"hrms/internal/transport/http/middleware"
	"hrms/internal/transport/http/shared"
)

// Employees is the slice of the employee store the leave routes need.
type Employees interface {
	GetEmployee(ctx context.Context, employeeID string) (*core.Employee, error)
	IsManagerOf(ctx context.Context, managerEmployeeID, employeeID string) (bool, error)
}

type Notifier interface {
	LeaveUpdate(ctx context.Context, ntype string, req leave.Request)
}

type Handler struct {
	Ledger    *leave.Ledger
	Employees Employees
	Notify    Notifier
	Audit     shared.Auditor
	Now       func() time.Time
}

func NewHandler(ledger *leave.Ledger, employees Employees, notify Notifier) *Handler {
	return &Handler{Ledger: ledger, Employees: employees, Notify: notify, Now: time.Now}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/leave", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermLeaveRead)).Get("/balances", h.handleListBalances)
		r.With(middleware.RequirePermission(auth.PermLeaveRead)).Get("/balances/statement", h.handleStatement)
		r.With(middleware.RequirePermission(auth.PermLeaveAdmin)).Post("/balances/recompute", h.handleRecompute)
		r.With(middleware.RequirePermission(auth.PermLeaveRead)).Get("/overlaps", h.handleOverlaps)
		r.With(middleware.RequirePermission(auth.PermLeaveRead)).Get("/requests", h.handleListRequests)
		r.With(middleware.RequirePermission(auth.PermLeaveWrite)).Post("/requests", h.handleCreateRequest)
		r.With(middleware.RequirePermission(auth.PermLeaveRead)).Get("/requests/{requestID}", h.handleGetRequest)
		r.With(middleware.RequirePermission(auth.PermLeaveApprove)).Post("/requests/{requestID}/approve", h.handleApproveRequest)
		r.With(middleware.RequirePermission(auth.PermLeaveApprove)).Post("/requests/{requestID}/reject", h.handleRejectRequest)
		r.With(middleware.RequirePermission(auth.PermLeaveWrite)).Post("/requests/{requestID}/cancel", h.handleCancelRequest)
		r.With(middleware.RequirePermission(auth.PermLeaveAdmin)).Put("/requests/{requestID}/status", h.handleOverrideStatus)
	})
}

func (h *Handler) handleListBalances(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	employeeID, year, ok := h.employeeAndYear(w, r, user)
	if !ok {
		return
	}
	balances, err := h.Ledger.Balances(r.Context(), employeeID, year, h.Now())
	if err != nil {
		shared.WriteError(w, r, err, "leave_balances_failed")
		return
	}
	api.Success(w, balances, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) handleStatement(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	employeeID, year, ok := h.employeeAndYear(w, r, user)
	if !ok {
		return
	}
	emp, err := h.Employees.GetEmployee(r.Context(), employeeID)
	if err != nil {
		shared.WriteError(w, r, err, "leave_statement_failed")
		return
	}
	now := h.Now()
	balances, err := h.Ledger.Balances(r.Context(), employeeID, year, now)
	if err != nil {
		shared.WriteError(w, r, err, "leave_statement_failed")
		return
	}

	var buf bytes.Buffer
	if err := leave.WriteStatement(&buf, *emp, year, balances, now); err != nil {
		shared.WriteError(w, r, err, "leave_statement_failed")
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=leave-statement-%d.pdf", year))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

type recomputeRequest struct {
	EmployeeID string `json:"employeeId"`
	LeaveType  string `json:"leaveType"`
	Year       int    `json:"year"`
}

func (h *Handler) handleRecompute(w http.ResponseWriter, r *http.Request) {
	var payload recomputeRequest
	if !shared.DecodeJSON(w, r, &payload) {
		return
	}
	now := h.Now()
	if payload.Year == 0 {
		payload.Year = now.Year()
	}
	v := shared.NewValidator()
	v.Required("employeeId", payload.EmployeeID, "is required")
	if !shared.ValidYear(payload.Year) {
		v.Add("year", "must be a valid year")
	}
	leaveType, err := leave.ParseLeaveType(payload.LeaveType)
	if err != nil {
		v.Add("leaveType", "must be a known leave type")
	}
	if v.Reject(w, requestctx.GetRequestID(r.Context())) {
		return
	}

	ent, err := h.Ledger.RecomputeBalance(r.Context(), payload.EmployeeID, leaveType, payload.Year, now)
	if err != nil {
		shared.WriteError(w, r, err, "leave_recompute_failed")
		return
	}
	shared.Audit(r, h.Audit, audit.ActionLeaveRecompute, "leave_entitlement", ent.ID, nil, ent)
	api.Success(w, ent, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) handleOverlaps(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	query := r.URL.Query()
	employeeID := targetEmployee(query.Get("employeeId"), user)

	v := shared.NewValidator()
	v.Required("employeeId", employeeID, "is required")
	start, _ := v.Date("startDate", query.Get("startDate"))
	end, _ := v.Date("endDate", query.Get("endDate"))
	v.DateOrder("startDate", start, "endDate", end)
	if v.Reject(w, requestctx.GetRequestID(r.Context())) {
		return
	}
	if !h.authorize(w, r, user, employeeID) {
		return
	}

	existing, err := h.Ledger.FindOverlapping(r.Context(), employeeID, start, end, query.Get("excludeId"))
	if err != nil {
		shared.WriteError(w, r, err, "leave_overlap_failed")
		return
	}
	api.Success(w, map[string]any{"overlapping": existing}, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) handleListRequests(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	query := r.URL.Query()
	page := shared.ParsePagination(r, 50, 200)

	filter := leave.RequestFilter{
		EmployeeID: query.Get("employeeId"),
		LeaveType:  leave.LeaveType(strings.ToLower(query.Get("leaveType"))),
		Limit:      page.Limit,
		Offset:     page.Offset,
	}
	if raw := query.Get("status"); raw != "" {
		filter.Statuses = strings.Split(raw, ",")
	}
	year, ok := shared.ParseYear(query.Get("year"), 0)
	if !ok {
		shared.FailValidation(w, requestctx.GetRequestID(r.Context()), []shared.ValidationIssue{{Field: "year", Reason: "must be a valid year"}})
		return
	}
	filter.Year = year

	if !auth.CanActForOthers(user.Role) {
		// Managers may list a report's requests; everyone else sees only their own.
		if filter.EmployeeID == "" {
			filter.EmployeeID = user.EmployeeID
		}
		if !h.authorize(w, r, user, filter.EmployeeID) {
			return
		}
	}

	requests, err := h.Ledger.ListRequests(r.Context(), filter)
	if err != nil {
		shared.WriteError(w, r, err, "leave_requests_failed")
		return
	}
	api.Success(w, requests, requestctx.GetRequestID(r.Context()))
}

type createLeaveRequest struct {
	EmployeeID string `json:"employeeId"`
	LeaveType  string `json:"leaveType"`
	StartDate  string `json:"startDate"`
	EndDate    string `json:"endDate"`
	Reason     string `json:"reason"`
}

func (h *Handler) handleCreateRequest(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	var payload createLeaveRequest
	if !shared.DecodeJSON(w, r, &payload) {
		return
	}

	employeeID := targetEmployee(payload.EmployeeID, user)
	v := shared.NewValidator()
	v.Required("employeeId", employeeID, "is required")
	leaveType, err := leave.ParseLeaveType(payload.LeaveType)
	if err != nil {
		v.Add("leaveType", "must be a known leave type")
	}
	start, _ := v.Date("startDate", payload.StartDate)
	end, _ := v.Date("endDate", payload.EndDate)
	v.DateOrder("startDate", start, "endDate", end)
	if v.Reject(w, requestctx.GetRequestID(r.Context())) {
		return
	}
	if employeeID != user.EmployeeID && !auth.CanActForOthers(user.Role) {
		api.Fail(w, http.StatusForbidden, "forbidden", "cannot request leave for another employee", requestctx.GetRequestID(r.Context()))
		return
	}

	created, err := h.Ledger.CreateRequest(r.Context(), leave.CreateRequestInput{
		EmployeeID: employeeID,
		LeaveType:  leaveType,
		StartDate:  start,
		EndDate:    end,
		Reason:     payload.Reason,
	}, h.Now())
	if err != nil {
		shared.WriteError(w, r, err, "leave_request_failed")
		return
	}
	h.notify(r.Context(), notifications.TypeLeaveSubmitted, created)
	api.Created(w, created, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	req, err := h.Ledger.GetRequest(r.Context(), chi.URLParam(r, "requestID"))
	if err != nil {
		shared.WriteError(w, r, err, "leave_request_failed")
		return
	}
	if !h.authorize(w, r, user, req.EmployeeID) {
		return
	}
	api.Success(w, req, requestctx.GetRequestID(r.Context()))
}

type decisionRequest struct {
	Reason string `json:"reason"`
}

func (h *Handler) handleApproveRequest(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	req, ok := h.decidable(w, r, user)
	if !ok {
		return
	}
	updated, err := h.Ledger.ApproveRequest(r.Context(), req.ID, user.UserID, h.Now())
	if err != nil {
		shared.WriteError(w, r, err, "leave_approve_failed")
		return
	}
	shared.Audit(r, h.Audit, audit.ActionLeaveApprove, "leave_request", updated.ID, req, updated)
	h.notify(r.Context(), notifications.TypeLeaveApproved, updated)
	api.Success(w, updated, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) handleRejectRequest(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	var payload decisionRequest
	if r.ContentLength != 0 && !shared.DecodeJSON(w, r, &payload) {
		return
	}
	req, ok := h.decidable(w, r, user)
	if !ok {
		return
	}
	updated, err := h.Ledger.RejectRequest(r.Context(), req.ID, user.UserID, payload.Reason, h.Now())
	if err != nil {
		shared.WriteError(w, r, err, "leave_reject_failed")
		return
	}
	shared.Audit(r, h.Audit, audit.ActionLeaveReject, "leave_request", updated.ID, req, updated)
	h.notify(r.Context(), notifications.TypeLeaveRejected, updated)
	api.Success(w, updated, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) handleCancelRequest(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	updated, err := h.Ledger.CancelRequest(r.Context(), chi.URLParam(r, "requestID"), user.EmployeeID, h.Now())
	if err != nil {
		shared.WriteError(w, r, err, "leave_cancel_failed")
		return
	}
	shared.Audit(r, h.Audit, audit.ActionLeaveCancel, "leave_request", updated.ID, nil, updated)
	h.notify(r.Context(), notifications.TypeLeaveCancelled, updated)
	api.Success(w, updated, requestctx.GetRequestID(r.Context()))
}

type overrideRequest struct {
	Status string `json:"status"`
}

func (h *Handler) handleOverrideStatus(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	var payload overrideRequest
	if !shared.DecodeJSON(w, r, &payload) {
		return
	}
	v := shared.NewValidator()
	v.Required("status", payload.Status, "is required")
	if v.Reject(w, requestctx.GetRequestID(r.Context())) {
		return
	}

	updated, err := h.Ledger.OverrideStatus(r.Context(), chi.URLParam(r, "requestID"), strings.ToLower(payload.Status), user.UserID, h.Now())
	if err != nil {
		shared.WriteError(w, r, err, "leave_override_failed")
		return
	}
	shared.Audit(r, h.Audit, audit.ActionLeaveOverride, "leave_request", updated.ID, nil, updated)
	requestctx.Logger(r.Context()).Info("leave status overridden", "requestId", updated.ID, "status", updated.Status, "actor", user.UserID)
	api.Success(w, updated, requestctx.GetRequestID(r.Context()))
}

// decidable loads the request and checks the caller may approve or reject
// it: hr and admin always, managers only for their reports, nobody for
// their own request.
func (h *Handler) decidable(w http.ResponseWriter, r *http.Request, user auth.UserContext) (*leave.Request, bool) {
	req, err := h.Ledger.GetRequest(r.Context(), chi.URLParam(r, "requestID"))
	if err != nil {
		shared.WriteError(w, r, err, "leave_request_failed")
		return nil, false
	}
	if req.EmployeeID == user.EmployeeID {
		api.Fail(w, http.StatusForbidden, "forbidden", "cannot decide your own leave request", requestctx.GetRequestID(r.Context()))
		return nil, false
	}
	if auth.CanActForOthers(user.Role) {
		return req, true
	}
	isManager, err := h.Employees.IsManagerOf(r.Context(), user.EmployeeID, req.EmployeeID)
	if err != nil {
		shared.WriteError(w, r, err, "leave_request_failed")
		return nil, false
	}
	if !isManager {
		api.Fail(w, http.StatusForbidden, "forbidden", "not the employee's manager", requestctx.GetRequestID(r.Context()))
		return nil, false
	}
	return req, true
}

// authorize allows callers to read their own data, hr and admin to read
// anyone's, and managers to read their direct reports'.
func (h *Handler) authorize(w http.ResponseWriter, r *http.Request, user auth.UserContext, employeeID string) bool {
	if employeeID == user.EmployeeID || auth.CanActForOthers(user.Role) {
		return true
	}
	if user.Role == auth.RoleManager {
		isManager, err := h.Employees.IsManagerOf(r.Context(), user.EmployeeID, employeeID)
		if err != nil {
			shared.WriteError(w, r, err, "authorization_failed")
			return false
		}
		if isManager {
			return true
		}
	}
	api.Fail(w, http.StatusForbidden, "forbidden", "insufficient permissions", requestctx.GetRequestID(r.Context()))
	return false
}

func (h *Handler) employeeAndYear(w http.ResponseWriter, r *http.Request, user auth.UserContext) (string, int, bool) {
	query := r.URL.Query()
	employeeID := targetEmployee(query.Get("employeeId"), user)
	v := shared.NewValidator()
	v.Required("employeeId", employeeID, "is required")
	year, ok := shared.ParseYear(query.Get("year"), h.Now().Year())
	if !ok {
		v.Add("year", "must be a valid year")
	}
	if v.Reject(w, requestctx.GetRequestID(r.Context())) {
		return "", 0, false
	}
	if !h.authorize(w, r, user, employeeID) {
		return "", 0, false
	}
	return employeeID, year, true
}

func (h *Handler) notify(ctx context.Context, ntype string, req *leave.Request) {
	if h.Notify == nil || req == nil {
		return
	}
	h.Notify.LeaveUpdate(ctx, ntype, *req)
}

func targetEmployee(requested string, user auth.UserContext) string {
	if requested = strings.TrimSpace(requested); requested != "" {
		return requested
	}
	return user.EmployeeID
}

var _ Notifier = (*notifications.Service)(nil)
