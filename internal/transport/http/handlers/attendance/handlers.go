package attendancehandler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"hrms/internal/domain/attendance"
	"hrms/internal/domain/audit"
	"hrms/internal/domain/auth"
	"hrms/internal/requestctx"
	"hrms/internal/transport/http/api"
	"hrms/internal/transport/http/middleware"
	"hrms/internal/transport/http/shared"
)

type Managers interface {
	IsManagerOf(ctx context.Context, managerEmployeeID, employeeID string) (bool, error)
}

type Handler struct {
	Service  *attendance.Service
	Managers Managers
	Audit    shared.Auditor
	Loc      *time.Location
	Now      func() time.Time
}

func NewHandler(service *attendance.Service, managers Managers, loc *time.Location) *Handler {
	if loc == nil {
		loc = time.Local
	}
	return &Handler{
		Service:  service,
		Managers: managers,
		Loc:      loc,
		Now:      func() time.Time { return time.Now().In(loc) },
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/attendance", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermAttendanceWrite)).Post("/check-in", h.handleCheckIn)
		r.With(middleware.RequirePermission(auth.PermAttendanceWrite)).Post("/check-out", h.handleCheckOut)
		r.With(middleware.RequirePermission(auth.PermAttendanceRead)).Get("/today", h.handleToday)
		r.With(middleware.RequirePermission(auth.PermAttendanceRead)).Get("/", h.handleList)
		r.With(middleware.RequirePermission(auth.PermAttendanceAdmin)).Put("/", h.handleAdminUpsert)
	})
}

func (h *Handler) handleCheckIn(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := selfEmployee(w, r)
	if !ok {
		return
	}
	rec, err := h.Service.CheckIn(r.Context(), employeeID, h.Now())
	if err != nil {
		shared.WriteError(w, r, err, "check_in_failed")
		return
	}
	api.Created(w, rec, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) handleCheckOut(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := selfEmployee(w, r)
	if !ok {
		return
	}
	rec, err := h.Service.CheckOut(r.Context(), employeeID, h.Now())
	if err != nil {
		shared.WriteError(w, r, err, "check_out_failed")
		return
	}
	api.Success(w, rec, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) handleToday(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := selfEmployee(w, r)
	if !ok {
		return
	}
	rec, err := h.Service.Today(r.Context(), employeeID, h.Now())
	if err != nil {
		shared.WriteError(w, r, err, "attendance_today_failed")
		return
	}
	api.Success(w, rec, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	query := r.URL.Query()
	page := shared.ParsePagination(r, 31, 366)

	filter := attendance.RecordFilter{
		EmployeeID: strings.TrimSpace(query.Get("employeeId")),
		Limit:      page.Limit,
		Offset:     page.Offset,
	}
	v := shared.NewValidator()
	if raw := query.Get("from"); raw != "" {
		filter.From, _ = h.date(v, "from", raw)
	}
	if raw := query.Get("to"); raw != "" {
		filter.To, _ = h.date(v, "to", raw)
	}
	v.DateOrder("from", filter.From, "to", filter.To)
	if v.Reject(w, requestctx.GetRequestID(r.Context())) {
		return
	}

	if !auth.CanActForOthers(user.Role) {
		if filter.EmployeeID == "" {
			filter.EmployeeID = user.EmployeeID
		}
		if !h.canRead(w, r, user, filter.EmployeeID) {
			return
		}
	}

	records, err := h.Service.List(r.Context(), filter)
	if err != nil {
		shared.WriteError(w, r, err, "attendance_list_failed")
		return
	}
	api.Success(w, records, requestctx.GetRequestID(r.Context()))
}

type adminUpsertRequest struct {
	EmployeeID string `json:"employeeId"`
	Date       string `json:"date"`
	CheckIn    string `json:"checkIn"`
	CheckOut   string `json:"checkOut"`
	Status     string `json:"status"`
}

func (h *Handler) handleAdminUpsert(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	var payload adminUpsertRequest
	if !shared.DecodeJSON(w, r, &payload) {
		return
	}

	v := shared.NewValidator()
	v.Required("employeeId", payload.EmployeeID, "is required")
	day, _ := h.date(v, "date", payload.Date)
	v.Enum("status", payload.Status, []string{
		attendance.StatusPresent,
		attendance.StatusAbsent,
		attendance.StatusLate,
		attendance.StatusHalfDay,
		attendance.StatusHoliday,
	}, "must be a known attendance status")
	checkIn := h.timestamp(v, "checkIn", payload.CheckIn)
	checkOut := h.timestamp(v, "checkOut", payload.CheckOut)
	if v.Reject(w, requestctx.GetRequestID(r.Context())) {
		return
	}

	rec, err := h.Service.AdminUpsert(r.Context(), attendance.AdminInput{
		EmployeeID: payload.EmployeeID,
		Date:       day,
		CheckIn:    checkIn,
		CheckOut:   checkOut,
		Status:     strings.ToLower(strings.TrimSpace(payload.Status)),
	})
	if err != nil {
		shared.WriteError(w, r, err, "attendance_update_failed")
		return
	}
	shared.Audit(r, h.Audit, audit.ActionAttendanceOverride, "attendance_record", rec.ID, nil, rec)
	requestctx.Logger(r.Context()).Info("attendance record overridden",
		"employeeId", rec.EmployeeID,
		"date", rec.Date.Format("2006-01-02"),
		"status", rec.Status,
		"actor", user.UserID,
	)
	api.Success(w, rec, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) canRead(w http.ResponseWriter, r *http.Request, user auth.UserContext, employeeID string) bool {
	if employeeID == user.EmployeeID {
		return true
	}
	if user.Role == auth.RoleManager && h.Managers != nil {
		isManager, err := h.Managers.IsManagerOf(r.Context(), user.EmployeeID, employeeID)
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

// date parses a calendar day in the attendance timezone.
func (h *Handler) date(v *shared.Validator, field, raw string) (time.Time, bool) {
	parsed, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(raw), h.Loc)
	if err != nil {
		v.Add(field, "must be a valid date in YYYY-MM-DD format")
		return time.Time{}, false
	}
	return parsed, true
}

func (h *Handler) timestamp(v *shared.Validator, field, raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		v.Add(field, "must be an RFC3339 timestamp")
		return nil
	}
	parsed = parsed.In(h.Loc)
	return &parsed
}

func selfEmployee(w http.ResponseWriter, r *http.Request) (string, bool) {
	user, _ := middleware.GetUser(r.Context())
	if user.EmployeeID == "" {
		api.Fail(w, http.StatusForbidden, "no_employee_profile", "account is not linked to an employee", requestctx.GetRequestID(r.Context()))
		return "", false
	}
	return user.EmployeeID, true
}
