package corehandler

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"hrms/internal/domain/audit"
	"hrms/internal/domain/auth"
	"hrms/internal/domain/core"
	"hrms/internal/requestctx"
	"hrms/internal/transport/http/api"
	"hrms/internal/transport/http/middleware"
	"hrms/internal/transport/http/shared"
)

// Users creates the login account linked to a new employee.
type Users interface {
	CreateUser(ctx context.Context, email, password, role, employeeID string) (string, error)
}

type Handler struct {
	Service *core.Service
	Users   Users
	Audit   shared.Auditor
}

func NewHandler(service *core.Service, users Users) *Handler {
	return &Handler{Service: service, Users: users}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/employees", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermEmployeesRead)).Get("/", h.handleListEmployees)
		r.With(middleware.RequirePermission(auth.PermEmployeesWrite)).Post("/", h.handleCreateEmployee)
		r.With(middleware.RequirePermission(auth.PermEmployeesRead)).Get("/{employeeID}", h.handleGetEmployee)
		r.With(middleware.RequirePermission(auth.PermEmployeesWrite)).Post("/{employeeID}/deactivate", h.handleDeactivate)
	})
}

func (h *Handler) handleListEmployees(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	page := shared.ParsePagination(r, 50, 500)

	employees, err := h.Service.List(r.Context(), page.Limit, page.Offset)
	if err != nil {
		shared.WriteError(w, r, err, "employee_list_failed")
		return
	}

	if !auth.CanActForOthers(user.Role) {
		filtered := make([]core.Employee, 0, len(employees))
		for _, emp := range employees {
			if emp.ID == user.EmployeeID || (user.EmployeeID != "" && emp.ManagerID == user.EmployeeID) {
				filtered = append(filtered, emp)
			}
		}
		employees = filtered
	}
	api.Success(w, employees, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) handleGetEmployee(w http.ResponseWriter, r *http.Request) {
	user, _ := middleware.GetUser(r.Context())
	employeeID := chi.URLParam(r, "employeeID")

	emp, err := h.Service.Get(r.Context(), employeeID)
	if err != nil {
		shared.WriteError(w, r, err, "employee_get_failed")
		return
	}
	if !auth.CanActForOthers(user.Role) && emp.ID != user.EmployeeID && emp.ManagerID != user.EmployeeID {
		api.Fail(w, http.StatusForbidden, "forbidden", "insufficient permissions", requestctx.GetRequestID(r.Context()))
		return
	}
	api.Success(w, emp, requestctx.GetRequestID(r.Context()))
}

type createEmployeeRequest struct {
	EmployeeNumber string `json:"employeeNumber"`
	FirstName      string `json:"firstName"`
	LastName       string `json:"lastName"`
	Email          string `json:"email"`
	ManagerID      string `json:"managerId"`
	JoiningDate    string `json:"joiningDate"`
	Role           string `json:"role"`
	Password       string `json:"password"`
}

func (h *Handler) handleCreateEmployee(w http.ResponseWriter, r *http.Request) {
	var payload createEmployeeRequest
	if !shared.DecodeJSON(w, r, &payload) {
		return
	}

	v := shared.NewValidator()
	v.Required("firstName", payload.FirstName, "is required")
	v.Required("email", payload.Email, "is required")
	joined, _ := v.Date("joiningDate", payload.JoiningDate)
	role := strings.ToLower(strings.TrimSpace(payload.Role))
	if role == "" {
		role = auth.RoleEmployee
	}
	v.Enum("role", role, auth.Roles, "must be a known role")
	if payload.Password != "" && len(payload.Password) < 8 {
		v.Add("password", "must be at least 8 characters")
	}
	if v.Reject(w, requestctx.GetRequestID(r.Context())) {
		return
	}
	if payload.ManagerID != "" {
		if _, err := h.Service.Get(r.Context(), payload.ManagerID); err != nil {
			shared.WriteError(w, r, err, "employee_create_failed")
			return
		}
	}

	id, err := h.Service.Create(r.Context(), core.Employee{
		EmployeeNumber: strings.TrimSpace(payload.EmployeeNumber),
		FirstName:      payload.FirstName,
		LastName:       payload.LastName,
		Email:          payload.Email,
		ManagerID:      payload.ManagerID,
		JoiningDate:    joined,
	})
	if err != nil {
		shared.WriteError(w, r, err, "employee_create_failed")
		return
	}

	shared.Audit(r, h.Audit, audit.ActionEmployeeCreate, "employee", id, nil, map[string]string{
		"email":     payload.Email,
		"managerId": payload.ManagerID,
		"role":      role,
	})

	result := map[string]string{"id": id}
	if payload.Password != "" && h.Users != nil {
		userID, err := h.Users.CreateUser(r.Context(), payload.Email, payload.Password, role, id)
		if err != nil {
			requestctx.Logger(r.Context()).Warn("employee login account not created", "employeeId", id, "err", err)
			api.Fail(w, http.StatusConflict, "user_create_failed", "employee created but login account was not", requestctx.GetRequestID(r.Context()))
			return
		}
		result["userId"] = userID
	}
	api.Created(w, result, requestctx.GetRequestID(r.Context()))
}

func (h *Handler) handleDeactivate(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "employeeID")
	if err := h.Service.Deactivate(r.Context(), employeeID); err != nil {
		shared.WriteError(w, r, err, "employee_deactivate_failed")
		return
	}
	shared.Audit(r, h.Audit, audit.ActionEmployeeDeactivate, "employee", employeeID, nil, map[string]string{"status": core.EmployeeStatusInactive})
	api.Success(w, map[string]string{"id": employeeID, "status": core.EmployeeStatusInactive}, requestctx.GetRequestID(r.Context()))
}
