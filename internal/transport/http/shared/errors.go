package shared

import (
	"encoding/json"
	"errors"
	"net/http"

	"hrms/internal/domain/attendance"
	"hrms/internal/domain/auth"
	"hrms/internal/domain/errs"
	"hrms/internal/domain/leave"
	"hrms/internal/requestctx"
	"hrms/internal/transport/http/api"
)

// WriteError maps a domain error onto the JSON envelope. Unknown errors are
// logged and reported as a generic 500 with fallbackCode.
func WriteError(w http.ResponseWriter, r *http.Request, err error, fallbackCode string) {
	requestID := requestctx.GetRequestID(r.Context())

	var validation *errs.ValidationError
	if errors.As(err, &validation) {
		FailValidation(w, requestID, []ValidationIssue{{Field: validation.Field, Reason: validation.Reason}})
		return
	}

	switch {
	case errors.Is(err, errs.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", err.Error(), requestID)
	case errors.Is(err, leave.ErrForbidden):
		api.Fail(w, http.StatusForbidden, "forbidden", err.Error(), requestID)
	case errors.Is(err, auth.ErrInvalidCredentials):
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials", requestID)
	case errors.Is(err, leave.ErrOverlap):
		api.Fail(w, http.StatusConflict, "leave_overlap", err.Error(), requestID)
	case errors.Is(err, leave.ErrInsufficientBalance):
		api.Fail(w, http.StatusConflict, "insufficient_balance", err.Error(), requestID)
	case errors.Is(err, leave.ErrInvalidState):
		api.Fail(w, http.StatusConflict, "invalid_state", err.Error(), requestID)
	case errors.Is(err, attendance.ErrAlreadyCheckedIn),
		errors.Is(err, attendance.ErrAlreadyCheckedOut),
		errors.Is(err, attendance.ErrNotCheckedIn):
		api.Fail(w, http.StatusConflict, "attendance_state", err.Error(), requestID)
	case errors.Is(err, attendance.ErrConflict):
		api.Fail(w, http.StatusConflict, "conflict", "record changed concurrently, retry", requestID)
	case errors.Is(err, attendance.ErrEmployeeInactive):
		api.Fail(w, http.StatusForbidden, "employee_inactive", err.Error(), requestID)
	case errors.Is(err, errs.ErrExternalService):
		requestctx.Logger(r.Context()).Warn("external service failure", "err", err)
		api.Fail(w, http.StatusBadGateway, "upstream_failed", "upstream service failed", requestID)
	default:
		requestctx.Logger(r.Context()).Error("request failed", "code", fallbackCode, "err", err)
		api.Fail(w, http.StatusInternalServerError, fallbackCode, "internal error", requestID)
	}
}

// DecodeJSON reads a JSON body into dst, answering 400 on malformed input.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", requestctx.GetRequestID(r.Context()))
		return false
	}
	return true
}
