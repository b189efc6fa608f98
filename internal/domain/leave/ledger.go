package leave

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"hrms/internal/domain/core"
	"hrms/internal/domain/errs"
)

// Ledger owns leave entitlements and the request lifecycle. Balances are
// always rederived from the request ledger, never adjusted incrementally.
type Ledger struct {
	Store     StoreAPI
	Directory core.Directory
	Policy    PolicyTable
}

func NewLedger(store StoreAPI, directory core.Directory, policy PolicyTable) *Ledger {
	if policy == nil {
		policy = DefaultPolicy()
	}
	return &Ledger{Store: store, Directory: directory, Policy: policy}
}

// GetOrCreateEntitlement returns the stored entitlement for the triple or
// creates it from the employee's joining date and the policy table.
func (l *Ledger) GetOrCreateEntitlement(ctx context.Context, employeeID string, leaveType LeaveType, year int, now time.Time) (*Entitlement, error) {
	if !leaveType.Valid() {
		return nil, errs.Invalid("leaveType", "unknown leave type "+string(leaveType))
	}
	ent, err := l.Store.GetEntitlement(ctx, employeeID, leaveType, year)
	if err == nil {
		return ent, nil
	}
	if !errors.Is(err, ErrEntitlementNotFound) {
		return nil, err
	}

	emp, err := l.employee(ctx, employeeID)
	if err != nil {
		return nil, err
	}
	fresh := NewEntitlement(employeeID, leaveType, year, l.Policy.Annual(leaveType), emp.JoiningDate, now)
	created, err := l.Store.InsertEntitlement(ctx, fresh)
	if errors.Is(err, ErrDuplicateEntitlement) {
		return l.Store.GetEntitlement(ctx, employeeID, leaveType, year)
	}
	return created, err
}

// RecomputeBalance rederives used, pending and available for the triple from
// the requests that start in year. Calling it twice yields the same row.
func (l *Ledger) RecomputeBalance(ctx context.Context, employeeID string, leaveType LeaveType, year int, now time.Time) (*Entitlement, error) {
	ent, err := l.GetOrCreateEntitlement(ctx, employeeID, leaveType, year, now)
	if err != nil {
		return nil, err
	}
	requests, err := l.Store.ListRequests(ctx, RequestFilter{
		EmployeeID: employeeID,
		LeaveType:  leaveType,
		Year:       year,
		Statuses:   []string{StatusPending, StatusApproved, StatusProcessed},
	})
	if err != nil {
		return nil, err
	}
	return l.Store.UpdateBalance(ctx, ApplyRequests(*ent, requests))
}

// Balances recomputes every leave type that grants days under the policy or
// already has a row for the year.
func (l *Ledger) Balances(ctx context.Context, employeeID string, year int, now time.Time) ([]Entitlement, error) {
	existing, err := l.Store.ListEntitlements(ctx, employeeID, year)
	if err != nil {
		return nil, err
	}
	tracked := make(map[LeaveType]bool, len(existing))
	for _, ent := range existing {
		tracked[ent.LeaveType] = true
	}

	var out []Entitlement
	for _, leaveType := range LeaveTypes {
		if !tracked[leaveType] && !l.Policy.Accruing(leaveType) {
			continue
		}
		ent, err := l.RecomputeBalance(ctx, employeeID, leaveType, year, now)
		if err != nil {
			return nil, err
		}
		out = append(out, *ent)
	}
	return out, nil
}

// FindOverlapping returns the first pending or approved request of the
// employee that shares at least one day with [start, end], or nil.
func (l *Ledger) FindOverlapping(ctx context.Context, employeeID string, start, end time.Time, excludeID string) (*Request, error) {
	if _, err := TotalInclusiveDays(start, end); err != nil {
		return nil, err
	}
	return l.Store.FindOverlapping(ctx, employeeID, DateOnly(start), DateOnly(end), excludeID)
}

func (l *Ledger) CreateRequest(ctx context.Context, input CreateRequestInput, now time.Time) (*Request, error) {
	if strings.TrimSpace(input.EmployeeID) == "" {
		return nil, errs.Invalid("employeeId", "is required")
	}
	if !input.LeaveType.Valid() {
		return nil, errs.Invalid("leaveType", "unknown leave type "+string(input.LeaveType))
	}
	days, err := TotalInclusiveDays(input.StartDate, input.EndDate)
	if err != nil {
		return nil, err
	}
	if _, err := l.employee(ctx, input.EmployeeID); err != nil {
		return nil, err
	}

	start, end := DateOnly(input.StartDate), DateOnly(input.EndDate)
	existing, err := l.Store.FindOverlapping(ctx, input.EmployeeID, start, end, "")
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: request %s", ErrOverlap, existing.ID)
	}

	year := start.Year()
	if l.Policy.Accruing(input.LeaveType) {
		balance, err := l.RecomputeBalance(ctx, input.EmployeeID, input.LeaveType, year, now)
		if err != nil {
			return nil, err
		}
		if float64(days) > balance.Available {
			return nil, fmt.Errorf("%w: requested %d, available %.2f", ErrInsufficientBalance, days, balance.Available)
		}
	}

	created, err := l.Store.CreateRequest(ctx, Request{
		EmployeeID: input.EmployeeID,
		LeaveType:  input.LeaveType,
		StartDate:  start,
		EndDate:    end,
		TotalDays:  days,
		Status:     StatusPending,
		Reason:     strings.TrimSpace(input.Reason),
	})
	if err != nil {
		return nil, err
	}
	l.refresh(ctx, *created, now)
	return created, nil
}

func (l *Ledger) ApproveRequest(ctx context.Context, requestID, approverID string, now time.Time) (*Request, error) {
	approvedAt := now
	return l.transition(ctx, requestID, StatusPending, Request{
		Status:     StatusApproved,
		ApprovedBy: approverID,
		ApprovedAt: &approvedAt,
	}, now)
}

func (l *Ledger) RejectRequest(ctx context.Context, requestID, approverID, reason string, now time.Time) (*Request, error) {
	decidedAt := now
	return l.transition(ctx, requestID, StatusPending, Request{
		Status:          StatusRejected,
		ApprovedBy:      approverID,
		ApprovedAt:      &decidedAt,
		RejectionReason: strings.TrimSpace(reason),
	}, now)
}

// CancelRequest withdraws a pending request. Only the requesting employee
// may cancel.
func (l *Ledger) CancelRequest(ctx context.Context, requestID, employeeID string, now time.Time) (*Request, error) {
	req, err := l.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.EmployeeID != employeeID {
		return nil, ErrForbidden
	}
	return l.transition(ctx, requestID, StatusPending, Request{Status: StatusCancelled}, now)
}

// OverrideStatus is the administrative escape hatch for resolved requests.
func (l *Ledger) OverrideStatus(ctx context.Context, requestID, status, actorID string, now time.Time) (*Request, error) {
	if !ValidStatus(status) {
		return nil, errs.Invalid("status", "unknown status "+status)
	}
	req, err := l.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	update := Request{Status: status, ApprovedBy: req.ApprovedBy, ApprovedAt: req.ApprovedAt, RejectionReason: req.RejectionReason}
	if status == StatusApproved || status == StatusRejected {
		decidedAt := now
		update.ApprovedBy = actorID
		update.ApprovedAt = &decidedAt
	}
	return l.transition(ctx, requestID, req.Status, update, now)
}

func (l *Ledger) GetRequest(ctx context.Context, requestID string) (*Request, error) {
	req, err := l.Store.GetRequest(ctx, requestID)
	if errors.Is(err, ErrRequestNotFound) {
		return nil, errs.NotFound("leave request", requestID)
	}
	return req, err
}

func (l *Ledger) ListRequests(ctx context.Context, filter RequestFilter) ([]Request, error) {
	for _, status := range filter.Statuses {
		if !ValidStatus(status) {
			return nil, errs.Invalid("status", "unknown status "+status)
		}
	}
	if filter.LeaveType != "" && !filter.LeaveType.Valid() {
		return nil, errs.Invalid("leaveType", "unknown leave type "+string(filter.LeaveType))
	}
	return l.Store.ListRequests(ctx, filter)
}

func (l *Ledger) transition(ctx context.Context, requestID, from string, update Request, now time.Time) (*Request, error) {
	updated, err := l.Store.TransitionRequest(ctx, requestID, from, update)
	switch {
	case errors.Is(err, ErrRequestNotFound):
		return nil, errs.NotFound("leave request", requestID)
	case errors.Is(err, ErrInvalidState):
		return nil, fmt.Errorf("%w: request %s is not %s", ErrInvalidState, requestID, from)
	case err != nil:
		return nil, err
	}
	l.refresh(ctx, *updated, now)
	return updated, nil
}

// refresh recomputes the balance a request is booked against. The request
// write already succeeded, so a failure here is logged; the next read
// recomputes anyway.
func (l *Ledger) refresh(ctx context.Context, req Request, now time.Time) {
	if _, err := l.RecomputeBalance(ctx, req.EmployeeID, req.LeaveType, req.Year(), now); err != nil {
		slog.Warn("leave balance recompute failed",
			"employeeId", req.EmployeeID,
			"leaveType", req.LeaveType,
			"year", req.Year(),
			"err", err,
		)
	}
}

func (l *Ledger) employee(ctx context.Context, employeeID string) (*core.Employee, error) {
	emp, err := l.Directory.GetEmployee(ctx, employeeID)
	if errors.Is(err, errs.ErrNotFound) {
		return nil, errs.NotFound("employee", employeeID)
	}
	return emp, err
}
