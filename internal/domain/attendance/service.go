package attendance

import (
	"context"
	"errors"
	"time"

	"hrms/internal/domain/core"
	"hrms/internal/domain/errs"
)

type Service struct {
	Store     StoreAPI
	Directory core.Directory
	Policy    Policy
}

func NewService(store StoreAPI, directory core.Directory, policy Policy) *Service {
	return &Service{Store: store, Directory: directory, Policy: policy}
}

// CheckIn opens today's record for the employee, marking it late after the
// policy cut-off. A record created earlier without a check-in (for example
// an absent mark) is taken over.
func (s *Service) CheckIn(ctx context.Context, employeeID string, now time.Time) (*Record, error) {
	if err := s.activeEmployee(ctx, employeeID); err != nil {
		return nil, err
	}
	status := StatusPresent
	if s.Policy.IsLate(now) {
		status = StatusLate
	}
	checkIn := now

	existing, err := s.Store.Get(ctx, employeeID, DateOnly(now))
	switch {
	case errors.Is(err, ErrRecordNotFound):
		rec, err := s.Store.Create(ctx, Record{
			EmployeeID: employeeID,
			Date:       DateOnly(now),
			CheckIn:    &checkIn,
			Status:     status,
		})
		if errors.Is(err, ErrDuplicateRecord) {
			return nil, ErrAlreadyCheckedIn
		}
		return rec, err
	case err != nil:
		return nil, err
	case existing.CheckedIn():
		return nil, ErrAlreadyCheckedIn
	}

	existing.CheckIn = &checkIn
	existing.Status = status
	return s.Store.Update(ctx, *existing)
}

// CheckOut closes the employee's open record. Shortly after midnight the
// record opened the previous day is still the one being closed.
func (s *Service) CheckOut(ctx context.Context, employeeID string, now time.Time) (*Record, error) {
	rec, err := s.openRecord(ctx, employeeID, now)
	if err != nil {
		return nil, err
	}
	checkOut := now
	rec.CheckOut = &checkOut
	s.Policy.closeOut(rec)
	if s.Policy.IsHalfDay(rec.TotalHours) {
		rec.Status = StatusHalfDay
	}
	return s.Store.Update(ctx, *rec)
}

func (s *Service) openRecord(ctx context.Context, employeeID string, now time.Time) (*Record, error) {
	rec, err := s.Store.Get(ctx, employeeID, DateOnly(now))
	if errors.Is(err, ErrRecordNotFound) {
		prev, prevErr := s.Store.Get(ctx, employeeID, DateOnly(now.AddDate(0, 0, -1)))
		if prevErr == nil && prev.Open() {
			return prev, nil
		}
		return nil, ErrNotCheckedIn
	}
	if err != nil {
		return nil, err
	}
	switch {
	case !rec.CheckedIn():
		return nil, ErrNotCheckedIn
	case rec.CheckOut != nil:
		return nil, ErrAlreadyCheckedOut
	}
	return rec, nil
}

// AdminUpsert writes an administrative correction for one day. Hours and
// overtime are always derived from the timestamps; an empty status is
// derived as well.
func (s *Service) AdminUpsert(ctx context.Context, input AdminInput) (*Record, error) {
	if input.EmployeeID == "" {
		return nil, errs.Invalid("employeeId", "is required")
	}
	if input.Date.IsZero() {
		return nil, errs.Invalid("date", "is required")
	}
	if input.Status != "" && !ValidStatus(input.Status) {
		return nil, errs.Invalid("status", "unknown status "+input.Status)
	}
	if input.CheckOut != nil && input.CheckIn == nil {
		return nil, errs.Invalid("checkOut", "requires checkIn")
	}
	if input.CheckIn != nil && input.CheckOut != nil && input.CheckOut.Before(*input.CheckIn) {
		return nil, errs.Invalid("checkOut", "must not be before checkIn")
	}
	if _, err := s.Directory.GetEmployee(ctx, input.EmployeeID); err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return nil, errs.NotFound("employee", input.EmployeeID)
		}
		return nil, err
	}

	day := DateOnly(input.Date)
	rec, err := s.Store.Get(ctx, input.EmployeeID, day)
	creating := errors.Is(err, ErrRecordNotFound)
	if err != nil && !creating {
		return nil, err
	}
	if creating {
		rec = &Record{EmployeeID: input.EmployeeID, Date: day}
	}

	rec.CheckIn = input.CheckIn
	rec.CheckOut = input.CheckOut
	rec.AutoCheckout = false
	s.Policy.closeOut(rec)
	rec.Status = input.Status
	if rec.Status == "" {
		rec.Status = s.deriveStatus(*rec)
	}

	if creating {
		return s.Store.Create(ctx, *rec)
	}
	return s.Store.Update(ctx, *rec)
}

func (s *Service) deriveStatus(rec Record) string {
	switch {
	case !rec.CheckedIn():
		return StatusAbsent
	case rec.CheckOut != nil && s.Policy.IsHalfDay(rec.TotalHours):
		return StatusHalfDay
	case s.Policy.IsLate(*rec.CheckIn):
		return StatusLate
	default:
		return StatusPresent
	}
}

func (s *Service) Today(ctx context.Context, employeeID string, now time.Time) (*Record, error) {
	rec, err := s.Store.Get(ctx, employeeID, DateOnly(now))
	if errors.Is(err, ErrRecordNotFound) {
		return nil, errs.NotFound("attendance record", employeeID+"/"+DateOnly(now).Format(dateLayout))
	}
	return rec, err
}

func (s *Service) List(ctx context.Context, filter RecordFilter) ([]Record, error) {
	if !filter.From.IsZero() && !filter.To.IsZero() && filter.From.After(filter.To) {
		return nil, errs.Invalid("to", "must be on or after from")
	}
	return s.Store.List(ctx, filter)
}

func (s *Service) activeEmployee(ctx context.Context, employeeID string) error {
	emp, err := s.Directory.GetEmployee(ctx, employeeID)
	if errors.Is(err, errs.ErrNotFound) {
		return errs.NotFound("employee", employeeID)
	}
	if err != nil {
		return err
	}
	if !emp.IsActive() {
		return ErrEmployeeInactive
	}
	return nil
}
