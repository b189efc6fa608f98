package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"hrms/internal/domain/core"
)

// ReminderSender delivers the end-of-day checkout reminder.
type ReminderSender interface {
	SendCheckoutReminder(ctx context.Context, to, name string) error
}

// Reconciler runs the daily attendance sweep over all active employees.
type Reconciler struct {
	Directory core.Directory
	Store     StoreAPI
	Reminders ReminderSender
	Policy    Policy
	Logger    *slog.Logger
}

func NewReconciler(directory core.Directory, store StoreAPI, reminders ReminderSender, policy Policy, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{Directory: directory, Store: store, Reminders: reminders, Policy: policy, Logger: logger}
}

// Reconcile sweeps attendance for the day selected by now's window. Only a
// failure to list employees is returned; per-employee failures are logged
// and counted in Summary.Failed.
func (r *Reconciler) Reconcile(ctx context.Context, now time.Time) (Summary, error) {
	mode := r.Policy.Window(now)
	if mode == ModeNone {
		return Summary{Mode: ModeNone, Message: "not scheduled time"}, nil
	}
	day := SweepDay(now, mode)
	summary := Summary{Mode: mode, Date: day}

	employees, err := r.Directory.ListActive(ctx)
	if err != nil {
		return summary, fmt.Errorf("list active employees: %w", err)
	}

	for _, emp := range employees {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		summary.Processed++
		if err := r.reconcileEmployee(ctx, emp, day, mode, &summary); err != nil {
			summary.Failed++
			r.Logger.Warn("attendance reconcile failed",
				"employeeId", emp.ID,
				"date", day.Format(dateLayout),
				"mode", string(mode),
				"err", err,
			)
		}
	}

	r.Logger.Info("attendance reconcile finished",
		"mode", string(mode),
		"date", day.Format(dateLayout),
		"processed", summary.Processed,
		"absent", summary.Absent,
		"halfDay", summary.HalfDay,
		"remindersSent", summary.RemindersSent,
		"autoCheckouts", summary.AutoCheckouts,
		"failed", summary.Failed,
	)
	return summary, nil
}

func (r *Reconciler) reconcileEmployee(ctx context.Context, emp core.Employee, day time.Time, mode Mode, summary *Summary) error {
	rec, err := r.Store.Get(ctx, emp.ID, day)
	if errors.Is(err, ErrRecordNotFound) {
		if !r.Policy.IsWorkingDay(day) {
			return nil
		}
		if _, err := r.Store.Create(ctx, Record{EmployeeID: emp.ID, Date: day, Status: StatusAbsent}); err != nil {
			return fmt.Errorf("create absent record: %w", err)
		}
		summary.Absent++
		return nil
	}
	if err != nil {
		return fmt.Errorf("load record: %w", err)
	}

	switch {
	case rec.Open():
		if mode == ModeReminder {
			return r.remind(ctx, emp, *rec, summary)
		}
		return r.autoCheckout(ctx, *rec, summary)
	case rec.CheckedIn():
		if rec.AutoCheckout {
			return nil
		}
		return r.recheck(ctx, *rec, summary)
	case r.Policy.IsWorkingDay(day) && rec.Status != StatusAbsent:
		rec.Status = StatusAbsent
		if _, err := r.Store.Update(ctx, *rec); err != nil {
			return fmt.Errorf("mark absent: %w", err)
		}
		summary.Absent++
	}
	return nil
}

// remind claims the reminder with a conditional write before sending, so
// overlapping sweeps cannot both send. Losing the claim to another sweep is
// not a failure. A failed send releases the claim and the next sweep in the
// window retries.
func (r *Reconciler) remind(ctx context.Context, emp core.Employee, rec Record, summary *Summary) error {
	if rec.ReminderSent {
		return nil
	}
	rec.ReminderSent = true
	claimed, err := r.Store.Update(ctx, rec)
	if errors.Is(err, ErrConflict) {
		r.Logger.Debug("reminder claimed by another sweep", "employeeId", emp.ID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("claim reminder: %w", err)
	}

	if err := r.Reminders.SendCheckoutReminder(ctx, emp.Email, emp.FullName()); err != nil {
		claimed.ReminderSent = false
		if _, releaseErr := r.Store.Update(ctx, *claimed); releaseErr != nil {
			r.Logger.Warn("release reminder claim failed", "employeeId", emp.ID, "err", releaseErr)
		}
		return fmt.Errorf("send checkout reminder: %w", err)
	}
	summary.RemindersSent++
	return nil
}

// autoCheckout closes a record left open at midnight. It never earns
// overtime and never upgrades a half-day back to present.
func (r *Reconciler) autoCheckout(ctx context.Context, rec Record, summary *Summary) error {
	checkOut := EndOfDay(rec.Date)
	rec.CheckOut = &checkOut
	rec.AutoCheckout = true
	rec.TotalHours = WorkedHours(*rec.CheckIn, checkOut)
	rec.OvertimeHours = 0
	halfDay := r.Policy.IsHalfDay(rec.TotalHours) && rec.Status != StatusHalfDay
	if halfDay {
		rec.Status = StatusHalfDay
	}
	if _, err := r.Store.Update(ctx, rec); err != nil {
		return fmt.Errorf("auto checkout: %w", err)
	}
	summary.AutoCheckouts++
	if halfDay {
		summary.HalfDay++
	}
	return nil
}

// recheck recomputes hours of a closed record and moves it between present
// and half-day when the stored classification disagrees.
func (r *Reconciler) recheck(ctx context.Context, rec Record, summary *Summary) error {
	before := rec
	r.Policy.closeOut(&rec)
	halfDay := false
	switch {
	case r.Policy.IsHalfDay(rec.TotalHours) && rec.Status == StatusPresent:
		rec.Status = StatusHalfDay
		halfDay = true
	case !r.Policy.IsHalfDay(rec.TotalHours) && rec.Status == StatusHalfDay:
		rec.Status = StatusPresent
	}
	if rec.TotalHours == before.TotalHours && rec.OvertimeHours == before.OvertimeHours && rec.Status == before.Status {
		return nil
	}
	if _, err := r.Store.Update(ctx, rec); err != nil {
		return fmt.Errorf("recompute hours: %w", err)
	}
	if halfDay {
		summary.HalfDay++
	}
	return nil
}
