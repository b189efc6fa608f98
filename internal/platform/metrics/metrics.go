package metrics

import (
	"sync/atomic"
	"time"

	"hrms/internal/domain/attendance"
)

type Collector struct {
	totalRequests   uint64
	errorRequests   uint64
	clientErrors    uint64
	totalDurationMs uint64

	reconcileRuns     uint64
	reconcileFailures uint64
	absentMarked      uint64
	halfDays          uint64
	remindersSent     uint64
	autoCheckouts     uint64
	employeeFailures  uint64
}

func New() *Collector {
	return &Collector{}
}

func (c *Collector) Record(status int, duration time.Duration) {
	atomic.AddUint64(&c.totalRequests, 1)
	if status >= 500 {
		atomic.AddUint64(&c.errorRequests, 1)
	} else if status >= 400 {
		atomic.AddUint64(&c.clientErrors, 1)
	}
	atomic.AddUint64(&c.totalDurationMs, uint64(duration.Milliseconds()))
}

// RecordReconcile adds one sweep's counts. A nil err with ModeNone is not
// counted as a run.
func (c *Collector) RecordReconcile(summary attendance.Summary, err error) {
	if err != nil {
		atomic.AddUint64(&c.reconcileFailures, 1)
	}
	if summary.Mode == attendance.ModeNone {
		return
	}
	atomic.AddUint64(&c.reconcileRuns, 1)
	atomic.AddUint64(&c.absentMarked, uint64(summary.Absent))
	atomic.AddUint64(&c.halfDays, uint64(summary.HalfDay))
	atomic.AddUint64(&c.remindersSent, uint64(summary.RemindersSent))
	atomic.AddUint64(&c.autoCheckouts, uint64(summary.AutoCheckouts))
	atomic.AddUint64(&c.employeeFailures, uint64(summary.Failed))
}

func (c *Collector) Snapshot() map[string]any {
	total := atomic.LoadUint64(&c.totalRequests)
	errs := atomic.LoadUint64(&c.errorRequests)
	totalMs := atomic.LoadUint64(&c.totalDurationMs)
	avg := float64(0)
	if total > 0 {
		avg = float64(totalMs) / float64(total)
	}
	return map[string]any{
		"requestsTotal":     total,
		"errorsTotal":       errs,
		"clientErrorsTotal": atomic.LoadUint64(&c.clientErrors),
		"avgDurationMs":     avg,
		"totalDurationMs":   totalMs,
		"reconcile": map[string]any{
			"runsTotal":             atomic.LoadUint64(&c.reconcileRuns),
			"failedRunsTotal":       atomic.LoadUint64(&c.reconcileFailures),
			"absentMarkedTotal":     atomic.LoadUint64(&c.absentMarked),
			"halfDayTotal":          atomic.LoadUint64(&c.halfDays),
			"remindersSentTotal":    atomic.LoadUint64(&c.remindersSent),
			"autoCheckoutsTotal":    atomic.LoadUint64(&c.autoCheckouts),
			"employeeFailuresTotal": atomic.LoadUint64(&c.employeeFailures),
		},
	}
}
