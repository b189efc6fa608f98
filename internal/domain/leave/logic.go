package leave

import (
	"time"

	"github.com/shopspring/decimal"

	"hrms/internal/domain/errs"
)

var ErrInvalidRange = errs.Invalid("endDate", "must be on or after startDate")

// DateOnly truncates t to midnight in its own location.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// calendarDay maps t's calendar date onto UTC midnight so day arithmetic is
// not skewed by DST transitions in t's location.
func calendarDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// TotalInclusiveDays counts calendar days from start to end, both inclusive.
func TotalInclusiveDays(start, end time.Time) (int, error) {
	from, to := calendarDay(start), calendarDay(end)
	if from.After(to) {
		return 0, ErrInvalidRange
	}
	days := (to.Unix() - from.Unix()) / 86400
	return int(days) + 1, nil
}

// Overlaps is the closed-interval test used to reject double booking.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !calendarDay(aStart).After(calendarDay(bEnd)) && !calendarDay(aEnd).Before(calendarDay(bStart))
}

// blocksBooking reports whether a request in this status occupies its dates.
func blocksBooking(status string) bool {
	return status == StatusPending || status == StatusApproved
}

// SumDays totals TotalDays of requests whose status is in statuses.
func SumDays(requests []Request, statuses ...string) float64 {
	total := decimal.Zero
	for _, req := range requests {
		for _, status := range statuses {
			if req.Status == status {
				total = total.Add(decimal.NewFromInt(int64(req.TotalDays)))
				break
			}
		}
	}
	value, _ := total.Float64()
	return value
}

// ApplyRequests rederives used, pending and available from the request
// ledger. Accrued and entitlement are left as stored.
func ApplyRequests(ent Entitlement, requests []Request) Entitlement {
	ent.Used = SumDays(requests, StatusApproved, StatusProcessed)
	ent.Pending = SumDays(requests, StatusPending)
	ent.Available = AvailableDays(ent.Accrued, ent.Used, ent.Pending)
	return ent
}

// AvailableDays is max(0, accrued - used - pending) rounded to two places.
func AvailableDays(accrued, used, pending float64) float64 {
	available := decimal.NewFromFloat(accrued).
		Sub(decimal.NewFromFloat(used)).
		Sub(decimal.NewFromFloat(pending)).
		Round(2)
	if available.IsNegative() {
		return 0
	}
	value, _ := available.Float64()
	return value
}
