package attendance

import (
	"time"

	"github.com/shopspring/decimal"
)

// Policy holds the thresholds and windows used by check-out and the daily
// reconciliation sweep.
type Policy struct {
	OvertimeThreshold     float64
	HalfDayThreshold      float64
	LateHour              int
	LateMinute            int
	ReminderHour          int
	ReminderMinute        int
	AutoCheckoutHour      int
	AutoCheckoutMinuteEnd int
	WorkingDays           []time.Weekday
}

func DefaultPolicy() Policy {
	return Policy{
		OvertimeThreshold:     8,
		HalfDayThreshold:      5,
		LateHour:              9,
		LateMinute:            30,
		ReminderHour:          23,
		ReminderMinute:        30,
		AutoCheckoutHour:      0,
		AutoCheckoutMinuteEnd: 5,
		WorkingDays: []time.Weekday{
			time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday,
		},
	}
}

func round2(value float64) float64 {
	rounded, _ := decimal.NewFromFloat(value).Round(2).Float64()
	return rounded
}

// WorkedHours is the elapsed time between check-in and check-out in hours,
// rounded to two places. A check-out before check-in counts as zero.
func WorkedHours(checkIn, checkOut time.Time) float64 {
	if checkOut.Before(checkIn) {
		return 0
	}
	return round2(checkOut.Sub(checkIn).Hours())
}

// Overtime is the rounded excess of hours over threshold, or zero.
func Overtime(hours, threshold float64) float64 {
	if hours <= threshold {
		return 0
	}
	return round2(hours - threshold)
}

func (p Policy) Overtime(hours float64) float64 {
	return Overtime(hours, p.OvertimeThreshold)
}

func (p Policy) IsHalfDay(hours float64) bool {
	return hours < p.HalfDayThreshold
}

func (p Policy) IsWorkingDay(day time.Time) bool {
	for _, wd := range p.WorkingDays {
		if day.Weekday() == wd {
			return true
		}
	}
	return false
}

// IsLate reports a check-in after the configured late cut-off of its day.
func (p Policy) IsLate(checkIn time.Time) bool {
	cutoff := time.Date(checkIn.Year(), checkIn.Month(), checkIn.Day(), p.LateHour, p.LateMinute, 0, 0, checkIn.Location())
	return checkIn.After(cutoff)
}

// Window selects the sweep mode for the wall-clock time of now.
func (p Policy) Window(now time.Time) Mode {
	switch {
	case now.Hour() == p.ReminderHour && now.Minute() >= p.ReminderMinute:
		return ModeReminder
	case now.Hour() == p.AutoCheckoutHour && now.Minute() < p.AutoCheckoutMinuteEnd:
		return ModeAutoCheckout
	default:
		return ModeNone
	}
}

// DateOnly truncates t to local midnight in t's location.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// EndOfDay is 23:59:59 on day's date, the synthetic auto check-out time.
func EndOfDay(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), 23, 59, 59, 0, day.Location())
}

// SweepDay is the calendar day a sweep in mode works on: the current day in
// the evening reminder window, the day that just ended after midnight.
func SweepDay(now time.Time, mode Mode) time.Time {
	if mode == ModeAutoCheckout {
		return DateOnly(now.AddDate(0, 0, -1))
	}
	return DateOnly(now)
}

// closeOut fills hours and overtime from the record's timestamps.
func (p Policy) closeOut(rec *Record) {
	if !rec.CheckedIn() || rec.CheckOut == nil {
		rec.TotalHours = 0
		rec.OvertimeHours = 0
		return
	}
	rec.TotalHours = WorkedHours(*rec.CheckIn, *rec.CheckOut)
	rec.OvertimeHours = p.Overtime(rec.TotalHours)
}
