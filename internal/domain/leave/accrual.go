package leave

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// Round2 rounds half away from zero to two decimal places.
func Round2(value float64) float64 {
	rounded, _ := decimal.NewFromFloat(value).Round(2).Float64()
	return rounded
}

// MonthDiff counts calendar month boundaries between from and to, ignoring
// the day of month. It is negative when to precedes from.
func MonthDiff(from, to time.Time) int {
	return (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
}

// ProRatedEntitlement returns the entitlement for year of an employee who
// joined on joinDate. The join month counts as worked.
func ProRatedEntitlement(annual float64, joinDate time.Time, year int) float64 {
	switch {
	case joinDate.Year() > year:
		return 0
	case joinDate.Year() < year:
		return annual
	}
	monthsRemaining := 12 - (int(joinDate.Month()) - 1)
	perMonth := decimal.NewFromFloat(annual).Div(decimal.NewFromInt(12))
	value, _ := perMonth.Mul(decimal.NewFromInt(int64(monthsRemaining))).Round(2).Float64()
	return value
}

// MonthsWorked counts started months of service from join to now, floored
// at zero.
func MonthsWorked(join, now time.Time) int {
	months := MonthDiff(join, now)
	if now.Day() >= join.Day() {
		months++
	}
	if months < 0 {
		return 0
	}
	return months
}

// AccruedDays is the monthly accrual earned from join to now. It is not
// capped; callers clamp against the entitlement.
func AccruedDays(rate float64, join, now time.Time) float64 {
	value, _ := decimal.NewFromFloat(rate).Mul(decimal.NewFromInt(int64(MonthsWorked(join, now)))).Round(2).Float64()
	return value
}

// NewEntitlement derives a fresh entitlement row for an employee who joined
// on joinDate. used and pending start at zero.
func NewEntitlement(employeeID string, leaveType LeaveType, year int, annual float64, joinDate, now time.Time) Entitlement {
	entitlement := ProRatedEntitlement(annual, joinDate, year)
	rate := annual / 12
	accrued := math.Min(entitlement, AccruedDays(rate, joinDate, now))
	return Entitlement{
		EmployeeID:  employeeID,
		LeaveType:   leaveType,
		Year:        year,
		Entitlement: entitlement,
		Accrued:     accrued,
		AccrualRate: rate,
		Available:   accrued,
	}
}
