package leave

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 2.35, Round2(2.345))
	assert.Equal(t, 1.01, Round2(1.005))
	assert.Equal(t, 1.5, Round2(1.5))
	assert.Equal(t, 0.33, Round2(1.0/3))
}

func TestProRatedEntitlement(t *testing.T) {
	tests := []struct {
		name string
		join time.Time
		want float64
	}{
		{"joined before year", date(2023, time.June, 1), 12},
		{"joined january", date(2024, time.January, 20), 12},
		{"joined march", date(2024, time.March, 1), 10},
		{"joined july", date(2024, time.July, 15), 6},
		{"joined december", date(2024, time.December, 31), 1},
		{"joined after year", date(2025, time.January, 1), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ProRatedEntitlement(12, tt.join, 2024))
		})
	}
}

func TestProRatedEntitlementStaysWithinAnnualAndScales(t *testing.T) {
	for month := time.January; month <= time.December; month++ {
		join := date(2024, month, 10)
		got := ProRatedEntitlement(12, join, 2024)
		assert.GreaterOrEqual(t, got, 0.0)
		assert.LessOrEqual(t, got, 12.0)
		assert.Equal(t, 2*ProRatedEntitlement(6, join, 2024), ProRatedEntitlement(12, join, 2024))
	}
}

func TestMonthDiff(t *testing.T) {
	assert.Equal(t, 0, MonthDiff(date(2024, time.March, 31), date(2024, time.March, 1)))
	assert.Equal(t, 13, MonthDiff(date(2023, time.February, 1), date(2024, time.March, 1)))
	assert.Equal(t, -2, MonthDiff(date(2024, time.May, 1), date(2024, time.March, 1)))
}

func TestAccruedDaysCountsStartedMonths(t *testing.T) {
	join := date(2024, time.January, 15)
	assert.Equal(t, 2.0, AccruedDays(1, join, date(2024, time.March, 14)))
	assert.Equal(t, 3.0, AccruedDays(1, join, date(2024, time.March, 15)))
	assert.Equal(t, 0.0, AccruedDays(1, join, date(2023, time.December, 1)))
	assert.Equal(t, 1.5, AccruedDays(0.5, join, date(2024, time.March, 20)))
}

func TestAccruedDaysIsMonotonic(t *testing.T) {
	join := date(2024, time.April, 12)
	prev := 0.0
	for now := date(2024, time.January, 1); now.Year() == 2024; now = now.AddDate(0, 0, 1) {
		got := AccruedDays(1, join, now)
		assert.GreaterOrEqual(t, got, prev, "accrual decreased on %s", now.Format(time.DateOnly))
		prev = got
	}
}

func TestNewEntitlement(t *testing.T) {
	t.Run("mid-year joiner accrues from join month", func(t *testing.T) {
		ent := NewEntitlement("emp-1", TypePTO, 2024, 12, date(2024, time.July, 10), date(2024, time.September, 20))
		assert.Equal(t, 6.0, ent.Entitlement)
		assert.Equal(t, 1.0, ent.AccrualRate)
		assert.Equal(t, 3.0, ent.Accrued)
		assert.Equal(t, ent.Accrued, ent.Available)
		assert.Zero(t, ent.Used)
		assert.Zero(t, ent.Pending)
	})

	t.Run("accrual is clamped to entitlement", func(t *testing.T) {
		ent := NewEntitlement("emp-1", TypePTO, 2024, 12, date(2020, time.January, 1), date(2024, time.December, 31))
		assert.Equal(t, 12.0, ent.Entitlement)
		assert.Equal(t, 12.0, ent.Accrued)
	})

	t.Run("non accruing type", func(t *testing.T) {
		ent := NewEntitlement("emp-1", TypeLOP, 2024, 0, date(2020, time.January, 1), date(2024, time.June, 1))
		assert.Zero(t, ent.Entitlement)
		assert.Zero(t, ent.Accrued)
		assert.Zero(t, ent.Available)
	})
}

func TestParsePolicy(t *testing.T) {
	table, err := ParsePolicy("")
	assert.NoError(t, err)
	assert.Equal(t, DefaultPolicy(), table)

	table, err = ParsePolicy(" pto=15, sick=8 ,")
	assert.NoError(t, err)
	assert.Equal(t, 15.0, table.Annual(TypePTO))
	assert.Equal(t, 8.0, table.Annual(TypeSick))
	assert.Equal(t, 90.0, table.Annual(TypeMaternity))
	assert.False(t, table.Accruing(TypeLOP))

	_, err = ParsePolicy("pto")
	assert.Error(t, err)
	_, err = ParsePolicy("holiday=3")
	assert.Error(t, err)
	_, err = ParsePolicy("pto=-1")
	assert.Error(t, err)
}
