package attendance

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrms/internal/domain/core"
	"hrms/internal/domain/errs"
)

func newTestService(t *testing.T) (*Service, *core.Memory, string) {
	t.Helper()
	directory := core.NewMemory()
	id, err := directory.CreateEmployee(context.Background(), core.Employee{
		FirstName:   "Alan",
		LastName:    "Turing",
		Email:       "alan@example.com",
		JoiningDate: time.Date(2022, time.May, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return NewService(NewMemory(), directory, DefaultPolicy()), directory, id
}

func TestCheckInAndCheckOut(t *testing.T) {
	svc, _, empID := newTestService(t)
	ctx := context.Background()

	rec, err := svc.CheckIn(ctx, empID, at(6, 9, 0))
	require.NoError(t, err)
	assert.Equal(t, StatusPresent, rec.Status)
	assert.Equal(t, at(6, 0, 0), rec.Date)

	_, err = svc.CheckIn(ctx, empID, at(6, 9, 5))
	require.ErrorIs(t, err, ErrAlreadyCheckedIn)

	closed, err := svc.CheckOut(ctx, empID, at(6, 18, 30))
	require.NoError(t, err)
	assert.Equal(t, 9.5, closed.TotalHours)
	assert.Equal(t, 1.5, closed.OvertimeHours)
	assert.Equal(t, StatusPresent, closed.Status)
	assert.False(t, closed.AutoCheckout)

	_, err = svc.CheckOut(ctx, empID, at(6, 19, 0))
	require.ErrorIs(t, err, ErrAlreadyCheckedOut)
}

func TestCheckInLateAndShortDay(t *testing.T) {
	svc, _, empID := newTestService(t)
	ctx := context.Background()

	rec, err := svc.CheckIn(ctx, empID, at(6, 9, 45))
	require.NoError(t, err)
	assert.Equal(t, StatusLate, rec.Status)

	closed, err := svc.CheckOut(ctx, empID, at(6, 13, 45))
	require.NoError(t, err)
	assert.Equal(t, 4.0, closed.TotalHours)
	assert.Zero(t, closed.OvertimeHours)
	assert.Equal(t, StatusHalfDay, closed.Status)
}

func TestCheckOutRequiresCheckIn(t *testing.T) {
	svc, _, empID := newTestService(t)

	_, err := svc.CheckOut(context.Background(), empID, at(6, 18, 0))
	require.ErrorIs(t, err, ErrNotCheckedIn)
}

func TestCheckOutAfterMidnightClosesPreviousDay(t *testing.T) {
	svc, _, empID := newTestService(t)
	ctx := context.Background()

	_, err := svc.CheckIn(ctx, empID, at(6, 15, 0))
	require.NoError(t, err)

	closed, err := svc.CheckOut(ctx, empID, at(7, 0, 30))
	require.NoError(t, err)
	assert.Equal(t, at(6, 0, 0), closed.Date)
	assert.Equal(t, 9.5, closed.TotalHours)
	assert.Equal(t, 1.5, closed.OvertimeHours)
}

func TestCheckInTakesOverAbsentMark(t *testing.T) {
	svc, _, empID := newTestService(t)
	ctx := context.Background()

	_, err := svc.Store.Create(ctx, Record{EmployeeID: empID, Date: at(6, 0, 0), Status: StatusAbsent})
	require.NoError(t, err)

	rec, err := svc.CheckIn(ctx, empID, at(6, 9, 10))
	require.NoError(t, err)
	assert.Equal(t, StatusPresent, rec.Status)
	assert.Equal(t, 2, rec.Version)
}

func TestCheckInRejectsUnknownAndInactiveEmployees(t *testing.T) {
	svc, directory, empID := newTestService(t)
	ctx := context.Background()

	_, err := svc.CheckIn(ctx, "ghost", at(6, 9, 0))
	require.ErrorIs(t, err, errs.ErrNotFound)

	require.NoError(t, directory.UpdateEmployeeStatus(ctx, empID, core.EmployeeStatusInactive))
	_, err = svc.CheckIn(ctx, empID, at(6, 9, 0))
	require.ErrorIs(t, err, ErrEmployeeInactive)
}

func TestAdminUpsert(t *testing.T) {
	svc, _, empID := newTestService(t)
	ctx := context.Background()

	in, out := at(6, 8, 0), at(6, 18, 15)
	rec, err := svc.AdminUpsert(ctx, AdminInput{EmployeeID: empID, Date: at(6, 0, 0), CheckIn: &in, CheckOut: &out})
	require.NoError(t, err)
	assert.Equal(t, 10.25, rec.TotalHours)
	assert.Equal(t, 2.25, rec.OvertimeHours)
	assert.Equal(t, StatusPresent, rec.Status)

	shortOut := at(6, 11, 0)
	rec, err = svc.AdminUpsert(ctx, AdminInput{EmployeeID: empID, Date: at(6, 0, 0), CheckIn: &in, CheckOut: &shortOut})
	require.NoError(t, err)
	assert.Equal(t, 3.0, rec.TotalHours)
	assert.Equal(t, StatusHalfDay, rec.Status)
	assert.Equal(t, 2, rec.Version)

	rec, err = svc.AdminUpsert(ctx, AdminInput{EmployeeID: empID, Date: at(7, 0, 0), Status: StatusHoliday})
	require.NoError(t, err)
	assert.Equal(t, StatusHoliday, rec.Status)
	assert.Zero(t, rec.TotalHours)

	_, err = svc.AdminUpsert(ctx, AdminInput{EmployeeID: empID, Date: at(8, 0, 0), CheckIn: &out, CheckOut: &in})
	require.ErrorIs(t, err, errs.ErrValidation)
	_, err = svc.AdminUpsert(ctx, AdminInput{EmployeeID: empID, Date: at(8, 0, 0), Status: "remote"})
	require.ErrorIs(t, err, errs.ErrValidation)
	_, err = svc.AdminUpsert(ctx, AdminInput{EmployeeID: "ghost", Date: at(8, 0, 0)})
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestTodayAndList(t *testing.T) {
	svc, _, empID := newTestService(t)
	ctx := context.Background()

	_, err := svc.Today(ctx, empID, at(6, 10, 0))
	require.ErrorIs(t, err, errs.ErrNotFound)

	for day := 4; day <= 6; day++ {
		_, err := svc.CheckIn(ctx, empID, at(day, 9, 0))
		require.NoError(t, err)
	}

	today, err := svc.Today(ctx, empID, at(6, 10, 0))
	require.NoError(t, err)
	assert.Equal(t, at(6, 0, 0), today.Date)

	records, err := svc.List(ctx, RecordFilter{EmployeeID: empID, From: at(5, 0, 0), To: at(6, 0, 0)})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, at(6, 0, 0), records[0].Date)

	_, err = svc.List(ctx, RecordFilter{From: at(6, 0, 0), To: at(5, 0, 0)})
	require.ErrorIs(t, err, errs.ErrValidation)
}
