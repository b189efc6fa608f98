package leave

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrms/internal/domain/core"
	"hrms/internal/domain/errs"
)

var ledgerNow = time.Date(2024, time.June, 10, 12, 0, 0, 0, time.UTC)

func newTestLedger(t *testing.T, joined time.Time) (*Ledger, *Memory, string) {
	t.Helper()
	directory := core.NewMemory()
	id, err := directory.CreateEmployee(context.Background(), core.Employee{
		FirstName:   "Grace",
		LastName:    "Hopper",
		Email:       "grace@example.com",
		JoiningDate: joined,
	})
	require.NoError(t, err)
	store := NewMemory()
	return NewLedger(store, directory, DefaultPolicy()), store, id
}

func createRequest(t *testing.T, ledger *Ledger, employeeID string, leaveType LeaveType, start, end time.Time) *Request {
	t.Helper()
	req, err := ledger.CreateRequest(context.Background(), CreateRequestInput{
		EmployeeID: employeeID,
		LeaveType:  leaveType,
		StartDate:  start,
		EndDate:    end,
		Reason:     "family",
	}, ledgerNow)
	require.NoError(t, err)
	return req
}

func TestGetOrCreateEntitlementCreatesOnce(t *testing.T) {
	ledger, _, empID := newTestLedger(t, date(2023, time.January, 1))
	ctx := context.Background()

	first, err := ledger.GetOrCreateEntitlement(ctx, empID, TypePTO, 2024, ledgerNow)
	require.NoError(t, err)
	assert.Equal(t, 12.0, first.Entitlement)
	assert.Equal(t, 12.0, first.Accrued)
	assert.Equal(t, 12.0, first.Available)
	assert.Equal(t, 1.0, first.AccrualRate)

	second, err := ledger.GetOrCreateEntitlement(ctx, empID, TypePTO, 2024, ledgerNow.AddDate(0, 3, 0))
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestGetOrCreateEntitlementProRatesMidYearJoiner(t *testing.T) {
	ledger, _, empID := newTestLedger(t, date(2024, time.April, 20))

	ent, err := ledger.GetOrCreateEntitlement(context.Background(), empID, TypeSick, 2024, ledgerNow)
	require.NoError(t, err)
	assert.Equal(t, 4.5, ent.Entitlement)
	assert.Equal(t, 0.5, ent.AccrualRate)
	assert.Equal(t, 1.0, ent.Accrued)
}

func TestGetOrCreateEntitlementUnknownEmployee(t *testing.T) {
	ledger, _, _ := newTestLedger(t, date(2023, time.January, 1))

	_, err := ledger.GetOrCreateEntitlement(context.Background(), "missing", TypePTO, 2024, ledgerNow)
	require.ErrorIs(t, err, errs.ErrNotFound)
	var notFound *errs.NotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, "missing", notFound.ID)
}

// lateReader hides the stored row from the first lookup, as when a
// concurrent writer inserts between our read and our insert.
type lateReader struct {
	*Memory
	misses int
}

func (l *lateReader) GetEntitlement(ctx context.Context, employeeID string, leaveType LeaveType, year int) (*Entitlement, error) {
	if l.misses > 0 {
		l.misses--
		return nil, ErrEntitlementNotFound
	}
	return l.Memory.GetEntitlement(ctx, employeeID, leaveType, year)
}

func TestGetOrCreateEntitlementReadsWinnerOnDuplicate(t *testing.T) {
	ledger, store, empID := newTestLedger(t, date(2023, time.January, 1))
	ctx := context.Background()

	winner, err := ledger.GetOrCreateEntitlement(ctx, empID, TypePTO, 2024, ledgerNow)
	require.NoError(t, err)

	ledger.Store = &lateReader{Memory: store, misses: 1}
	got, err := ledger.GetOrCreateEntitlement(ctx, empID, TypePTO, 2024, ledgerNow)
	require.NoError(t, err)
	assert.Equal(t, winner.ID, got.ID)
}

func TestRecomputeBalanceFollowsRequestLedger(t *testing.T) {
	ledger, _, empID := newTestLedger(t, date(2023, time.January, 1))
	ctx := context.Background()

	createRequest(t, ledger, empID, TypePTO, date(2024, time.March, 4), date(2024, time.March, 8))
	approved := createRequest(t, ledger, empID, TypePTO, date(2024, time.April, 1), date(2024, time.April, 3))
	_, err := ledger.ApproveRequest(ctx, approved.ID, "manager-1", ledgerNow)
	require.NoError(t, err)
	rejected := createRequest(t, ledger, empID, TypePTO, date(2024, time.May, 6), date(2024, time.May, 6))
	_, err = ledger.RejectRequest(ctx, rejected.ID, "manager-1", "coverage", ledgerNow)
	require.NoError(t, err)

	ent, err := ledger.RecomputeBalance(ctx, empID, TypePTO, 2024, ledgerNow)
	require.NoError(t, err)
	assert.Equal(t, 3.0, ent.Used)
	assert.Equal(t, 5.0, ent.Pending)
	assert.Equal(t, 4.0, ent.Available)

	again, err := ledger.RecomputeBalance(ctx, empID, TypePTO, 2024, ledgerNow)
	require.NoError(t, err)
	assert.Equal(t, ent.Used, again.Used)
	assert.Equal(t, ent.Pending, again.Pending)
	assert.Equal(t, ent.Available, again.Available)

	_, err = ledger.OverrideStatus(ctx, approved.ID, StatusProcessed, "hr-1", ledgerNow)
	require.NoError(t, err)
	processed, err := ledger.RecomputeBalance(ctx, empID, TypePTO, 2024, ledgerNow)
	require.NoError(t, err)
	assert.Equal(t, 3.0, processed.Used)
}

func TestRecomputeBalanceIgnoresOtherYears(t *testing.T) {
	ledger, _, empID := newTestLedger(t, date(2023, time.January, 1))
	ctx := context.Background()

	createRequest(t, ledger, empID, TypePTO, date(2024, time.December, 30), date(2025, time.January, 2))

	ent2024, err := ledger.RecomputeBalance(ctx, empID, TypePTO, 2024, ledgerNow)
	require.NoError(t, err)
	assert.Equal(t, 4.0, ent2024.Pending)

	ent2025, err := ledger.RecomputeBalance(ctx, empID, TypePTO, 2025, ledgerNow)
	require.NoError(t, err)
	assert.Zero(t, ent2025.Pending)
}

func TestCreateRequestRejectsOverlap(t *testing.T) {
	ledger, _, empID := newTestLedger(t, date(2023, time.January, 1))
	ctx := context.Background()

	existing := createRequest(t, ledger, empID, TypePTO, date(2024, time.March, 15), date(2024, time.March, 20))

	_, err := ledger.CreateRequest(ctx, CreateRequestInput{
		EmployeeID: empID, LeaveType: TypeSick,
		StartDate: date(2024, time.March, 10), EndDate: date(2024, time.March, 15),
	}, ledgerNow)
	require.ErrorIs(t, err, ErrOverlap)

	overlap, err := ledger.FindOverlapping(ctx, empID, date(2024, time.March, 10), date(2024, time.March, 15), "")
	require.NoError(t, err)
	require.NotNil(t, overlap)
	assert.Equal(t, existing.ID, overlap.ID)

	none, err := ledger.FindOverlapping(ctx, empID, date(2024, time.March, 10), date(2024, time.March, 14), "")
	require.NoError(t, err)
	assert.Nil(t, none)

	self, err := ledger.FindOverlapping(ctx, empID, date(2024, time.March, 15), date(2024, time.March, 20), existing.ID)
	require.NoError(t, err)
	assert.Nil(t, self)

	createRequest(t, ledger, empID, TypeSick, date(2024, time.March, 11), date(2024, time.March, 14))
}

func TestCreateRequestIgnoresResolvedRequestsForOverlap(t *testing.T) {
	ledger, _, empID := newTestLedger(t, date(2023, time.January, 1))
	ctx := context.Background()

	req := createRequest(t, ledger, empID, TypePTO, date(2024, time.March, 15), date(2024, time.March, 20))
	_, err := ledger.CancelRequest(ctx, req.ID, empID, ledgerNow)
	require.NoError(t, err)

	createRequest(t, ledger, empID, TypePTO, date(2024, time.March, 15), date(2024, time.March, 20))
}

func TestConcurrentCreatesBookOnce(t *testing.T) {
	ledger, store, empID := newTestLedger(t, date(2023, time.January, 1))

	const attempts = 8
	var wg sync.WaitGroup
	errCh := make(chan error, attempts)
	for range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ledger.CreateRequest(context.Background(), CreateRequestInput{
				EmployeeID: empID, LeaveType: TypePTO,
				StartDate: date(2024, time.May, 6), EndDate: date(2024, time.May, 7),
			}, ledgerNow)
			errCh <- err
		}()
	}
	wg.Wait()
	close(errCh)

	created := 0
	for err := range errCh {
		if err == nil {
			created++
			continue
		}
		assert.ErrorIs(t, err, ErrOverlap)
	}
	assert.Equal(t, 1, created)

	requests, err := store.ListRequests(context.Background(), RequestFilter{EmployeeID: empID})
	require.NoError(t, err)
	assert.Len(t, requests, 1)
}

func TestOverrideCannotReopenOverlappingRequest(t *testing.T) {
	ledger, _, empID := newTestLedger(t, date(2023, time.January, 1))
	ctx := context.Background()

	first := createRequest(t, ledger, empID, TypePTO, date(2024, time.March, 15), date(2024, time.March, 20))
	_, err := ledger.CancelRequest(ctx, first.ID, empID, ledgerNow)
	require.NoError(t, err)
	createRequest(t, ledger, empID, TypePTO, date(2024, time.March, 18), date(2024, time.March, 19))

	_, err = ledger.OverrideStatus(ctx, first.ID, StatusApproved, "hr-1", ledgerNow)
	require.ErrorIs(t, err, ErrOverlap)

	reloaded, err := ledger.GetRequest(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, reloaded.Status)
}

func TestCreateRequestChecksBalanceForAccruingTypes(t *testing.T) {
	ledger, _, empID := newTestLedger(t, date(2024, time.June, 1))
	ctx := context.Background()

	_, err := ledger.CreateRequest(ctx, CreateRequestInput{
		EmployeeID: empID, LeaveType: TypePTO,
		StartDate: date(2024, time.July, 1), EndDate: date(2024, time.July, 2),
	}, ledgerNow)
	require.ErrorIs(t, err, ErrInsufficientBalance)

	single := createRequest(t, ledger, empID, TypePTO, date(2024, time.July, 1), date(2024, time.July, 1))
	assert.Equal(t, 1, single.TotalDays)

	unpaid := createRequest(t, ledger, empID, TypeLOP, date(2024, time.August, 5), date(2024, time.August, 9))
	assert.Equal(t, 5, unpaid.TotalDays)
	assert.Equal(t, StatusPending, unpaid.Status)
}

func TestCreateRequestValidatesInput(t *testing.T) {
	ledger, _, empID := newTestLedger(t, date(2023, time.January, 1))
	ctx := context.Background()

	_, err := ledger.CreateRequest(ctx, CreateRequestInput{
		EmployeeID: empID, LeaveType: TypePTO,
		StartDate: date(2024, time.March, 8), EndDate: date(2024, time.March, 4),
	}, ledgerNow)
	require.ErrorIs(t, err, ErrInvalidRange)

	_, err = ledger.CreateRequest(ctx, CreateRequestInput{
		EmployeeID: empID, LeaveType: "sabbatical",
		StartDate: date(2024, time.March, 4), EndDate: date(2024, time.March, 4),
	}, ledgerNow)
	require.ErrorIs(t, err, errs.ErrValidation)

	_, err = ledger.CreateRequest(ctx, CreateRequestInput{
		EmployeeID: "ghost", LeaveType: TypePTO,
		StartDate: date(2024, time.March, 4), EndDate: date(2024, time.March, 4),
	}, ledgerNow)
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestRequestTransitionsOnlyFromPending(t *testing.T) {
	ledger, _, empID := newTestLedger(t, date(2023, time.January, 1))
	ctx := context.Background()

	req := createRequest(t, ledger, empID, TypePTO, date(2024, time.March, 4), date(2024, time.March, 5))
	approved, err := ledger.ApproveRequest(ctx, req.ID, "manager-1", ledgerNow)
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, approved.Status)
	assert.Equal(t, "manager-1", approved.ApprovedBy)
	require.NotNil(t, approved.ApprovedAt)

	_, err = ledger.ApproveRequest(ctx, req.ID, "manager-1", ledgerNow)
	require.ErrorIs(t, err, ErrInvalidState)
	_, err = ledger.RejectRequest(ctx, req.ID, "manager-1", "late", ledgerNow)
	require.ErrorIs(t, err, ErrInvalidState)
	_, err = ledger.CancelRequest(ctx, req.ID, empID, ledgerNow)
	require.ErrorIs(t, err, ErrInvalidState)

	_, err = ledger.ApproveRequest(ctx, "missing", "manager-1", ledgerNow)
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestRejectAndCancel(t *testing.T) {
	ledger, _, empID := newTestLedger(t, date(2023, time.January, 1))
	ctx := context.Background()

	toReject := createRequest(t, ledger, empID, TypePTO, date(2024, time.March, 4), date(2024, time.March, 5))
	rejected, err := ledger.RejectRequest(ctx, toReject.ID, "manager-1", " short staffed ", ledgerNow)
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, rejected.Status)
	assert.Equal(t, "short staffed", rejected.RejectionReason)

	toCancel := createRequest(t, ledger, empID, TypePTO, date(2024, time.April, 4), date(2024, time.April, 5))
	_, err = ledger.CancelRequest(ctx, toCancel.ID, "someone-else", ledgerNow)
	require.ErrorIs(t, err, ErrForbidden)

	cancelled, err := ledger.CancelRequest(ctx, toCancel.ID, empID, ledgerNow)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)

	ent, err := ledger.GetOrCreateEntitlement(ctx, empID, TypePTO, 2024, ledgerNow)
	require.NoError(t, err)
	assert.Zero(t, ent.Pending)
	assert.Equal(t, 12.0, ent.Available)
}

func TestBalancesCoversPolicyAndTrackedTypes(t *testing.T) {
	ledger, _, empID := newTestLedger(t, date(2023, time.January, 1))
	ctx := context.Background()

	createRequest(t, ledger, empID, TypeLOP, date(2024, time.March, 4), date(2024, time.March, 5))

	balances, err := ledger.Balances(ctx, empID, 2024, ledgerNow)
	require.NoError(t, err)

	var types []LeaveType
	for _, b := range balances {
		types = append(types, b.LeaveType)
	}
	assert.Equal(t, []LeaveType{TypePTO, TypeLOP, TypeSick, TypeMaternity, TypePaternity, TypeBereavement}, types)
	assert.Equal(t, 2.0, balances[1].Pending)
	assert.Zero(t, balances[1].Available)
}

func TestListRequestsFilters(t *testing.T) {
	ledger, _, empID := newTestLedger(t, date(2023, time.January, 1))
	ctx := context.Background()

	first := createRequest(t, ledger, empID, TypePTO, date(2024, time.March, 4), date(2024, time.March, 5))
	createRequest(t, ledger, empID, TypeSick, date(2024, time.April, 4), date(2024, time.April, 4))
	_, err := ledger.ApproveRequest(ctx, first.ID, "manager-1", ledgerNow)
	require.NoError(t, err)

	approved, err := ledger.ListRequests(ctx, RequestFilter{EmployeeID: empID, Statuses: []string{StatusApproved}})
	require.NoError(t, err)
	require.Len(t, approved, 1)
	assert.Equal(t, first.ID, approved[0].ID)

	all, err := ledger.ListRequests(ctx, RequestFilter{EmployeeID: empID, Year: 2024})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, TypeSick, all[0].LeaveType)

	page, err := ledger.ListRequests(ctx, RequestFilter{EmployeeID: empID, Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, first.ID, page[0].ID)

	_, err = ledger.ListRequests(ctx, RequestFilter{Statuses: []string{"done"}})
	require.ErrorIs(t, err, errs.ErrValidation)
}
