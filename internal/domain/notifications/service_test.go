package notifications

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrms/internal/domain/core"
	"hrms/internal/domain/errs"
	"hrms/internal/domain/leave"
)

type sentMail struct {
	from, to, subject, body string
}

type recordingMailer struct {
	sent []sentMail
	err  error
}

func (m *recordingMailer) Send(_ context.Context, from, to, subject, body string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{from, to, subject, body})
	return nil
}

func TestSendCheckoutReminder(t *testing.T) {
	mailer := &recordingMailer{}
	svc := New(mailer, nil, "hr@example.com")

	require.NoError(t, svc.SendCheckoutReminder(context.Background(), "ada@example.com", "Ada Lovelace"))
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "hr@example.com", mailer.sent[0].from)
	assert.Equal(t, "ada@example.com", mailer.sent[0].to)
	assert.Contains(t, mailer.sent[0].body, "Hello Ada Lovelace")

	err := svc.SendCheckoutReminder(context.Background(), " ", "Nobody")
	require.ErrorIs(t, err, errs.ErrValidation)
}

func TestSendCheckoutReminderWrapsDeliveryFailure(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	svc := New(&recordingMailer{err: cause}, nil, "")

	err := svc.SendCheckoutReminder(context.Background(), "ada@example.com", "Ada")
	require.ErrorIs(t, err, errs.ErrExternalService)
	require.ErrorIs(t, err, cause)
	var external *errs.ExternalServiceError
	require.ErrorAs(t, err, &external)
	assert.Equal(t, "email", external.Service)
}

func TestLeaveUpdate(t *testing.T) {
	directory := core.NewMemory()
	empID, err := directory.CreateEmployee(context.Background(), core.Employee{
		FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com",
		JoiningDate: time.Date(2022, time.January, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	mailer := &recordingMailer{}
	svc := New(mailer, directory, "hr@example.com")

	svc.LeaveUpdate(context.Background(), TypeLeaveRejected, leave.Request{
		ID:              "req-1",
		EmployeeID:      empID,
		LeaveType:       leave.TypePTO,
		StartDate:       time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC),
		EndDate:         time.Date(2024, time.March, 8, 0, 0, 0, 0, time.UTC),
		TotalDays:       5,
		Status:          leave.StatusRejected,
		RejectionReason: "coverage",
	})
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "Leave request rejected", mailer.sent[0].subject)
	assert.Contains(t, mailer.sent[0].body, "2024-03-04 to 2024-03-08 (5 days)")
	assert.Contains(t, mailer.sent[0].body, "Reason: coverage")

	svc.LeaveUpdate(context.Background(), TypeLeaveApproved, leave.Request{EmployeeID: "ghost"})
	assert.Len(t, mailer.sent, 1)
}
