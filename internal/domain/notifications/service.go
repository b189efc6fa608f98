package notifications

import (
	"context"
	"log/slog"
	"strings"

	"hrms/internal/domain/core"
	"hrms/internal/domain/errs"
	"hrms/internal/domain/leave"
)

type Mailer interface {
	Send(ctx context.Context, from, to, subject, body string) error
}

type Service struct {
	Mailer      Mailer
	Directory   core.Directory
	DefaultFrom string
}

func New(mailer Mailer, directory core.Directory, from string) *Service {
	if from == "" {
		from = "no-reply@example.com"
	}
	return &Service{Mailer: mailer, Directory: directory, DefaultFrom: from}
}

// SendCheckoutReminder mails the end-of-day reminder. Delivery failures are
// returned as ExternalServiceError so the caller can count and skip them.
func (s *Service) SendCheckoutReminder(ctx context.Context, to, name string) error {
	if strings.TrimSpace(to) == "" {
		return errs.Invalid("email", "employee has no email address")
	}
	msg := checkoutReminder(name)
	return errs.External("email", s.Mailer.Send(ctx, s.DefaultFrom, to, msg.Subject, msg.Body))
}

// LeaveUpdate tells the requesting employee about a leave request event.
// It is best effort: failures are logged and never returned.
func (s *Service) LeaveUpdate(ctx context.Context, ntype string, req leave.Request) {
	if s.Mailer == nil || s.Directory == nil {
		return
	}
	emp, err := s.Directory.GetEmployee(ctx, req.EmployeeID)
	if err != nil {
		slog.Warn("notification email lookup failed", "employeeId", req.EmployeeID, "err", err)
		return
	}
	if emp.Email == "" {
		return
	}
	msg := leaveMessage(ntype, emp.FullName(), req)
	if err := s.Mailer.Send(ctx, s.DefaultFrom, emp.Email, msg.Subject, msg.Body); err != nil {
		slog.Warn("notification email send failed", "type", ntype, "requestId", req.ID, "err", err)
	}
}
