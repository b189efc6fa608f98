package notifications

import (
	"fmt"
	"strings"

	"hrms/internal/domain/leave"
)

type message struct {
	Subject string
	Body    string
}

func checkoutReminder(name string) message {
	greeting := "Hello"
	if name = strings.TrimSpace(name); name != "" {
		greeting += " " + name
	}
	return message{
		Subject: "Reminder: you have not checked out today",
		Body: greeting + ",\n\n" +
			"You checked in today but have not checked out yet. " +
			"Please check out before midnight; open records are closed automatically at 23:59:59 " +
			"and auto check-outs do not count towards overtime.\n",
	}
}

func leaveMessage(ntype, name string, req leave.Request) message {
	span := req.StartDate.Format("2006-01-02")
	if !req.EndDate.Equal(req.StartDate) {
		span += " to " + req.EndDate.Format("2006-01-02")
	}
	days := fmt.Sprintf("%d day", req.TotalDays)
	if req.TotalDays != 1 {
		days += "s"
	}

	var subject, outcome string
	switch ntype {
	case TypeLeaveSubmitted:
		subject, outcome = "Leave request submitted", "was submitted and is awaiting approval"
	case TypeLeaveApproved:
		subject, outcome = "Leave request approved", "was approved"
	case TypeLeaveRejected:
		subject, outcome = "Leave request rejected", "was rejected"
	case TypeLeaveCancelled:
		subject, outcome = "Leave request cancelled", "was cancelled"
	default:
		subject, outcome = "Leave request updated", "changed status to "+req.Status
	}

	body := fmt.Sprintf("Hello %s,\n\nYour %s leave request for %s (%s) %s.\n", name, req.LeaveType, span, days, outcome)
	if req.RejectionReason != "" {
		body += "Reason: " + req.RejectionReason + "\n"
	}
	return message{Subject: subject, Body: body}
}
