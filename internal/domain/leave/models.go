package leave

import (
	"strconv"
	"strings"
	"time"

	"hrms/internal/domain/errs"
)

type LeaveType string

const (
	TypePTO         LeaveType = "pto"
	TypeLOP         LeaveType = "lop"
	TypeCompOff     LeaveType = "comp-off"
	TypeSick        LeaveType = "sick"
	TypeVacation    LeaveType = "vacation"
	TypePersonal    LeaveType = "personal"
	TypeMaternity   LeaveType = "maternity"
	TypePaternity   LeaveType = "paternity"
	TypeBereavement LeaveType = "bereavement"
	TypeOther       LeaveType = "other"
)

// LeaveTypes lists every leave type in display order.
var LeaveTypes = []LeaveType{
	TypePTO,
	TypeLOP,
	TypeCompOff,
	TypeSick,
	TypeVacation,
	TypePersonal,
	TypeMaternity,
	TypePaternity,
	TypeBereavement,
	TypeOther,
}

func (t LeaveType) Valid() bool {
	for _, known := range LeaveTypes {
		if t == known {
			return true
		}
	}
	return false
}

func ParseLeaveType(raw string) (LeaveType, error) {
	t := LeaveType(strings.ToLower(strings.TrimSpace(raw)))
	if !t.Valid() {
		return "", errs.Invalid("leaveType", "unknown leave type "+strconv.Quote(raw))
	}
	return t, nil
}

const (
	StatusPending   = "pending"
	StatusApproved  = "approved"
	StatusProcessed = "processed"
	StatusRejected  = "rejected"
	StatusCancelled = "cancelled"
)

var requestStatuses = []string{StatusPending, StatusApproved, StatusProcessed, StatusRejected, StatusCancelled}

func ValidStatus(status string) bool {
	for _, s := range requestStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// Entitlement is the per (employee, leave type, year) balance row.
type Entitlement struct {
	ID          string    `json:"id"`
	EmployeeID  string    `json:"employeeId"`
	LeaveType   LeaveType `json:"leaveType"`
	Year        int       `json:"year"`
	Entitlement float64   `json:"entitlement"`
	Accrued     float64   `json:"accrued"`
	Used        float64   `json:"used"`
	Pending     float64   `json:"pending"`
	Available   float64   `json:"available"`
	AccrualRate float64   `json:"accrualRate"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type Request struct {
	ID              string     `json:"id"`
	EmployeeID      string     `json:"employeeId"`
	LeaveType       LeaveType  `json:"leaveType"`
	StartDate       time.Time  `json:"startDate"`
	EndDate         time.Time  `json:"endDate"`
	TotalDays       int        `json:"totalDays"`
	Status          string     `json:"status"`
	Reason          string     `json:"reason"`
	ApprovedBy      string     `json:"approvedBy,omitempty"`
	ApprovedAt      *time.Time `json:"approvedAt,omitempty"`
	RejectionReason string     `json:"rejectionReason,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// Year is the ledger year a request is booked against: the year it starts in.
func (r Request) Year() int {
	return r.StartDate.Year()
}

type RequestFilter struct {
	EmployeeID string
	LeaveType  LeaveType
	Year       int
	Statuses   []string
	Limit      int
	Offset     int
}

type CreateRequestInput struct {
	EmployeeID string
	LeaveType  LeaveType
	StartDate  time.Time
	EndDate    time.Time
	Reason     string
}
