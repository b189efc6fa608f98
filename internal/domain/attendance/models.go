package attendance

import "time"

const (
	StatusPresent = "present"
	StatusAbsent  = "absent"
	StatusLate    = "late"
	StatusHalfDay = "half-day"
	StatusHoliday = "holiday"
)

var statuses = []string{StatusPresent, StatusAbsent, StatusLate, StatusHalfDay, StatusHoliday}

func ValidStatus(status string) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

// Record is one employee's attendance for one calendar day. Version is
// bumped on every write and guards conditional updates.
type Record struct {
	ID            string     `json:"id"`
	EmployeeID    string     `json:"employeeId"`
	Date          time.Time  `json:"date"`
	CheckIn       *time.Time `json:"checkIn,omitempty"`
	CheckOut      *time.Time `json:"checkOut,omitempty"`
	Status        string     `json:"status"`
	TotalHours    float64    `json:"totalHours"`
	OvertimeHours float64    `json:"overtimeHours"`
	ReminderSent  bool       `json:"reminderSent"`
	AutoCheckout  bool       `json:"autoCheckout"`
	Version       int        `json:"version"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

func (r Record) CheckedIn() bool {
	return r.CheckIn != nil
}

// Open reports a record that was checked in but never checked out.
func (r Record) Open() bool {
	return r.CheckIn != nil && r.CheckOut == nil
}

type RecordFilter struct {
	EmployeeID string
	From       time.Time
	To         time.Time
	Limit      int
	Offset     int
}

// AdminInput is an administrative override of one day's record.
type AdminInput struct {
	EmployeeID string
	Date       time.Time
	CheckIn    *time.Time
	CheckOut   *time.Time
	Status     string
}

type Mode string

const (
	ModeNone         Mode = "none"
	ModeReminder     Mode = "reminder"
	ModeAutoCheckout Mode = "auto-checkout"
)

// Summary reports what one reconciliation sweep did.
type Summary struct {
	Mode          Mode      `json:"mode"`
	Date          time.Time `json:"date,omitzero"`
	Processed     int       `json:"processed"`
	Absent        int       `json:"absent"`
	HalfDay       int       `json:"halfDay"`
	RemindersSent int       `json:"remindersSent"`
	AutoCheckouts int       `json:"autoCheckouts"`
	Failed        int       `json:"failed"`
	Message       string    `json:"message,omitempty"`
}
