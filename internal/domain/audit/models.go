package audit

import (
	"encoding/json"
	"time"
)

const (
	ActionLeaveApprove       = "leave.request.approve"
	ActionLeaveReject        = "leave.request.reject"
	ActionLeaveCancel        = "leave.request.cancel"
	ActionLeaveOverride      = "leave.request.override"
	ActionLeaveRecompute     = "leave.balance.recompute"
	ActionAttendanceOverride = "attendance.record.override"
	ActionEmployeeCreate     = "employee.create"
	ActionEmployeeDeactivate = "employee.deactivate"
)

type Event struct {
	ID         string          `json:"id"`
	ActorID    string          `json:"actorId"`
	Action     string          `json:"action"`
	EntityType string          `json:"entityType"`
	EntityID   string          `json:"entityId"`
	RequestID  string          `json:"requestId"`
	IP         string          `json:"ip"`
	CreatedAt  time.Time       `json:"createdAt"`
	Before     json.RawMessage `json:"before,omitempty"`
	After      json.RawMessage `json:"after,omitempty"`
}

type Filter struct {
	Action     string
	EntityType string
	EntityID   string
	ActorID    string
	Limit      int
	Offset     int
}
