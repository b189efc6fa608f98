package leave

import (
	"context"
	"time"
)

type StoreAPI interface {
	GetEntitlement(ctx context.Context, employeeID string, leaveType LeaveType, year int) (*Entitlement, error)
	ListEntitlements(ctx context.Context, employeeID string, year int) ([]Entitlement, error)
	InsertEntitlement(ctx context.Context, ent Entitlement) (*Entitlement, error)
	UpdateBalance(ctx context.Context, ent Entitlement) (*Entitlement, error)

	GetRequest(ctx context.Context, requestID string) (*Request, error)
	ListRequests(ctx context.Context, filter RequestFilter) ([]Request, error)
	FindOverlapping(ctx context.Context, employeeID string, start, end time.Time, excludeID string) (*Request, error)
	CreateRequest(ctx context.Context, req Request) (*Request, error)
	// TransitionRequest moves a request from one status to another and fails
	// with ErrInvalidState when the stored status is no longer from.
	TransitionRequest(ctx context.Context, requestID, from string, update Request) (*Request, error)
}
