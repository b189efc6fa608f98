package core

import (
	"context"
	"time"
)

// Directory is the read side of the employee store used by the leave and
// attendance domains.
type Directory interface {
	GetEmployee(ctx context.Context, employeeID string) (*Employee, error)
	ListActive(ctx context.Context) ([]Employee, error)
	ListByJoiningDate(ctx context.Context, from, to time.Time) ([]Employee, error)
}

type StoreAPI interface {
	Directory
	ListEmployees(ctx context.Context, limit, offset int) ([]Employee, error)
	CreateEmployee(ctx context.Context, emp Employee) (string, error)
	UpdateEmployeeStatus(ctx context.Context, employeeID, status string) error
	IsManagerOf(ctx context.Context, managerEmployeeID, employeeID string) (bool, error)
}
