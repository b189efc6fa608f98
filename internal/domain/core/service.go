package core

import (
	"context"
	"strings"
	"time"

	"hrms/internal/domain/errs"
)

var ErrInvalidEmployee = errs.Invalid("employee", "firstName, email and joiningDate are required")

type Service struct {
	store StoreAPI
}

func NewService(store StoreAPI) *Service {
	return &Service{store: store}
}

func (s *Service) Get(ctx context.Context, employeeID string) (*Employee, error) {
	return s.store.GetEmployee(ctx, employeeID)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]Employee, error) {
	return s.store.ListEmployees(ctx, limit, offset)
}

// JoinedBetween lists employees whose joining date falls in [from, to]; used
// to find new hires whose entitlements are pro-rated.
func (s *Service) JoinedBetween(ctx context.Context, from, to time.Time) ([]Employee, error) {
	return s.store.ListByJoiningDate(ctx, from, to)
}

func (s *Service) Create(ctx context.Context, emp Employee) (string, error) {
	emp.FirstName = strings.TrimSpace(emp.FirstName)
	emp.LastName = strings.TrimSpace(emp.LastName)
	emp.Email = strings.TrimSpace(strings.ToLower(emp.Email))
	if emp.FirstName == "" || emp.Email == "" || emp.JoiningDate.IsZero() {
		return "", ErrInvalidEmployee
	}
	return s.store.CreateEmployee(ctx, emp)
}

func (s *Service) Deactivate(ctx context.Context, employeeID string) error {
	return s.store.UpdateEmployeeStatus(ctx, employeeID, EmployeeStatusInactive)
}

func (s *Service) IsManagerOf(ctx context.Context, managerEmployeeID, employeeID string) (bool, error) {
	if managerEmployeeID == "" {
		return false, nil
	}
	return s.store.IsManagerOf(ctx, managerEmployeeID, employeeID)
}
