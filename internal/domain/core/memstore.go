package core

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory is an in-memory StoreAPI used by tests and STORE_DRIVER=memory.
type Memory struct {
	mu        sync.RWMutex
	employees map[string]Employee
	// ListErr, when set, is returned by ListActive.
	ListErr error
}

func NewMemory() *Memory {
	return &Memory{employees: make(map[string]Employee)}
}

func (m *Memory) GetEmployee(_ context.Context, employeeID string) (*Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	emp, ok := m.employees[employeeID]
	if !ok {
		return nil, ErrEmployeeNotFound
	}
	return &emp, nil
}

func (m *Memory) ListActive(_ context.Context) ([]Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	return m.filterLocked(func(e Employee) bool { return e.IsActive() }), nil
}

func (m *Memory) ListByJoiningDate(_ context.Context, from, to time.Time) ([]Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := m.filterLocked(func(e Employee) bool {
		return !e.JoiningDate.Before(from) && !e.JoiningDate.After(to)
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].JoiningDate.Before(out[j].JoiningDate) })
	return out, nil
}

func (m *Memory) ListEmployees(_ context.Context, limit, offset int) ([]Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	all := m.filterLocked(func(Employee) bool { return true })
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].LastName == all[j].LastName {
			return all[i].FirstName < all[j].FirstName
		}
		return all[i].LastName < all[j].LastName
	})
	if offset >= len(all) {
		return nil, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}

func (m *Memory) CreateEmployee(_ context.Context, emp Employee) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if emp.ID == "" {
		emp.ID = uuid.NewString()
	}
	if emp.Status == "" {
		emp.Status = EmployeeStatusActive
	}
	now := time.Now()
	emp.CreatedAt, emp.UpdatedAt = now, now
	m.employees[emp.ID] = emp
	return emp.ID, nil
}

func (m *Memory) UpdateEmployeeStatus(_ context.Context, employeeID, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	emp, ok := m.employees[employeeID]
	if !ok {
		return ErrEmployeeNotFound
	}
	emp.Status = status
	emp.UpdatedAt = time.Now()
	m.employees[employeeID] = emp
	return nil
}

func (m *Memory) IsManagerOf(_ context.Context, managerEmployeeID, employeeID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	emp, ok := m.employees[employeeID]
	return ok && managerEmployeeID != "" && emp.ManagerID == managerEmployeeID, nil
}

// filterLocked returns matching employees ordered by id. Caller holds mu.
func (m *Memory) filterLocked(keep func(Employee) bool) []Employee {
	out := make([]Employee, 0, len(m.employees))
	for _, emp := range m.employees {
		if keep(emp) {
			out = append(out, emp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
