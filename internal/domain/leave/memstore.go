package leave

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type entitlementKey struct {
	employeeID string
	leaveType  LeaveType
	year       int
}

// Memory is an in-memory StoreAPI used by tests and STORE_DRIVER=memory.
type Memory struct {
	mu           sync.RWMutex
	entitlements map[entitlementKey]Entitlement
	requests     map[string]Request
	now          func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		entitlements: make(map[entitlementKey]Entitlement),
		requests:     make(map[string]Request),
		now:          time.Now,
	}
}

func (m *Memory) GetEntitlement(_ context.Context, employeeID string, leaveType LeaveType, year int) (*Entitlement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ent, ok := m.entitlements[entitlementKey{employeeID, leaveType, year}]
	if !ok {
		return nil, ErrEntitlementNotFound
	}
	return &ent, nil
}

func (m *Memory) ListEntitlements(_ context.Context, employeeID string, year int) ([]Entitlement, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Entitlement
	for key, ent := range m.entitlements {
		if key.employeeID == employeeID && key.year == year {
			out = append(out, ent)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LeaveType < out[j].LeaveType })
	return out, nil
}

func (m *Memory) InsertEntitlement(_ context.Context, ent Entitlement) (*Entitlement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := entitlementKey{ent.EmployeeID, ent.LeaveType, ent.Year}
	if _, exists := m.entitlements[key]; exists {
		return nil, ErrDuplicateEntitlement
	}
	ent.ID = uuid.NewString()
	ent.CreatedAt = m.now()
	ent.UpdatedAt = ent.CreatedAt
	m.entitlements[key] = ent
	return &ent, nil
}

func (m *Memory) UpdateBalance(_ context.Context, ent Entitlement) (*Entitlement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, stored := range m.entitlements {
		if stored.ID != ent.ID {
			continue
		}
		stored.Used = ent.Used
		stored.Pending = ent.Pending
		stored.Available = ent.Available
		stored.UpdatedAt = m.now()
		m.entitlements[key] = stored
		return &stored, nil
	}
	return nil, ErrEntitlementNotFound
}

func (m *Memory) GetRequest(_ context.Context, requestID string) (*Request, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	req, ok := m.requests[requestID]
	if !ok {
		return nil, ErrRequestNotFound
	}
	return &req, nil
}

func (m *Memory) ListRequests(_ context.Context, filter RequestFilter) ([]Request, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Request
	for _, req := range m.requests {
		if filter.EmployeeID != "" && req.EmployeeID != filter.EmployeeID {
			continue
		}
		if filter.LeaveType != "" && req.LeaveType != filter.LeaveType {
			continue
		}
		if filter.Year != 0 && req.Year() != filter.Year {
			continue
		}
		if len(filter.Statuses) > 0 && !slices.Contains(filter.Statuses, req.Status) {
			continue
		}
		out = append(out, req)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartDate.Equal(out[j].StartDate) {
			return out[i].StartDate.After(out[j].StartDate)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if filter.Limit > 0 {
		if filter.Offset >= len(out) {
			return nil, nil
		}
		out = out[filter.Offset:min(len(out), filter.Offset+filter.Limit)]
	}
	return out, nil
}

func (m *Memory) FindOverlapping(_ context.Context, employeeID string, start, end time.Time, excludeID string) (*Request, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var found *Request
	for _, req := range m.requests {
		if req.EmployeeID != employeeID || req.ID == excludeID || !blocksBooking(req.Status) {
			continue
		}
		if !Overlaps(req.StartDate, req.EndDate, start, end) {
			continue
		}
		if found == nil || req.StartDate.Before(found.StartDate) {
			match := req
			found = &match
		}
	}
	return found, nil
}

// CreateRequest rejects a booking range that intersects another pending or
// approved request of the same employee, checked under the write lock.
func (m *Memory) CreateRequest(_ context.Context, req Request) (*Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if blocksBooking(req.Status) && m.overlapsLocked(req, "") {
		return nil, ErrOverlap
	}
	req.ID = uuid.NewString()
	req.CreatedAt = m.now()
	req.UpdatedAt = req.CreatedAt
	m.requests[req.ID] = req
	return &req, nil
}

func (m *Memory) TransitionRequest(_ context.Context, requestID, from string, update Request) (*Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.requests[requestID]
	if !ok {
		return nil, ErrRequestNotFound
	}
	if req.Status != from {
		return nil, ErrInvalidState
	}
	if !blocksBooking(req.Status) && blocksBooking(update.Status) && m.overlapsLocked(req, req.ID) {
		return nil, ErrOverlap
	}
	req.Status = update.Status
	req.ApprovedBy = update.ApprovedBy
	req.ApprovedAt = update.ApprovedAt
	req.RejectionReason = update.RejectionReason
	req.UpdatedAt = m.now()
	m.requests[requestID] = req
	return &req, nil
}

func (m *Memory) overlapsLocked(req Request, excludeID string) bool {
	for _, other := range m.requests {
		if other.EmployeeID == req.EmployeeID && other.ID != excludeID && blocksBooking(other.Status) &&
			Overlaps(other.StartDate, other.EndDate, req.StartDate, req.EndDate) {
			return true
		}
	}
	return false
}
