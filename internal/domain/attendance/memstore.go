package attendance

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type recordKey struct {
	employeeID string
	date       string
}

// Memory is an in-memory StoreAPI used by tests and STORE_DRIVER=memory.
type Memory struct {
	mu      sync.RWMutex
	records map[recordKey]Record
	// UpdateErr, when set, is returned by Update for the given employee.
	UpdateErr map[string]error
}

func NewMemory() *Memory {
	return &Memory{records: make(map[recordKey]Record), UpdateErr: make(map[string]error)}
}

func keyFor(employeeID string, date time.Time) recordKey {
	return recordKey{employeeID: employeeID, date: date.Format(dateLayout)}
}

func (m *Memory) Get(_ context.Context, employeeID string, date time.Time) (*Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[keyFor(employeeID, date)]
	if !ok {
		return nil, ErrRecordNotFound
	}
	return &rec, nil
}

func (m *Memory) List(_ context.Context, filter RecordFilter) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Record
	for _, rec := range m.records {
		if filter.EmployeeID != "" && rec.EmployeeID != filter.EmployeeID {
			continue
		}
		if !filter.From.IsZero() && rec.Date.Format(dateLayout) < filter.From.Format(dateLayout) {
			continue
		}
		if !filter.To.IsZero() && rec.Date.Format(dateLayout) > filter.To.Format(dateLayout) {
			continue
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].EmployeeID < out[j].EmployeeID
	})
	if filter.Limit > 0 {
		if filter.Offset >= len(out) {
			return nil, nil
		}
		out = out[filter.Offset:min(len(out), filter.Offset+filter.Limit)]
	}
	return out, nil
}

func (m *Memory) Create(_ context.Context, rec Record) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := keyFor(rec.EmployeeID, rec.Date)
	if _, exists := m.records[key]; exists {
		return nil, ErrDuplicateRecord
	}
	rec.ID = uuid.NewString()
	rec.Version = 1
	rec.CreatedAt = time.Now()
	rec.UpdatedAt = rec.CreatedAt
	m.records[key] = rec
	return &rec, nil
}

func (m *Memory) Update(_ context.Context, rec Record) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.UpdateErr[rec.EmployeeID]; err != nil {
		return nil, err
	}
	key := keyFor(rec.EmployeeID, rec.Date)
	stored, ok := m.records[key]
	if !ok || stored.ID != rec.ID || stored.Version != rec.Version {
		return nil, ErrConflict
	}
	rec.Version++
	rec.CreatedAt = stored.CreatedAt
	rec.UpdatedAt = time.Now()
	m.records[key] = rec
	return &rec, nil
}
