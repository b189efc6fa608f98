package audit

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type Memory struct {
	mu     sync.RWMutex
	events []Event
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Insert(_ context.Context, evt Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	evt.ID = uuid.NewString()
	if evt.CreatedAt.IsZero() {
		evt.CreatedAt = time.Now()
	}
	m.events = append(m.events, evt)
	return nil
}

func (m *Memory) Count(ctx context.Context, filter Filter) (int, error) {
	filter.Limit, filter.Offset = 0, 0
	events, err := m.List(ctx, filter)
	return len(events), err
}

// List returns matching events newest first.
func (m *Memory) List(_ context.Context, filter Filter) ([]Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Event
	for i := len(m.events) - 1; i >= 0; i-- {
		evt := m.events[i]
		if !matches(evt, filter) {
			continue
		}
		out = append(out, evt)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return nil, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func matches(evt Event, filter Filter) bool {
	return (filter.Action == "" || evt.Action == filter.Action) &&
		(filter.EntityType == "" || evt.EntityType == filter.EntityType) &&
		(filter.EntityID == "" || evt.EntityID == filter.EntityID) &&
		(filter.ActorID == "" || evt.ActorID == filter.ActorID)
}
