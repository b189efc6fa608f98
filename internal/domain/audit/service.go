package audit

import (
	"context"
	"encoding/json"
)

// Service records who changed what. Before and after snapshots are stored as
// JSON.
type Service struct {
	Store StoreAPI
}

func New(store StoreAPI) *Service {
	return &Service{Store: store}
}

func (s *Service) Record(ctx context.Context, actorID, action, entityType, entityID, requestID, ip string, before, after any) error {
	beforeJSON, err := marshal(before)
	if err != nil {
		return err
	}
	afterJSON, err := marshal(after)
	if err != nil {
		return err
	}
	return s.Store.Insert(ctx, Event{
		ActorID:    actorID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		RequestID:  requestID,
		IP:         ip,
		Before:     beforeJSON,
		After:      afterJSON,
	})
}

// List returns a page of events and the total number matching the filter.
func (s *Service) List(ctx context.Context, filter Filter) ([]Event, int, error) {
	total, err := s.Store.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	events, err := s.Store.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	return events, total, nil
}

func marshal(value any) (json.RawMessage, error) {
	if value == nil {
		return nil, nil
	}
	return json.Marshal(value)
}
