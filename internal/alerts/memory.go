package alerts

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps alerts in process memory with no durability across
// restarts. It backs tests and database-less deployments.
type MemoryStore struct {
	mu     sync.RWMutex
	byID   map[string]*Alert
	alerts []*Alert
}

// NewMemoryStore creates an empty in-memory alert store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID: make(map[string]*Alert),
	}
}

// Insert appends an alert, assigning defaults for id, timestamp and status.
func (s *MemoryStore) Insert(_ context.Context, alert *Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if alert.ID == "" {
		alert.ID = uuid.New().String()
	}
	if alert.Timestamp.IsZero() {
		alert.Timestamp = time.Now()
	}
	if alert.Status == "" {
		alert.Status = StatusActive
	}

	stored := cloneAlert(alert)
	s.byID[stored.ID] = stored
	s.alerts = append(s.alerts, stored)
	return nil
}

// List returns matching alerts sorted by timestamp descending.
func (s *MemoryStore) List(_ context.Context, filter Filter) ([]*Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Alert, 0, len(s.alerts))
	for _, a := range s.alerts {
		if filter.Matches(a) {
			out = append(out, cloneAlert(a))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	return out, nil
}

// UpdateStatus transitions an alert and records the change in its history.
func (s *MemoryStore) UpdateStatus(_ context.Context, id string, status Status) (*Alert, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	alert, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}

	now := time.Now()
	alert.StatusHistory = append(alert.StatusHistory, StatusChange{
		From:      alert.Status,
		To:        status,
		Timestamp: now,
	})
	alert.Status = status
	alert.UpdatedAt = &now

	return cloneAlert(alert), nil
}

// Stats counts alerts by status.
func (s *MemoryStore) Stats(_ context.Context) (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := Stats{Total: len(s.alerts)}
	for _, a := range s.alerts {
		switch a.Status {
		case StatusActive:
			stats.Active++
		case StatusAcknowledged:
			stats.Acknowledged++
		case StatusResolved:
			stats.Resolved++
		}
	}
	return stats, nil
}

// cloneAlert copies an alert so callers cannot mutate store state through
// returned pointers.
func cloneAlert(a *Alert) *Alert {
	out := *a
	if a.StatusHistory != nil {
		out.StatusHistory = make([]StatusChange, len(a.StatusHistory))
		copy(out.StatusHistory, a.StatusHistory)
	}
	if a.Metadata != nil {
		out.Metadata = make(map[string]any, len(a.Metadata))
		for k, v := range a.Metadata {
			out.Metadata[k] = v
		}
	}
	if a.UpdatedAt != nil {
		t := *a.UpdatedAt
		out.UpdatedAt = &t
	}
	return &out
}
