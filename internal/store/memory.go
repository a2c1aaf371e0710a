package store

import (
	"context"
	"sync"
	"time"

	"maru/internal/model"
)

// Memory is an in-process Store used by tests and the zero-config dev run.
type Memory struct {
	mu        sync.RWMutex
	requests  []model.RentalRequest
	schedules []model.ClassSchedule
	blocks    []model.BlockedSlot
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{}
}

var _ Store = (*Memory)(nil)

func (m *Memory) ListRequests(_ context.Context) ([]model.RentalRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.RentalRequest, len(m.requests))
	copy(out, m.requests)
	return out, nil
}

func (m *Memory) ListSchedules(_ context.Context) ([]model.ClassSchedule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.ClassSchedule, len(m.schedules))
	copy(out, m.schedules)
	return out, nil
}

func (m *Memory) ListBlocks(_ context.Context) ([]model.BlockedSlot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]model.BlockedSlot, len(m.blocks))
	copy(out, m.blocks)
	return out, nil
}

func (m *Memory) GetRequest(_ context.Context, id string) (*model.RentalRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for i := range m.requests {
		if m.requests[i].ID == id {
			req := m.requests[i]
			return &req, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) AppendRequests(_ context.Context, requests []model.RentalRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, requests...)
	return nil
}

func (m *Memory) UpdateStatus(_ context.Context, id string, status model.RequestStatus, managerComment string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.requests {
		if m.requests[i].ID == id {
			m.requests[i].Status = status
			if managerComment != "" {
				m.requests[i].ManagerComment = managerComment
			}
			m.requests[i].UpdatedAt = time.Now()
			return nil
		}
	}
	return ErrNotFound
}

func (m *Memory) SetDiscount(_ context.Context, batchID string, d model.Discount) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	found := false
	for i := range m.requests {
		if m.requests[i].BatchID == batchID || m.requests[i].ID == batchID {
			m.requests[i].Discount = d
			m.requests[i].UpdatedAt = time.Now()
			found = true
		}
	}
	if !found {
		return ErrNotFound
	}
	return nil
}

func (m *Memory) CreateSchedule(_ context.Context, s *model.ClassSchedule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.schedules = append(m.schedules, *s)
	return nil
}

func (m *Memory) DeleteSchedule(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.schedules {
		if m.schedules[i].ID == id {
			m.schedules = append(m.schedules[:i], m.schedules[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (m *Memory) CreateBlock(_ context.Context, b *model.BlockedSlot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blocks = append(m.blocks, *b)
	return nil
}

func (m *Memory) DeleteBlock(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.blocks {
		if m.blocks[i].ID == id {
			m.blocks = append(m.blocks[:i], m.blocks[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}
