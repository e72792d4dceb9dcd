package storage

import (
	"context"
	"fmt"
	"sync"

	"sulabh/backend/internal/models"
)

// Memory is a deterministic in-process Storage used by tests and local runs.
// It keeps complaints in insertion order and hands out copies only.
type Memory struct {
	mu         sync.RWMutex
	order      []string
	complaints map[string]*models.Complaint
}

// NewMemory creates an empty in-memory store, optionally seeded.
func NewMemory(seed ...models.Complaint) *Memory {
	m := &Memory{complaints: make(map[string]*models.Complaint)}
	for i := range seed {
		m.order = append(m.order, seed[i].ID)
		m.complaints[seed[i].ID] = seed[i].Clone()
	}
	return m
}

func (m *Memory) CreateComplaint(_ context.Context, complaint *models.Complaint) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.complaints[complaint.ID]; exists {
		return fmt.Errorf("complaint %s: %w", complaint.ID, ErrDuplicateID)
	}
	m.order = append(m.order, complaint.ID)
	m.complaints[complaint.ID] = complaint.Clone()
	return nil
}

func (m *Memory) UpdateComplaint(_ context.Context, complaint *models.Complaint) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.complaints[complaint.ID]; !exists {
		return fmt.Errorf("complaint %s does not exist", complaint.ID)
	}
	m.complaints[complaint.ID] = complaint.Clone()
	return nil
}

func (m *Memory) GetComplaint(_ context.Context, id string) (*models.Complaint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.complaints[id].Clone(), nil
}

func (m *Memory) ListComplaintsByUser(_ context.Context, userID string) ([]models.Complaint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.Complaint
	for _, id := range m.order {
		if c := m.complaints[id]; c.UserID == userID {
			out = append(out, *c.Clone())
		}
	}
	return out, nil
}

func (m *Memory) ListComplaints(_ context.Context) ([]models.Complaint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.Complaint, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, *m.complaints[id].Clone())
	}
	return out, nil
}
