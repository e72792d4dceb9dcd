package notify_test

import (
	"sync"

	"sulabh/backend/internal/models"
)

type MockClient struct {
	id          string
	complaintID string
	RecvChannel chan models.ComplaintEvent

	mu     sync.Mutex
	closed int
}

func newMockClient(id, complaintID string, buffer int) *MockClient {
	return &MockClient{
		id:          id,
		complaintID: complaintID,
		RecvChannel: make(chan models.ComplaintEvent, buffer),
	}
}

func (c *MockClient) GetID() string {
	return c.id
}

func (c *MockClient) GetComplaintID() string {
	return c.complaintID
}

func (c *MockClient) GetSendChannel() chan<- models.ComplaintEvent {
	return c.RecvChannel
}

func (c *MockClient) Run() {
	// Not needed for testing
}

func (c *MockClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed++
}

func (c *MockClient) Closed() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
