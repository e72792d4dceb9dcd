package notify

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"sulabh/backend/internal/models"

	"github.com/redis/go-redis/v9"
)

const eventBufferSize = 256

// ErrQueueFull is returned by Publish when the local event queue cannot take more events.
var ErrQueueFull = errors.New("notification queue is full")

// ManagerService is the hub: it owns the registered clients and delivers each
// complaint event to the clients following that complaint.
type ManagerService struct {
	mu        sync.RWMutex
	clients   map[string]Client
	observers []func(models.ComplaintEvent)

	RegisterCh   chan Client
	UnregisterCh chan Client
	EventCh      chan models.ComplaintEvent

	// Redis, when set, carries events between instances.
	Redis  *redis.Client
	Logger *slog.Logger

	done chan struct{}
}

func NewManagerService(rdb *redis.Client, logger *slog.Logger) *ManagerService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ManagerService{
		clients:      make(map[string]Client),
		RegisterCh:   make(chan Client),
		UnregisterCh: make(chan Client),
		EventCh:      make(chan models.ComplaintEvent, eventBufferSize),
		Redis:        rdb,
		Logger:       logger,
		done:         make(chan struct{}),
	}
}

// Run processes registrations and events until ctx ends, then closes every client.
func (m *ManagerService) Run(ctx context.Context) {
	defer close(m.done)

	if m.Redis != nil {
		m.StartPubSubListener(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			m.closeAll()
			return

		case client := <-m.RegisterCh:
			m.mu.Lock()
			previous := m.clients[client.GetID()]
			m.clients[client.GetID()] = client
			m.mu.Unlock()
			if previous != nil && previous != client {
				previous.Close()
			}
			m.Logger.Debug("client registered", "client_id", client.GetID(), "complaint_id", client.GetComplaintID())

		case client := <-m.UnregisterCh:
			m.remove(client)

		case event := <-m.EventCh:
			m.observe(event)
			m.broadcast(event)
		}
	}
}

// Register adds client to the hub. It returns false when the hub has stopped.
func (m *ManagerService) Register(client Client) bool {
	select {
	case m.RegisterCh <- client:
		return true
	case <-m.done:
		return false
	}
}

// Unregister removes client from the hub and closes it.
func (m *ManagerService) Unregister(client Client) {
	select {
	case m.UnregisterCh <- client:
	case <-m.done:
	}
}

// Publish hands event to every instance: through Redis when configured,
// otherwise straight to this hub's queue.
func (m *ManagerService) Publish(ctx context.Context, event models.ComplaintEvent) error {
	if m.Redis != nil {
		return m.publishRedis(ctx, event)
	}
	select {
	case m.EventCh <- event:
		return nil
	default:
		return ErrQueueFull
	}
}

// Observe registers fn to see every event before it reaches the clients.
func (m *ManagerService) Observe(fn func(models.ComplaintEvent)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observers = append(m.observers, fn)
}

func (m *ManagerService) observe(event models.ComplaintEvent) {
	m.mu.RLock()
	observers := m.observers
	m.mu.RUnlock()
	for _, fn := range observers {
		fn(event)
	}
}

// HasClient reports whether a client with the given id is registered.
func (m *ManagerService) HasClient(id string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.clients[id]
	return ok
}

// Subscribers returns how many clients follow complaintID.
func (m *ManagerService) Subscribers(complaintID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, c := range m.clients {
		if c.GetComplaintID() == complaintID {
			n++
		}
	}
	return n
}

func (m *ManagerService) broadcast(event models.ComplaintEvent) {
	m.mu.RLock()
	var targets []Client
	for _, c := range m.clients {
		if c.GetComplaintID() == event.ComplaintID {
			targets = append(targets, c)
		}
	}
	m.mu.RUnlock()

	for _, c := range targets {
		select {
		case c.GetSendChannel() <- event:
		default:
			// slow client
			m.Logger.Warn("dropping slow client", "client_id", c.GetID(), "complaint_id", event.ComplaintID)
			m.remove(c)
		}
	}
}

func (m *ManagerService) remove(client Client) {
	m.mu.Lock()
	current, ok := m.clients[client.GetID()]
	if ok && current == client {
		delete(m.clients, client.GetID())
	}
	m.mu.Unlock()

	if ok && current == client {
		client.Close()
		m.Logger.Debug("client unregistered", "client_id", client.GetID())
	}
}

func (m *ManagerService) closeAll() {
	m.mu.Lock()
	clients := m.clients
	m.clients = make(map[string]Client)
	m.mu.Unlock()

	for _, c := range clients {
		c.Close()
	}
}
