// Package notify fans complaint events out to live subscribers.
package notify

import "sulabh/backend/internal/models"

// Client is the interface for any kind of subscriber (e.g., WebSocket, Telegram).
// It abstracts the underlying delivery mechanism so the hub can manage
// different client types uniformly.
type Client interface {
	// GetID returns a key unique among all registered clients.
	GetID() string
	// GetComplaintID returns the complaint the client follows.
	GetComplaintID() string

	// GetSendChannel returns the channel the hub delivers events on.
	GetSendChannel() chan<- models.ComplaintEvent

	// Run starts delivering events from the send channel.
	Run()
	// Close shuts the client down. It must be safe to call more than once.
	Close()
}
