package models

import "time"

// EventType names the kind of change a ComplaintEvent describes.
type EventType string

const (
	EventSubmitted EventType = "submitted"
	EventUpdated   EventType = "updated"
	EventStatus    EventType = "status"
	EventFeedback  EventType = "feedback"
)

// ComplaintEvent is pushed to live subscribers (WebSocket, Telegram) of a complaint.
type ComplaintEvent struct {
	Type        EventType `json:"type"`
	ComplaintID string    `json:"complaintId"`
	Status      Status    `json:"status"`
	Message     string    `json:"message,omitempty"`
	UpdatedBy   string    `json:"updatedBy,omitempty"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
