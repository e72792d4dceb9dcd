package complaint

import (
	"context"

	"sulabh/backend/internal/models"
)

// SubmitRequest is what a citizen fills in for a new complaint.
// Status defaults to pending.
type SubmitRequest struct {
	Category    models.Category `json:"category" validate:"required,oneof=sanitation infrastructure publicServices utilities transportation other"`
	Subject     string          `json:"subject" validate:"required,max=200"`
	Description string          `json:"description" validate:"required,max=5000"`
	Location    string          `json:"location" validate:"required,max=500"`
	Priority    models.Priority `json:"priority" validate:"required,oneof=low medium high urgent"`
	Status      models.Status   `json:"status" validate:"omitempty,oneof=pending inProgress resolved escalated closed"`
	Attachments []string        `json:"attachments" validate:"max=10,dive,required,max=255"`
}

// Patch lists the fields to merge into a complaint; nil fields are left as they are.
type Patch struct {
	Category           *models.Category          `json:"category" validate:"omitempty,oneof=sanitation infrastructure publicServices utilities transportation other"`
	Subject            *string                   `json:"subject" validate:"omitempty,max=200"`
	Description        *string                   `json:"description" validate:"omitempty,max=5000"`
	Location           *string                   `json:"location" validate:"omitempty,max=500"`
	Priority           *models.Priority          `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	Status             *models.Status            `json:"status" validate:"omitempty,oneof=pending inProgress resolved escalated closed"`
	Attachments        *[]string                 `json:"attachments" validate:"omitempty,max=10"`
	AssignedTo         *string                   `json:"assignedTo"`
	AssignedDepartment *string                   `json:"assignedDepartment"`
	// Feedback is set by the store's own callers; request bodies cannot carry it.
	Feedback           *models.ComplaintFeedback `json:"-"`
}

// StatusUpdate is an entry an authority adds to a complaint's timeline.
type StatusUpdate struct {
	Status      models.Status `json:"status" validate:"required,oneof=pending inProgress resolved escalated closed"`
	Message     string        `json:"message" validate:"required,max=2000"`
	UpdatedBy   string        `json:"updatedBy"`
	Attachments []string      `json:"attachments" validate:"max=10,dive,required,max=255"`
}

// MissingPolicy decides what Update does with an id the store does not hold.
type MissingPolicy int

const (
	// IgnoreMissing makes Update a silent no-op.
	IgnoreMissing MissingPolicy = iota
	// RejectMissing makes Update fail with a NotFoundError.
	RejectMissing
)

// Notifier receives an event after every committed change.
type Notifier interface {
	Publish(ctx context.Context, event models.ComplaintEvent) error
}
