package models

import (
	"time"

	"gorm.io/datatypes"
)

// Category groups complaints by the service area they concern.
type Category string

const (
	CategorySanitation     Category = "sanitation"
	CategoryInfrastructure Category = "infrastructure"
	CategoryPublicServices Category = "publicServices"
	CategoryUtilities      Category = "utilities"
	CategoryTransportation Category = "transportation"
	CategoryOther          Category = "other"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategorySanitation,
	CategoryInfrastructure,
	CategoryPublicServices,
	CategoryUtilities,
	CategoryTransportation,
	CategoryOther,
}

// Priority expresses how urgently a complaint needs attention.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Priorities lists every priority from lowest to highest.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

// Status is a step of the complaint lifecycle.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "inProgress"
	StatusResolved   Status = "resolved"
	StatusEscalated  Status = "escalated"
	StatusClosed     Status = "closed"
)

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusResolved, StatusEscalated, StatusClosed:
		return true
	}
	return false
}

// IsOpen reports whether a complaint in this status still awaits action.
func (s Status) IsOpen() bool {
	return s == StatusPending || s == StatusInProgress
}

// Complaint is a grievance filed by a citizen and tracked through its lifecycle.
type Complaint struct {
	ID                 string                      `gorm:"primaryKey" json:"id"`
	UserID             string                      `gorm:"index;not null" json:"userId"`
	Category           Category                    `gorm:"type:text;not null" json:"category"`
	Subject            string                      `gorm:"not null" json:"subject"`
	Description        string                      `gorm:"type:text;not null" json:"description"`
	Location           string                      `json:"location"`
	Priority           Priority                    `gorm:"type:text;not null" json:"priority"`
	Status             Status                      `gorm:"type:text;index;not null" json:"status"`
	Attachments        datatypes.JSONSlice[string] `json:"attachments,omitempty"`
	AssignedTo         string                      `json:"assignedTo,omitempty"`
	AssignedDepartment string                      `json:"assignedDepartment,omitempty"`
	SubmittedAt        time.Time                   `gorm:"index" json:"submittedAt"`
	UpdatedAt          time.Time                   `gorm:"autoUpdateTime:false" json:"updatedAt"`
	ResolvedAt         *time.Time                  `json:"resolvedAt,omitempty"`
	Feedback           *ComplaintFeedback          `gorm:"foreignKey:ComplaintID" json:"feedback,omitempty"`
	Updates            []ComplaintUpdate           `gorm:"foreignKey:ComplaintID" json:"updates"`
}

// ComplaintUpdate is an append-only timeline entry of a complaint.
type ComplaintUpdate struct {
	ID          string                      `gorm:"primaryKey" json:"id"`
	ComplaintID string                      `gorm:"index;not null" json:"complaintId"`
	Position    int                         `gorm:"not null" json:"-"`
	Message     string                      `gorm:"type:text;not null" json:"message"`
	Status      Status                      `gorm:"type:text;not null" json:"status"`
	UpdatedBy   string                      `json:"updatedBy"`
	UpdatedAt   time.Time                   `gorm:"autoUpdateTime:false" json:"updatedAt"`
	Attachments datatypes.JSONSlice[string] `json:"attachments,omitempty"`
}

// ComplaintFeedback is the citizen's rating of a resolved complaint.
type ComplaintFeedback struct {
	ComplaintID string    `gorm:"primaryKey" json:"-"`
	Rating      int       `gorm:"not null" json:"rating"`
	Comment     string    `json:"comment,omitempty"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// Clone returns a deep copy so callers can never mutate stored records.
func (c *Complaint) Clone() *Complaint {
	if c == nil {
		return nil
	}
	out := *c
	if c.Attachments != nil {
		out.Attachments = append(datatypes.JSONSlice[string]{}, c.Attachments...)
	}
	if c.ResolvedAt != nil {
		t := *c.ResolvedAt
		out.ResolvedAt = &t
	}
	if c.Feedback != nil {
		fb := *c.Feedback
		out.Feedback = &fb
	}
	if c.Updates == nil {
		return &out
	}
	out.Updates = make([]ComplaintUpdate, len(c.Updates))
	for i, u := range c.Updates {
		if u.Attachments != nil {
			u.Attachments = append(datatypes.JSONSlice[string]{}, u.Attachments...)
		}
		out.Updates[i] = u
	}
	return &out
}

// LastUpdate returns the most recent timeline entry, or nil when there is none.
func (c *Complaint) LastUpdate() *ComplaintUpdate {
	if len(c.Updates) == 0 {
		return nil
	}
	return &c.Updates[len(c.Updates)-1]
}
