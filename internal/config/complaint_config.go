package config

import (
	"time"

	"sulabh/backend/internal/models"
)

const (
	// Complaint identifiers
	ComplaintIDPrefix = "CMP"
	UpdateIDPrefix    = "UPD"

	// Timeline
	SystemActor          = "System"
	SubmittedMessage     = "Complaint submitted successfully"
	EscalatedMessage     = "Escalated: resolution window exceeded"
	FeedbackMinRating    = 1
	FeedbackMaxRating    = 5
	DuplicateAccountText = "This email is already registered. Please log in or use a different email."

	// Statistics
	MonthlyTrendMonths = 6
)

// PriorityWeights orders the authority work queue, heavier first.
var PriorityWeights = map[models.Priority]int{
	models.PriorityLow:    5,
	models.PriorityMedium: 50,
	models.PriorityHigh:   150,
	models.PriorityUrgent: 250,
}

// ResolutionWindows is how long an open complaint may wait before it is escalated.
var ResolutionWindows = map[models.Priority]time.Duration{
	models.PriorityUrgent: 24 * time.Hour,
	models.PriorityHigh:   72 * time.Hour,
	models.PriorityMedium: 7 * 24 * time.Hour,
	models.PriorityLow:    14 * 24 * time.Hour,
}
