// Package analysis provides functionalities for ranking and summarising complaints.
// It includes logic for priority weights, resolution deadlines and dashboard statistics.
package analysis

import (
	"sort"
	"time"

	"sulabh/backend/internal/config"
	"sulabh/backend/internal/models"
)

// GetWeight returns the weight for a given priority.
// It returns 0 if the priority is not recognized.
func GetWeight(priority models.Priority) int {
	return config.PriorityWeights[priority]
}

// ResolutionWindow returns how long a complaint of this priority may stay open.
// Unknown priorities get the most lenient window.
func ResolutionWindow(priority models.Priority) time.Duration {
	if w, ok := config.ResolutionWindows[priority]; ok {
		return w
	}
	return config.ResolutionWindows[models.PriorityLow]
}

// IsOverdue reports whether an open complaint has outlived its resolution window.
func IsOverdue(c *models.Complaint, now time.Time) bool {
	if !c.Status.IsOpen() {
		return false
	}
	return now.Sub(c.SubmittedAt) > ResolutionWindow(c.Priority)
}

// SortByWeight orders complaints heaviest priority first, then oldest first.
func SortByWeight(complaints []models.Complaint) {
	sort.SliceStable(complaints, func(i, j int) bool {
		wi, wj := GetWeight(complaints[i].Priority), GetWeight(complaints[j].Priority)
		if wi != wj {
			return wi > wj
		}
		return complaints[i].SubmittedAt.Before(complaints[j].SubmittedAt)
	})
}

// MonthlyTrend counts complaints submitted and resolved in one calendar month.
type MonthlyTrend struct {
	Month     string `json:"month"`
	Submitted int    `json:"submitted"`
	Resolved  int    `json:"resolved"`
}

// Statistics is the admin dashboard summary.
type Statistics struct {
	Total                 int                     `json:"total"`
	Pending               int                     `json:"pending"`
	InProgress            int                     `json:"inProgress"`
	Resolved              int                     `json:"resolved"`
	Escalated             int                     `json:"escalated"`
	Closed                int                     `json:"closed"`
	AverageResolutionTime float64                 `json:"averageResolutionTime"`
	ByCategory            map[models.Category]int `json:"byCategory"`
	ByPriority            map[models.Priority]int `json:"byPriority"`
	MonthlyTrends         []MonthlyTrend          `json:"monthlyTrends"`
}

// Summarize computes statistics over complaints. Monthly trends cover the
// config.MonthlyTrendMonths months up to and including now's month.
func Summarize(complaints []models.Complaint, now time.Time) Statistics {
	stats := Statistics{
		Total:      len(complaints),
		ByCategory: make(map[models.Category]int, len(models.Categories)),
		ByPriority: make(map[models.Priority]int, len(models.Priorities)),
	}
	for _, c := range models.Categories {
		stats.ByCategory[c] = 0
	}
	for _, p := range models.Priorities {
		stats.ByPriority[p] = 0
	}

	months := make([]MonthlyTrend, config.MonthlyTrendMonths)
	index := make(map[string]int, len(months))
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	for i := range months {
		key := start.AddDate(0, i-len(months)+1, 0).Format("2006-01")
		months[i].Month = key
		index[key] = i
	}

	var resolvedHours float64
	var resolvedCount int
	for _, c := range complaints {
		switch c.Status {
		case models.StatusPending:
			stats.Pending++
		case models.StatusInProgress:
			stats.InProgress++
		case models.StatusResolved:
			stats.Resolved++
		case models.StatusEscalated:
			stats.Escalated++
		case models.StatusClosed:
			stats.Closed++
		}
		stats.ByCategory[c.Category]++
		stats.ByPriority[c.Priority]++

		if i, ok := index[c.SubmittedAt.UTC().Format("2006-01")]; ok {
			months[i].Submitted++
		}
		if c.ResolvedAt != nil {
			resolvedHours += c.ResolvedAt.Sub(c.SubmittedAt).Hours()
			resolvedCount++
			if i, ok := index[c.ResolvedAt.UTC().Format("2006-01")]; ok {
				months[i].Resolved++
			}
		}
	}
	if resolvedCount > 0 {
		stats.AverageResolutionTime = resolvedHours / float64(resolvedCount)
	}
	stats.MonthlyTrends = months
	return stats
}
