// Package portfolio derives read-only statistics from the learning-log
// collection. It never writes anything.
package portfolio

import (
	"time"

	"github.com/aoyagi/manabi/internal/models"
)

// CategoryCount is the number of public logs in one category.
type CategoryCount struct {
	Category models.Category `json:"category"`
	Count    int             `json:"count"`
}

// Stats is the public-facing aggregation of a user's logs.
type Stats struct {
	PublicLogs  []models.LearningLog `json:"public_logs"`
	TotalSkills int                  `json:"total_skills"`
	StreakDays  int                  `json:"streak_days"`
	Categories  []CategoryCount      `json:"categories"`
}

// Build computes portfolio statistics from logs as of now.
//
// TotalSkills and StreakDays intentionally cover ALL logs while PublicLogs
// and Categories cover only public ones; this asymmetry matches the
// shipped behavior and must not be "fixed" without a product decision.
// StreakDays is the day count since the most recent log's creation, not a
// consecutive-activity streak.
func Build(logs []models.LearningLog, now time.Time) Stats {
	stats := Stats{
		PublicLogs: []models.LearningLog{},
		Categories: []CategoryCount{},
	}

	var latest time.Time
	counts := make(map[models.Category]int)
	for _, l := range logs {
		stats.TotalSkills += len(l.Skills)
		if l.CreatedAt.After(latest) {
			latest = l.CreatedAt
		}
		if l.IsPublic {
			stats.PublicLogs = append(stats.PublicLogs, l)
			counts[l.Category]++
		}
	}

	if !latest.IsZero() {
		days := int(now.Sub(latest).Hours() / 24)
		if days > 0 {
			stats.StreakDays = days
		}
	}

	// Declared enum order, zero-count categories omitted.
	for _, c := range models.AllCategories() {
		if n := counts[c]; n > 0 {
			stats.Categories = append(stats.Categories, CategoryCount{Category: c, Count: n})
		}
	}
	return stats
}
