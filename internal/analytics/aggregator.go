// Package analytics composes tracking counters and per-category statistics
// into the admin dashboard payloads. Read-only, no caching: every call
// recomputes from the underlying stores.
package analytics

import (
	"context"

	"github.com/roblox-ai-studio/backend/internal/storage/models"
)

type StatsSource interface {
	Stats() models.TrackingStats
	DetailedAnalytics() models.DetailedAnalytics
}

type CategoryStore interface {
	GetCategoryStats(ctx context.Context) ([]models.CategoryStat, error)
}

type Overview struct {
	models.TrackingStats
	AvgResponseTime float64 `json:"avgResponseTime"`
}

type Summary struct {
	MostPopularCategory string `json:"mostPopularCategory"`
	MostPopularQueries  int    `json:"mostPopularQueries"`
	TotalInteractions   int    `json:"totalInteractions"`
}

type Aggregator struct {
	stats      StatsSource
	categories CategoryStore
}

func New(stats StatsSource, categories CategoryStore) *Aggregator {
	return &Aggregator{stats: stats, categories: categories}
}

func (a *Aggregator) Overview(ctx context.Context) (Overview, error) {
	stats := a.stats.Stats()

	avg := 0.0
	catStats, err := a.categories.GetCategoryStats(ctx)
	if err != nil {
		return Overview{}, err
	}
	if len(catStats) > 0 {
		var total float64
		for _, s := range catStats {
			total += s.AvgResponseTime
		}
		avg = total / float64(len(catStats))
	}

	return Overview{TrackingStats: stats, AvgResponseTime: avg}, nil
}

func (a *Aggregator) CategoryStats(ctx context.Context) ([]models.CategoryStat, error) {
	return a.categories.GetCategoryStats(ctx)
}

// Summary picks the most popular category by query count and sums all
// categories for the total-interactions figure.
func (a *Aggregator) Summary(ctx context.Context) (Summary, error) {
	catStats, err := a.categories.GetCategoryStats(ctx)
	if err != nil {
		return Summary{}, err
	}

	summary := Summary{}
	for _, s := range catStats {
		summary.TotalInteractions += s.TotalQueries
		if s.TotalQueries > summary.MostPopularQueries {
			summary.MostPopularCategory = s.Category
			summary.MostPopularQueries = s.TotalQueries
		}
	}

	return summary, nil
}

func (a *Aggregator) Detailed(ctx context.Context) models.DetailedAnalytics {
	return a.stats.DetailedAnalytics()
}
