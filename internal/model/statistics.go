package model

import (
	"time"
)

// StatisticsResponse aggregates proposal counts per workflow status plus
// category ranking data for the coordinator dashboard.
type StatisticsResponse struct {
	Approved           int               `json:"approved"`
	Pending            int               `json:"pending"`
	Review             int               `json:"review"`
	Rejected           int               `json:"rejected"`
	Completed          int               `json:"completed"`
	Open               int               `json:"open"` // pending + review
	Total              int               `json:"total"`
	TopCategories      []CategoryRanking `json:"top_categories"`
	TimeRangeStartDate time.Time         `json:"time_range_start_date"`
	TimeRangeEndDate   time.Time         `json:"time_range_end_date"`
}

// CategoryRanking represents a proposal category ranked by volume
type CategoryRanking struct {
	Category      string `json:"category"`
	TotalCount    int    `json:"total_count"`
	ApprovedCount int    `json:"approved_count"`
}
