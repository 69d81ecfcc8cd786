// Package stats derives per-status counts from proposal collections. It is the
// single place the workflow status vocabulary is tallied, so dashboards never
// re-derive "open vs closed" on their own.
package stats

import (
	"backend/internal/model"
)

// Counts holds per-status totals. Review is reported separately but is also
// part of Open, since a proposal under clarification is still in flight.
type Counts struct {
	Approved  int `json:"approved"`
	Pending   int `json:"pending"`
	Review    int `json:"review"`
	Rejected  int `json:"rejected"`
	Completed int `json:"completed"`
	Open      int `json:"open"`
	Total     int `json:"total"`
}

// Aggregate tallies proposals by status. Pure, single pass.
func Aggregate(proposals []model.Proposal) Counts {
	var c Counts
	for _, p := range proposals {
		switch p.Status {
		case model.StatusApproved:
			c.Approved++
		case model.StatusPending:
			c.Pending++
		case model.StatusReview:
			c.Review++
		case model.StatusRejected:
			c.Rejected++
		case model.StatusCompleted:
			c.Completed++
		}
		c.Total++
	}
	c.Open = c.Pending + c.Review
	return c
}
