package stats

import (
	"testing"

	"backend/internal/model"

	"github.com/stretchr/testify/assert"
)

func withStatus(statuses ...string) []model.Proposal {
	out := make([]model.Proposal, len(statuses))
	for i, s := range statuses {
		out[i] = model.Proposal{Status: s}
	}
	return out
}

func TestAggregateEmpty(t *testing.T) {
	assert.Equal(t, Counts{}, Aggregate(nil))
}

func TestAggregate(t *testing.T) {
	got := Aggregate(withStatus(
		model.StatusPending,
		model.StatusPending,
		model.StatusReview,
		model.StatusApproved,
		model.StatusRejected,
		model.StatusCompleted,
	))

	assert.Equal(t, Counts{
		Approved:  1,
		Pending:   2,
		Review:    1,
		Rejected:  1,
		Completed: 1,
		Open:      3,
		Total:     6,
	}, got)
}

func TestAggregateCountsUnknownStatusInTotalOnly(t *testing.T) {
	got := Aggregate(withStatus("DRAFT"))
	assert.Equal(t, 1, got.Total)
	assert.Equal(t, 0, got.Open)
}
