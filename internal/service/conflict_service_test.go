package service

import (
	"context"
	"testing"
	"time"

	"backend/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeScheduleRepo struct {
	rows []model.PreApprovedEvent
}

func (f *fakeScheduleRepo) CreateRows(_ context.Context, rows []model.PreApprovedEvent) error {
	for i := range rows {
		if rows[i].ID == uuid.Nil {
			rows[i].ID = uuid.New()
		}
	}
	f.rows = append(f.rows, rows...)
	return nil
}

func (f *fakeScheduleRepo) ListAll(_ context.Context) ([]model.PreApprovedEvent, error) {
	return f.rows, nil
}

func (f *fakeScheduleRepo) Delete(_ context.Context, id uuid.UUID) error {
	for i, r := range f.rows {
		if r.ID == id {
			f.rows = append(f.rows[:i], f.rows[i+1:]...)
			return nil
		}
	}
	return nil
}

func seedScheduleRow(repo *fakeScheduleRepo, label, dayField, monthField string) uuid.UUID {
	id := uuid.New()
	repo.rows = append(repo.rows, model.PreApprovedEvent{
		ID:             id,
		Label:          label,
		DayField:       dayField,
		MonthYearField: monthField,
	})
	return id
}

func TestDetectConflictsAcrossSources(t *testing.T) {
	proposals := newFakeProposalRepo()
	schedule := &fakeScheduleRepo{}
	svc := NewConflictService(proposals, schedule)

	// P1 spans 2024-03-12..14; schedule row "13-15" Mar'24 overlaps on 13-14
	p1 := seedProposal(proposals, model.StatusPending, "hod")
	row := seedScheduleRow(schedule, "Founders Day", "13-15", "Mar'24")

	report, err := svc.DetectConflicts(context.Background())
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{p1.String(), row.String()}, report.ConflictIDs)
	assert.Zero(t, report.SkippedRows)
}

func TestDetectConflictsSkipsMalformedRows(t *testing.T) {
	proposals := newFakeProposalRepo()
	schedule := &fakeScheduleRepo{}
	svc := NewConflictService(proposals, schedule)

	seedProposal(proposals, model.StatusPending, "hod")
	seedScheduleRow(schedule, "Bad Row", "12-14", "13th'24")

	report, err := svc.DetectConflicts(context.Background())
	require.NoError(t, err, "a malformed row must never fail the detection pass")
	assert.Empty(t, report.ConflictIDs)
	assert.Equal(t, 1, report.SkippedRows)
}

func TestDetectConflictsIgnoresRejectedProposals(t *testing.T) {
	proposals := newFakeProposalRepo()
	schedule := &fakeScheduleRepo{}
	svc := NewConflictService(proposals, schedule)

	seedProposal(proposals, model.StatusRejected, "")
	seedScheduleRow(schedule, "Founders Day", "12-14", "Mar'24")

	report, err := svc.DetectConflicts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, report.ConflictIDs)
}

func TestDetectConflictsDisjointSources(t *testing.T) {
	proposals := newFakeProposalRepo()
	schedule := &fakeScheduleRepo{}
	svc := NewConflictService(proposals, schedule)

	seedProposal(proposals, model.StatusPending, "hod") // 2024-03-12..14
	seedScheduleRow(schedule, "Graduation", "20-22", "Mar'24")

	report, err := svc.DetectConflicts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, report.ConflictIDs)
}

func TestScheduleRowResponseMarksInvalidRows(t *testing.T) {
	resp := toScheduleRowResponse(model.PreApprovedEvent{
		ID:             uuid.New(),
		Label:          "Bad",
		DayField:       "12",
		MonthYearField: "13th'24",
		CreatedAt:      time.Now(),
	})
	assert.False(t, resp.Valid)
	assert.Empty(t, resp.StartDate)

	resp = toScheduleRowResponse(model.PreApprovedEvent{
		ID:             uuid.New(),
		Label:          "Good",
		DayField:       "12-14",
		MonthYearField: "Mar'24",
		CreatedAt:      time.Now(),
	})
	assert.True(t, resp.Valid)
	assert.Equal(t, "2024-03-12", resp.StartDate)
	assert.Equal(t, "2024-03-14", resp.EndDate)
}
