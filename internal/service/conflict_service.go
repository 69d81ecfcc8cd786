package service

import (
	"context"
	"fmt"
	"log"

	"backend/internal/conflict"
	"backend/internal/model"
	"backend/internal/repository"
)

// ConflictEntry describes one flagged entity for the dashboard highlight.
type ConflictEntry struct {
	ID        string `json:"id"`
	Source    string `json:"source"` // "proposal" or "schedule"
	Label     string `json:"label"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

type ConflictReport struct {
	ConflictIDs []string        `json:"conflict_ids"`
	Entries     []ConflictEntry `json:"entries"`
	SkippedRows int             `json:"skipped_rows"`
}

type ConflictService interface {
	DetectConflicts(ctx context.Context) (ConflictReport, error)
}

type conflictService struct {
	proposals repository.ProposalRepository
	schedule  repository.ScheduleRepository
}

func NewConflictService(proposals repository.ProposalRepository, schedule repository.ScheduleRepository) ConflictService {
	return &conflictService{proposals: proposals, schedule: schedule}
}

// DetectConflicts merges the current proposal snapshot with the pre-approved
// schedule feed, normalizes both to date ranges and flags every entity whose
// range shares a calendar day with another. The result is advisory: it is
// computed fresh on each call and runs read-only, so it can race freely with
// workflow transitions.
func (s *conflictService) DetectConflicts(ctx context.Context) (ConflictReport, error) {
	proposals, err := s.proposals.ListAll(ctx)
	if err != nil {
		return ConflictReport{}, fmt.Errorf("failed to load proposals: %w", err)
	}
	rows, err := s.schedule.ListAll(ctx)
	if err != nil {
		return ConflictReport{}, fmt.Errorf("failed to load schedule: %w", err)
	}

	entities := make([]conflict.Entity, 0, len(proposals)+len(rows))
	meta := make(map[string]ConflictEntry, len(proposals)+len(rows))

	for _, p := range proposals {
		if p.Status == model.StatusRejected {
			continue // a rejected proposal no longer occupies its dates
		}
		id := p.ID.String()
		entities = append(entities, conflict.Entity{ID: id, Start: p.StartDate, End: p.EndDate})
		meta[id] = ConflictEntry{
			ID:        id,
			Source:    "proposal",
			Label:     p.Title,
			StartDate: conflict.DateOnly(p.StartDate).Format("2006-01-02"),
			EndDate:   conflict.DateOnly(p.EndDate).Format("2006-01-02"),
		}
	}

	skipped := 0
	for _, row := range rows {
		start, end, normErr := conflict.NormalizeRow(row.DayField, row.MonthYearField)
		if normErr != nil {
			// one bad row must never abort the pass
			log.Printf("skipping schedule row %s: %v", row.ID, normErr)
			skipped++
			continue
		}
		id := row.ID.String()
		entities = append(entities, conflict.Entity{ID: id, Start: start, End: end})
		meta[id] = ConflictEntry{
			ID:        id,
			Source:    "schedule",
			Label:     row.Label,
			StartDate: start.Format("2006-01-02"),
			EndDate:   end.Format("2006-01-02"),
		}
	}

	flagged := conflict.Detect(entities)

	report := ConflictReport{
		ConflictIDs: make([]string, 0, len(flagged)),
		Entries:     make([]ConflictEntry, 0, len(flagged)),
		SkippedRows: skipped,
	}
	// iterate entities, not the set, to keep output order stable
	for _, e := range entities {
		if flagged[e.ID] {
			report.ConflictIDs = append(report.ConflictIDs, e.ID)
			report.Entries = append(report.Entries, meta[e.ID])
		}
	}

	return report, nil
}
