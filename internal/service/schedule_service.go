package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"backend/internal/conflict"
	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
)

// --- DTOs ---

type ScheduleRowRequest struct {
	Label          string `json:"label" binding:"required"`
	DayField       string `json:"day_field" binding:"required"`        // "12" or "12-14"
	MonthYearField string `json:"month_year_field" binding:"required"` // "Mar'24"
}

type UploadScheduleRequest struct {
	Rows []ScheduleRowRequest `json:"rows" binding:"required,min=1,dive"`
}

type ScheduleRowResponse struct {
	ID             string `json:"id"`
	Label          string `json:"label"`
	DayField       string `json:"day_field"`
	MonthYearField string `json:"month_year_field"`
	StartDate      string `json:"start_date,omitempty"` // empty for malformed rows
	EndDate        string `json:"end_date,omitempty"`
	Valid          bool   `json:"valid"`
	CreatedAt      string `json:"created_at"`
}

type UploadScheduleResult struct {
	Accepted int                   `json:"accepted"`
	Rows     []ScheduleRowResponse `json:"rows"`
}

// --- Interface ---

type ScheduleService interface {
	UploadRows(ctx context.Context, actorID string, req UploadScheduleRequest) (UploadScheduleResult, error)
	ListRows(ctx context.Context) ([]ScheduleRowResponse, error)
	DeleteRow(ctx context.Context, actorID, id string) error
}

type scheduleService struct {
	schedule  repository.ScheduleRepository
	auditRepo repository.AuditRepository
	txManager repository.TransactionManager
}

func NewScheduleService(
	schedule repository.ScheduleRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) ScheduleService {
	return &scheduleService{schedule: schedule, auditRepo: auditRepo, txManager: txManager}
}

// --- Implementation ---

// UploadRows stores schedule rows exactly as supplied. Rows that fail date
// normalization are still stored (the feed is externally maintained and may be
// corrected later) but are reported as invalid so the coordinator sees them.
func (s *scheduleService) UploadRows(ctx context.Context, actorID string, req UploadScheduleRequest) (UploadScheduleResult, error) {
	uploaderID, err := uuid.Parse(actorID)
	if err != nil {
		return UploadScheduleResult{}, fmt.Errorf("invalid user id: %w", err)
	}

	rows := make([]model.PreApprovedEvent, 0, len(req.Rows))
	for _, r := range req.Rows {
		rows = append(rows, model.PreApprovedEvent{
			Label:          r.Label,
			DayField:       r.DayField,
			MonthYearField: r.MonthYearField,
			UploadedBy:     &uploaderID,
		})
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if createErr := s.schedule.CreateRows(txCtx, rows); createErr != nil {
			return fmt.Errorf("failed to store schedule rows: %w", createErr)
		}

		details, _ := json.Marshal(map[string]interface{}{"rows": len(rows)})
		audit := &model.AuditLog{
			UserID:  &uploaderID,
			Action:  model.ActionUploadScheduleRow,
			Details: string(details),
		}
		if auditErr := s.auditRepo.Log(txCtx, audit); auditErr != nil {
			return fmt.Errorf("failed to write audit log: %w", auditErr)
		}

		return nil
	})
	if err != nil {
		return UploadScheduleResult{}, err
	}

	result := UploadScheduleResult{Accepted: len(rows)}
	for _, row := range rows {
		result.Rows = append(result.Rows, toScheduleRowResponse(row))
	}
	return result, nil
}

func (s *scheduleService) ListRows(ctx context.Context) ([]ScheduleRowResponse, error) {
	rows, err := s.schedule.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch schedule rows: %w", err)
	}

	result := make([]ScheduleRowResponse, 0, len(rows))
	for _, row := range rows {
		result = append(result, toScheduleRowResponse(row))
	}
	return result, nil
}

func (s *scheduleService) DeleteRow(ctx context.Context, actorID, id string) error {
	rowID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid schedule row id: %w", err)
	}
	userID, err := uuid.Parse(actorID)
	if err != nil {
		return fmt.Errorf("invalid user id: %w", err)
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if delErr := s.schedule.Delete(txCtx, rowID); delErr != nil {
			return fmt.Errorf("failed to delete schedule row: %w", delErr)
		}

		audit := &model.AuditLog{
			UserID:   &userID,
			Action:   model.ActionDeleteScheduleRow,
			EntityID: rowID.String(),
		}
		return s.auditRepo.Log(txCtx, audit)
	})
}

func toScheduleRowResponse(row model.PreApprovedEvent) ScheduleRowResponse {
	resp := ScheduleRowResponse{
		ID:             row.ID.String(),
		Label:          row.Label,
		DayField:       row.DayField,
		MonthYearField: row.MonthYearField,
		CreatedAt:      row.CreatedAt.Format(time.RFC3339),
	}

	start, end, err := conflict.NormalizeRow(row.DayField, row.MonthYearField)
	if err != nil {
		log.Printf("schedule row %s has malformed date fields: %v", row.ID, err)
		return resp
	}

	resp.StartDate = start.Format("2006-01-02")
	resp.EndDate = end.Format("2006-01-02")
	resp.Valid = true
	return resp
}
