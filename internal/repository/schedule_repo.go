package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ScheduleRepository interface {
	CreateRows(ctx context.Context, rows []model.PreApprovedEvent) error
	ListAll(ctx context.Context) ([]model.PreApprovedEvent, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type scheduleRepository struct {
	db *gorm.DB
}

func NewScheduleRepository(db *gorm.DB) ScheduleRepository {
	return &scheduleRepository{db: db}
}

func (r *scheduleRepository) CreateRows(ctx context.Context, rows []model.PreApprovedEvent) error {
	if len(rows) == 0 {
		return nil
	}
	return GetDB(ctx, r.db).Create(&rows).Error
}

func (r *scheduleRepository) ListAll(ctx context.Context) ([]model.PreApprovedEvent, error) {
	var rows []model.PreApprovedEvent
	if err := GetDB(ctx, r.db).Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *scheduleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.PreApprovedEvent{}).Error
}
