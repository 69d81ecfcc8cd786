package repository

import (
	"context"
	"fmt"
	"time"

	"backend/internal/model"

	"gorm.io/gorm"
)

type StatisticsRepository interface {
	ListInRange(ctx context.Context, start, end time.Time) ([]model.Proposal, error)
	GetTopCategories(ctx context.Context, start, end time.Time, limit int) ([]model.CategoryRanking, error)
}

type statisticsRepository struct {
	db *gorm.DB
}

func NewStatisticsRepository(db *gorm.DB) StatisticsRepository {
	return &statisticsRepository{db: db}
}

// ListInRange returns proposals created within [start, end]; status tallying
// happens in the stats package so the vocabulary lives in one place.
func (r *statisticsRepository) ListInRange(ctx context.Context, start, end time.Time) ([]model.Proposal, error) {
	var proposals []model.Proposal
	if err := r.db.WithContext(ctx).
		Where("created_at >= ? AND created_at <= ?", start, end).
		Find(&proposals).Error; err != nil {
		return nil, fmt.Errorf("failed to query proposals in range: %w", err)
	}
	return proposals, nil
}

func (r *statisticsRepository) GetTopCategories(ctx context.Context, start, end time.Time, limit int) ([]model.CategoryRanking, error) {
	var rankings []model.CategoryRanking
	if err := r.db.WithContext(ctx).Table("proposals").
		Select("category, COUNT(*) as total_count, COUNT(*) FILTER (WHERE status IN (?, ?)) as approved_count", model.StatusApproved, model.StatusCompleted).
		Where("created_at >= ? AND created_at <= ?", start, end).
		Group("category").
		Order("total_count DESC").
		Limit(limit).
		Scan(&rankings).Error; err != nil {
		return nil, fmt.Errorf("failed to query top categories: %w", err)
	}
	return rankings, nil
}
