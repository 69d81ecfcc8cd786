package service

import (
	"context"
	"time"

	"backend/internal/model"
	"backend/internal/repository"
	"backend/internal/stats"
)

type StatisticsService interface {
	GetStatistics(ctx context.Context, startDate, endDate time.Time) (model.StatisticsResponse, error)
}

type statisticsService struct {
	repo repository.StatisticsRepository
}

func NewStatisticsService(repo repository.StatisticsRepository) StatisticsService {
	return &statisticsService{repo: repo}
}

// GetStatistics tallies proposals created within the time bracket by workflow
// status and ranks the busiest categories.
func (s *statisticsService) GetStatistics(ctx context.Context, startDate, endDate time.Time) (model.StatisticsResponse, error) {
	var response model.StatisticsResponse
	response.TimeRangeStartDate = startDate
	response.TimeRangeEndDate = endDate

	proposals, err := s.repo.ListInRange(ctx, startDate, endDate)
	if err != nil {
		return response, err
	}

	counts := stats.Aggregate(proposals)
	response.Approved = counts.Approved
	response.Pending = counts.Pending
	response.Review = counts.Review
	response.Rejected = counts.Rejected
	response.Completed = counts.Completed
	response.Open = counts.Open
	response.Total = counts.Total

	topCategories, err := s.repo.GetTopCategories(ctx, startDate, endDate, 5)
	if err != nil {
		return response, err
	}
	response.TopCategories = topCategories

	return response, nil
}
