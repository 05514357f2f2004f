package service

import (
	"context"
	"time"

	"github.com/draftgate/draftgate/internal/repository"
)

// TrafficSummary is the aggregated view served to operators.
type TrafficSummary struct {
	TotalRequests     int64                      `json:"total_requests"`
	SuccessCount      int64                      `json:"success_count"`
	ClientErrorCount  int64                      `json:"client_error_count"`
	ServerErrorCount  int64                      `json:"server_error_count"`
	AvgResponseTimeMs float64                    `json:"avg_response_time_ms"`
	TopRouteKeys      []repository.RouteKeyCount `json:"top_route_keys"`
	From              time.Time                  `json:"from"`
	To                time.Time                  `json:"to"`
}

type AnalyticsService struct {
	repo *repository.RequestLogRepository
}

func NewAnalyticsService(repo *repository.RequestLogRepository) *AnalyticsService {
	return &AnalyticsService{repo: repo}
}

// Builds the traffic summary for a time range
func (s *AnalyticsService) Summary(ctx context.Context, from, to time.Time) (*TrafficSummary, error) {
	total, err := s.repo.CountByTimeRange(ctx, from, to)
	if err != nil {
		return nil, err
	}

	success, err := s.repo.CountByStatusRange(ctx, from, to, 200, 300)
	if err != nil {
		return nil, err
	}

	clientErrors, err := s.repo.CountByStatusRange(ctx, from, to, 400, 500)
	if err != nil {
		return nil, err
	}

	serverErrors, err := s.repo.CountByStatusRange(ctx, from, to, 500, 600)
	if err != nil {
		return nil, err
	}

	avg, err := s.repo.AvgResponseTime(ctx, from, to)
	if err != nil {
		return nil, err
	}

	topRoutes, err := s.repo.TopRouteKeys(ctx, from, to, 10)
	if err != nil {
		return nil, err
	}

	return &TrafficSummary{
		TotalRequests:     total,
		SuccessCount:      success,
		ClientErrorCount:  clientErrors,
		ServerErrorCount:  serverErrors,
		AvgResponseTimeMs: avg,
		TopRouteKeys:      topRoutes,
		From:              from,
		To:                to,
	}, nil
}
