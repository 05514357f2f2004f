package repository

import (
	"context"
	"time"

	"github.com/draftgate/draftgate/internal/models"
	"github.com/draftgate/draftgate/internal/storage"
)

type RequestLogRepository struct {
	db *storage.Postgres
}

func NewRequestLogRepository(db *storage.Postgres) *RequestLogRepository {
	return &RequestLogRepository{db: db}
}

// Inserts a new request log
func (r *RequestLogRepository) Create(ctx context.Context, log *models.RequestLog) error {
	return r.db.DB.WithContext(ctx).Create(log).Error
}

// Inserts multiple request logs (for batch insertion)
func (r *RequestLogRepository) CreateBatch(ctx context.Context, logs []models.RequestLog) error {
	if len(logs) == 0 {
		return nil
	}
	return r.db.DB.WithContext(ctx).Create(&logs).Error
}

// Counts requests in a time range
func (r *RequestLogRepository) CountByTimeRange(ctx context.Context, from, to time.Time) (int64, error) {
	var count int64
	err := r.db.DB.WithContext(ctx).
		Model(&models.RequestLog{}).
		Where("timestamp BETWEEN ? AND ?", from, to).
		Count(&count).Error

	return count, err
}

// Counts requests in a time range with a status code in [low, high)
func (r *RequestLogRepository) CountByStatusRange(ctx context.Context, from, to time.Time, low, high int) (int64, error) {
	var count int64
	err := r.db.DB.WithContext(ctx).
		Model(&models.RequestLog{}).
		Where("timestamp BETWEEN ? AND ?", from, to).
		Where("status_code >= ? AND status_code < ?", low, high).
		Count(&count).Error

	return count, err
}

// Average response time over a time range
func (r *RequestLogRepository) AvgResponseTime(ctx context.Context, from, to time.Time) (float64, error) {
	var avg *float64
	err := r.db.DB.WithContext(ctx).
		Model(&models.RequestLog{}).
		Where("timestamp BETWEEN ? AND ?", from, to).
		Select("AVG(response_time_ms)").
		Scan(&avg).Error

	if err != nil || avg == nil {
		return 0, err
	}
	return *avg, nil
}

// RouteKeyCount is one row of the per-capability traffic breakdown.
type RouteKeyCount struct {
	RouteKey string `json:"route_key"`
	Count    int64  `json:"count"`
}

// Request counts per route key, busiest first
func (r *RequestLogRepository) TopRouteKeys(ctx context.Context, from, to time.Time, limit int) ([]RouteKeyCount, error) {
	var rows []RouteKeyCount
	err := r.db.DB.WithContext(ctx).
		Model(&models.RequestLog{}).
		Where("timestamp BETWEEN ? AND ?", from, to).
		Where("route_key <> ''").
		Select("route_key, COUNT(*) as count").
		Group("route_key").
		Order("count DESC").
		Limit(limit).
		Scan(&rows).Error

	return rows, err
}

// Retrieves raw logs for a time range with pagination
func (r *RequestLogRepository) ListByTimeRange(ctx context.Context, from, to time.Time, limit, offset int) ([]models.RequestLog, error) {
	var logs []models.RequestLog
	err := r.db.DB.WithContext(ctx).
		Where("timestamp BETWEEN ? AND ?", from, to).
		Order("timestamp DESC").
		Limit(limit).
		Offset(offset).
		Find(&logs).Error

	return logs, err
}
