package middleware

import (
	"context"
	"time"

	"github.com/draftgate/draftgate/internal/models"
	"github.com/draftgate/draftgate/internal/repository"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	auditBatchSize     = 100
	auditFlushInterval = 5 * time.Second
)

// RequestAuditor persists one row per request for the analytics endpoints.
// Entries go through a buffered channel and a background worker that batch
// inserts; a full buffer drops entries rather than blocking requests.
type RequestAuditor struct {
	repo *repository.RequestLogRepository
	log  *zap.Logger
	logs chan models.RequestLog
	done chan struct{}
}

func NewRequestAuditor(repo *repository.RequestLogRepository, log *zap.Logger, bufferSize int) *RequestAuditor {
	a := &RequestAuditor{
		repo: repo,
		log:  log,
		logs: make(chan models.RequestLog, bufferSize),
		done: make(chan struct{}),
	}

	go a.run()

	return a
}

func (a *RequestAuditor) run() {
	batch := make([]models.RequestLog, 0, auditBatchSize)
	ticker := time.NewTicker(auditFlushInterval)
	defer ticker.Stop()

	for {
		select {
		case entry := <-a.logs:
			batch = append(batch, entry)
			if len(batch) >= auditBatchSize {
				a.flush(batch)
				batch = make([]models.RequestLog, 0, auditBatchSize)
			}
		case <-ticker.C:
			if len(batch) > 0 {
				a.flush(batch)
				batch = make([]models.RequestLog, 0, auditBatchSize)
			}
		case <-a.done:
			// Drain whatever is still queued before exiting.
			for {
				select {
				case entry := <-a.logs:
					batch = append(batch, entry)
				default:
					a.flush(batch)
					return
				}
			}
		}
	}
}

func (a *RequestAuditor) flush(batch []models.RequestLog) {
	if len(batch) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.repo.CreateBatch(ctx, batch); err != nil {
		a.log.Error("failed to insert request logs",
			zap.Int("count", len(batch)), zap.Error(err))
	}
}

// Close flushes pending entries and stops the worker.
func (a *RequestAuditor) Close() {
	close(a.done)
}

// Middleware records every request after its handlers finish.
func (a *RequestAuditor) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		var userID *uuid.UUID
		if raw := c.GetString("user_id"); raw != "" {
			if id, err := uuid.Parse(raw); err == nil {
				userID = &id
			}
		}

		entry := models.RequestLog{
			Timestamp:      start,
			UserID:         userID,
			RouteKey:       c.GetString("route_key"),
			Method:         c.Request.Method,
			Path:           c.Request.URL.Path,
			StatusCode:     c.Writer.Status(),
			ResponseTimeMs: int(time.Since(start).Milliseconds()),
			IPAddress:      c.ClientIP(),
			UserAgent:      c.Request.UserAgent(),
		}

		select {
		case a.logs <- entry:
		default:
			a.log.Warn("request log buffer full, dropping entry")
		}
	}
}
