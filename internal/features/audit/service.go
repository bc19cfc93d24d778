package audit

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Service records remote API calls. Recording is best-effort: a failed
// insert must never fail the call it describes.
type Service interface {
	RecordCall(ctx context.Context, log CallLog)
	ListCalls(ctx context.Context, ownerID string, limit int64) ([]CallLog, error)
}

type ServiceImpl struct {
	Repo   CallLogRepository
	Logger *zap.Logger
}

func NewService(repo CallLogRepository, logger *zap.Logger) Service {
	return &ServiceImpl{
		Repo:   repo,
		Logger: logger,
	}
}

func (s *ServiceImpl) RecordCall(ctx context.Context, log CallLog) {
	if log.Timestamp.IsZero() {
		log.Timestamp = time.Now()
	}
	if err := s.Repo.Create(ctx, &log); err != nil {
		s.Logger.Warn("failed to record api call",
			zap.String("url", log.URL),
			zap.Error(err))
	}
}

func (s *ServiceImpl) ListCalls(ctx context.Context, ownerID string, limit int64) ([]CallLog, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.Repo.List(ctx, ownerID, limit)
}
