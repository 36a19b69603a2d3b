package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/deepresearch-backend/internal/logger"
	"github.com/yungbote/deepresearch-backend/internal/shared"
)

// HealthService reports overall service health: unhealthy when the database
// ping fails, degraded when a configured event bus is down, healthy
// otherwise.
type HealthService interface {
	Check(ctx context.Context) (shared.HealthResponse, map[string]string)
	Ready(ctx context.Context) bool
}

type healthService struct {
	db      *gorm.DB
	log     *logger.Logger
	version string

	// busCheck is nil when no redis bus is configured.
	busCheck func(ctx context.Context) error
}

func NewHealthService(db *gorm.DB, log *logger.Logger, version string, busCheck func(ctx context.Context) error) HealthService {
	return &healthService{
		db:       db,
		log:      log.With("service", "HealthService"),
		version:  version,
		busCheck: busCheck,
	}
}

func (s *healthService) Check(ctx context.Context) (shared.HealthResponse, map[string]string) {
	checks := map[string]string{}
	status := shared.HealthStatusHealthy

	if err := s.pingDB(ctx); err != nil {
		s.log.Warn("Database health check failed", "error", err)
		checks["database"] = "disconnected"
		status = shared.HealthStatusUnhealthy
	} else {
		checks["database"] = "connected"
	}

	if s.busCheck != nil {
		if err := s.busCheck(ctx); err != nil {
			s.log.Warn("Event bus health check failed", "error", err)
			checks["event_bus"] = "disconnected"
			if status == shared.HealthStatusHealthy {
				status = shared.HealthStatusDegraded
			}
		} else {
			checks["event_bus"] = "connected"
		}
	}

	return shared.HealthResponse{
		Status:    status,
		Version:   s.version,
		Timestamp: time.Now().UTC(),
	}, checks
}

func (s *healthService) Ready(ctx context.Context) bool {
	return s.pingDB(ctx) == nil
}

func (s *healthService) pingDB(ctx context.Context) error {
	if s.db == nil {
		return gorm.ErrInvalidDB
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	return sqlDB.PingContext(pingCtx)
}
