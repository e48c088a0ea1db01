package service

import (
	"context"
	"time"

	"movie-catalog/internal/repo"
	"movie-catalog/pkg/apperr"
)

// Pinger 可选依赖（Redis）
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthStatus struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	BuildTime string `json:"buildTime"`
	DB        string `json:"db"`
	Redis     string `json:"redis"`
}

type HealthService struct {
	store     *repo.Store
	redis     Pinger
	version   string
	buildTime string
}

func NewHealthService(store *repo.Store, redis Pinger, version, buildTime string) *HealthService {
	return &HealthService{store: store, redis: redis, version: version, buildTime: buildTime}
}

// Check 数据库不可用 → 500；Redis 只影响 redis 字段
func (s *HealthService) Check(ctx context.Context) (*HealthStatus, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		return nil, apperr.Database(err).WithDetail("db", "down")
	}
	out := &HealthStatus{Status: "ok", Version: s.version, BuildTime: s.buildTime, DB: "up", Redis: "disabled"}
	if s.redis != nil {
		out.Redis = "up"
		if err := s.redis.Ping(ctx); err != nil {
			out.Redis = "down"
			out.Status = "degraded"
		}
	}
	return out, nil
}
