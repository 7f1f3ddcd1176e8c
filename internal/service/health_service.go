package service

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// HealthCheck is the per-service probe result.
type HealthCheck struct {
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// HealthReport aggregates all service probes. Status is "ok" only when every
// required service is reachable; cache and mail are reported but optional.
type HealthReport struct {
	Status    string                 `json:"status"`
	Services  map[string]HealthCheck `json:"services"`
	CheckedAt time.Time              `json:"checked_at"`
}

const (
	healthOK       = "ok"
	healthDown     = "down"
	healthDisabled = "disabled"
)

type storagePinger interface {
	Ping() error
}

type mailerStatus interface {
	Configured() bool
}

// HealthService probes the process dependencies.
type HealthService struct {
	db      *sqlx.DB
	redis   *redis.Client
	storage storagePinger
	mail    mailerStatus
	logger  *zap.Logger
}

// NewHealthService constructs a HealthService. redis may be nil when the
// cache is not configured.
func NewHealthService(db *sqlx.DB, redisClient *redis.Client, storage storagePinger, mail mailerStatus, logger *zap.Logger) *HealthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HealthService{db: db, redis: redisClient, storage: storage, mail: mail, logger: logger}
}

// Check runs all probes. Database and storage are required; cache and mail
// degrade to a reported-but-non-fatal state.
func (s *HealthService) Check(ctx context.Context) *HealthReport {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	services := make(map[string]HealthCheck, 4)
	healthy := true

	if err := s.db.PingContext(ctx); err != nil {
		services["database"] = HealthCheck{Status: healthDown, Detail: err.Error()}
		healthy = false
	} else {
		services["database"] = HealthCheck{Status: healthOK}
	}

	if s.storage != nil {
		if err := s.storage.Ping(); err != nil {
			services["storage"] = HealthCheck{Status: healthDown, Detail: err.Error()}
			healthy = false
		} else {
			services["storage"] = HealthCheck{Status: healthOK}
		}
	}

	if s.redis == nil {
		services["cache"] = HealthCheck{Status: healthDisabled}
	} else if err := s.redis.Ping(ctx).Err(); err != nil {
		services["cache"] = HealthCheck{Status: healthDown, Detail: err.Error()}
	} else {
		services["cache"] = HealthCheck{Status: healthOK}
	}

	if s.mail == nil || !s.mail.Configured() {
		services["mail"] = HealthCheck{Status: healthDisabled, Detail: "log-only mode"}
	} else {
		services["mail"] = HealthCheck{Status: healthOK}
	}

	status := healthOK
	if !healthy {
		status = healthDown
	}
	return &HealthReport{Status: status, Services: services, CheckedAt: time.Now().UTC()}
}
