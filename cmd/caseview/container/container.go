package container

import (
	"github.com/redis/go-redis/v9"

	"github.com/famcase/caseview/cmd/caseview/service"
	"github.com/famcase/caseview/common/bootstrap"
	"github.com/famcase/caseview/common/ratelimit"
	rediscommon "github.com/famcase/caseview/common/redis"
	"github.com/famcase/caseview/common/repository"
)

// Container holds all initialized services and repositories (singleton pattern)
type Container struct {
	// Components
	Components *bootstrap.Components
	Redis      *rediscommon.Client

	// Repositories
	SubmissionRepo *repository.SubmissionRepository
	CustodyRepo    *repository.CustodyRepository

	// Services
	CaseService *service.CaseService
	RateLimiter *ratelimit.RateLimiter
}

// NewContainer initializes all services and repositories once
func NewContainer(components *bootstrap.Components) (*Container, error) {
	cfg := components.Config

	// Create Redis client (raw)
	redisRaw := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	// Wrap with common redis client for instrumentation
	redisClient := rediscommon.NewClient(redisRaw, components.Logger)

	// Initialize repositories
	submissionRepo := repository.NewSubmissionRepository(components.DB)
	custodyRepo := repository.NewCustodyRepository(components.DB)

	// Initialize services
	caseService := service.NewCaseService(submissionRepo, custodyRepo, components)

	var rateLimiter *ratelimit.RateLimiter
	if cfg.RateLimit.Enabled {
		rateLimiter = ratelimit.NewRateLimiter(redisRaw, components.Logger)
	}

	return &Container{
		Components:     components,
		Redis:          redisClient,
		SubmissionRepo: submissionRepo,
		CustodyRepo:    custodyRepo,
		CaseService:    caseService,
		RateLimiter:    rateLimiter,
	}, nil
}
