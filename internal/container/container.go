package container

import (
	"context"
	"fmt"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/feedback-hub/config"
	"github.com/oksasatya/feedback-hub/internal/application"
	"github.com/oksasatya/feedback-hub/internal/infrastructure/postgres"
	"github.com/oksasatya/feedback-hub/internal/infrastructure/redisstore"
	"github.com/oksasatya/feedback-hub/internal/infrastructure/search"
	"github.com/oksasatya/feedback-hub/internal/infrastructure/treestore"
	"github.com/oksasatya/feedback-hub/pkg/helpers"
	mailtpl "github.com/oksasatya/feedback-hub/pkg/mailer/templates"
)

// Infra holds the external clients a process opened. A nil member disables
// the features built on it.
type Infra struct {
	Backend   treestore.Backend
	Redis     *redis.Client
	ES        *elasticsearch.Client
	Publisher application.JobPublisher
	Objects   application.ObjectPutter
}

// Container is the app-level set of constructed components shared by the
// router modules and the binaries.
type Container struct {
	Config *config.Config
	Logger *logrus.Logger
	Redis  *redis.Client
	JWT    *helpers.JWTManager

	Gateway   *treestore.Gateway
	Users     *treestore.UserRepository
	Feedbacks *treestore.FeedbackRepository
	Counters  *treestore.CounterRepository

	UserService     *application.UserService
	FeedbackService *application.FeedbackService
	AuthService     *application.AuthService     // nil without Redis
	SnapshotService *application.SnapshotService // nil without an object store
}

func New(cfg *config.Config, logger *logrus.Logger, infra Infra) *Container {
	gw := treestore.NewGateway(infra.Backend, logger, treestore.Options{
		OpTimeout:      cfg.StoreOpTimeout,
		MaxTxnAttempts: cfg.StoreTxnMaxAttempts,
	})
	c := &Container{
		Config:    cfg,
		Logger:    logger,
		Redis:     infra.Redis,
		JWT:       helpers.NewJWTManager(cfg.JWTAccessSecret, cfg.JWTRefreshSecret, cfg.AccessTTL, cfg.RefreshTTL),
		Gateway:   gw,
		Users:     treestore.NewUserRepository(gw),
		Feedbacks: treestore.NewFeedbackRepository(gw),
		Counters:  treestore.NewCounterRepository(gw),
	}

	var notifier *application.Notifier
	if infra.Publisher != nil {
		notifier = application.NewNotifier(infra.Publisher, Branding(cfg), logger)
	}
	var index application.UserIndex
	if infra.ES != nil && cfg.ESUsersIndex != "" {
		index = search.NewUserIndex(infra.ES, cfg.ESUsersIndex, logger)
	}

	aggregates := application.NewAggregateUpdater(c.Users, logger)
	c.FeedbackService = application.NewFeedbackService(c.Feedbacks, c.Users, aggregates, notifier, logger)
	c.UserService = application.NewUserService(c.Users, application.NewIDAllocator(c.Counters), index, notifier, logger)
	if infra.Redis != nil {
		c.AuthService = application.NewAuthService(c.Users, c.JWT, infra.Redis, logger)
	}
	if infra.Objects != nil {
		c.SnapshotService = application.NewSnapshotService(c.Users, c.Feedbacks, c.Counters, infra.Objects, cfg.SnapshotPrefix, logger)
	}
	return c
}

func (c *Container) Close() error { return c.Gateway.Close() }

func Branding(cfg *config.Config) mailtpl.Branding {
	return mailtpl.Branding{
		AppName:        cfg.AppName,
		CompanyName:    cfg.CompanyName,
		CompanyAddress: cfg.CompanyAddress,
		LogoURL:        cfg.LogoURL,
		SupportURL:     cfg.SupportURL,
	}
}

// OpenBackend returns the tree backend selected by STORE_DRIVER and a release
// func for anything it opened. The postgres driver migrates before returning.
func OpenBackend(ctx context.Context, cfg *config.Config, rdb *redis.Client, logger *logrus.Logger) (treestore.Backend, func(), error) {
	switch cfg.StoreDriver {
	case config.StoreMemory:
		logger.Warn("using in-memory tree store; data is lost on exit")
		return treestore.NewMemoryBackend(), func() {}, nil
	case config.StorePostgres:
		pool, err := postgres.NewPool(ctx, cfg.PostgresDSN(), cfg.AppName, cfg.DBMaxConns, cfg.DBMinConns, cfg.DBMaxConnLife)
		if err != nil {
			return nil, nil, fmt.Errorf("connect postgres: %w", err)
		}
		if err := postgres.RunMigrations(cfg.PostgresDSN(), cfg.MigrationsDir, logger); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("migrate: %w", err)
		}
		return postgres.NewTreeBackend(pool), pool.Close, nil
	default:
		if rdb == nil {
			return nil, nil, fmt.Errorf("store driver %q needs a redis client", cfg.StoreDriver)
		}
		return redisstore.NewTreeBackend(rdb, cfg.StoreKeyPrefix), func() {}, nil
	}
}
