// Package container builds every long-lived component of the API from the
// configuration and hands them to the router.
package container

import (
	"context"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/circle-up/config"
	"github.com/oksasatya/circle-up/internal/application"
	repo "github.com/oksasatya/circle-up/internal/domain/repository"
	"github.com/oksasatya/circle-up/internal/infrastructure/memory"
	pginfra "github.com/oksasatya/circle-up/internal/infrastructure/postgres"
	"github.com/oksasatya/circle-up/internal/interface/realtime"
	"github.com/oksasatya/circle-up/internal/observability"
	"github.com/oksasatya/circle-up/pkg/helpers"
	mailtpl "github.com/oksasatya/circle-up/pkg/mailer/templates"
)

type Repositories struct {
	Users             repo.UserRepository
	Communities       repo.CommunityRepository
	DirectMessages    repo.DirectMessageRepository
	CommunityMessages repo.CommunityMessageRepository
}

// Container owns the infrastructure clients; Close releases them.
// Redis, RabbitMQ and Elasticsearch are optional and nil when not configured.
type Container struct {
	Config   *config.Config
	Logger   *logrus.Logger
	Registry *prometheus.Registry
	Metrics  *observability.Metrics

	Pool   *pgxpool.Pool
	Redis  *redis.Client
	JWT    *helpers.JWTManager
	Rabbit *helpers.RabbitPublisher
	ES     *elasticsearch.Client
	Hub    *realtime.Hub

	Repos       Repositories
	Users       *application.UserService
	Friends     *application.FriendService
	Messages    *application.MessageService
	Communities *application.CommunityService

	closers []func()
}

// New connects to the configured backends. Only Postgres is fatal; the
// optional backends are logged and skipped when unreachable.
func New(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*Container, error) {
	c := &Container{Config: cfg, Logger: logger, Registry: prometheus.NewRegistry()}
	c.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	c.Metrics = observability.NewMetrics(c.Registry)
	c.JWT = helpers.NewJWTManager(cfg.JWTAccessSecret, cfg.AccessTTL, cfg.AppName)

	if err := c.openStorage(ctx); err != nil {
		return nil, err
	}
	c.openRedis(ctx)
	c.openRabbit()
	c.openES(ctx)

	c.Hub = realtime.NewHub(c.Metrics, logger)
	c.wireServices()
	return c, nil
}

func (c *Container) openStorage(ctx context.Context) error {
	if c.Config.UseMemoryStore() {
		c.Logger.Warn("STORAGE_DRIVER=memory: data is lost on restart")
		c.Repos = MemoryRepositories(memory.NewStore())
		return nil
	}
	pool, err := pginfra.NewPool(ctx, c.Config.PostgresDSN(), c.Config.DBMaxConns, c.Config.DBMinConns, c.Config.DBMaxConnLife)
	if err != nil {
		return err
	}
	c.Pool = pool
	c.closers = append(c.closers, pool.Close)
	c.Repos = Repositories{
		Users:             pginfra.NewUserRepository(pool),
		Communities:       pginfra.NewCommunityRepository(pool),
		DirectMessages:    pginfra.NewDirectMessageRepository(pool),
		CommunityMessages: pginfra.NewCommunityMessageRepository(pool),
	}
	return nil
}

// MemoryRepositories exposes a memory store through the repository ports.
func MemoryRepositories(s *memory.Store) Repositories {
	return Repositories{
		Users:             s.Users(),
		Communities:       s.Communities(),
		DirectMessages:    s.DirectMessages(),
		CommunityMessages: s.CommunityMessages(),
	}
}

func (c *Container) openRedis(ctx context.Context) {
	if c.Config.RedisAddr == "" {
		c.Logger.Warn("REDIS_ADDR empty: sessions are not checked and rate limits are off")
		return
	}
	rdb := helpers.NewRedisClient(c.Config.RedisAddr, c.Config.RedisPassword, c.Config.RedisDB)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		c.Logger.WithError(err).Warn("redis unreachable: sessions are not checked and rate limits are off")
		_ = rdb.Close()
		return
	}
	c.Redis = rdb
	c.closers = append(c.closers, func() { _ = rdb.Close() })
}

func (c *Container) openRabbit() {
	if c.Config.RabbitMQURL == "" || !c.Config.MailSendEnabled {
		c.Logger.Info("notification emails are off")
		return
	}
	pub, err := helpers.NewRabbitPublisher(c.Config.RabbitMQURL, c.Config.RabbitMQEmailQueue)
	if err != nil {
		c.Logger.WithError(err).Warn("rabbitmq unreachable: notification emails are off")
		return
	}
	c.Rabbit = pub
	c.closers = append(c.closers, pub.Close)
}

func (c *Container) openES(ctx context.Context) {
	addrs := c.Config.ESAddrs()
	if len(addrs) == 0 {
		c.Logger.Info("ELASTICSEARCH_ADDRS empty: community search is off")
		return
	}
	es, err := helpers.NewESClient(addrs, c.Config.ElasticsearchUser, c.Config.ElasticsearchPass)
	if err != nil {
		c.Logger.WithError(err).Warn("elasticsearch client init failed: community search is off")
		return
	}
	if err := helpers.EnsureIndex(ctx, es, c.Config.ESCommunitiesIndex, helpers.CommunitiesMapping); err != nil {
		c.Logger.WithError(err).Warn("elasticsearch index not ready")
	}
	c.ES = es
}

func (c *Container) wireServices() {
	base := mailtpl.Base{AppName: c.Config.AppName, AppURL: c.Config.AppURL, SupportURL: c.Config.SupportURL}
	notifier := &application.Notifier{Metrics: c.Metrics, Logger: c.Logger}
	if c.Rabbit != nil {
		notifier.Publisher = c.Rabbit
	}

	c.Users = application.NewUserService(c.Repos.Users, c.JWT, c.Redis, notifier, base, c.Logger)
	c.Users.SignupTTL = c.Config.SignupTokenTTL
	c.Users.SessionTTL = c.Config.SessionTTL
	c.Friends = application.NewFriendService(c.Repos.Users, notifier, base, c.Logger)
	c.Messages = application.NewMessageService(c.Repos.DirectMessages, c.Repos.Users, c.Hub, c.Metrics, c.Logger)
	c.Communities = application.NewCommunityService(c.Repos.Communities, c.Repos.CommunityMessages, c.Repos.Users,
		c.Hub, c.ES, c.Config.ESCommunitiesIndex, c.Metrics, c.Logger)
}

// Close releases clients in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}
