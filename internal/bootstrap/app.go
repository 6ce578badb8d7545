package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"newsrag/internal/ai"
	"newsrag/internal/app"
	"newsrag/internal/cache"
	"newsrag/internal/config"
	"newsrag/internal/harvest"
	"newsrag/internal/platform/logging"
	mysqlClient "newsrag/internal/platform/mysql"
	postgresClient "newsrag/internal/platform/postgres"
	rabbitmqClient "newsrag/internal/platform/rabbitmq"
	redisClient "newsrag/internal/platform/redis"
	"newsrag/internal/repository"
	"newsrag/internal/summarizer"
	"newsrag/internal/vectorstore"
	"newsrag/internal/websearch"
	"newsrag/internal/worker"
)

type App struct {
	Config   *config.Config
	MySQL    *gorm.DB
	Redis    *redis.Client
	MQConn   *amqp.Connection
	Postgres *pgxpool.Pool

	Store     *repository.Store
	Ingest    *app.IngestService
	Search    *app.SearchService
	Reconcile *app.ReconcileService
	Harvest   *harvest.Scheduler

	ReindexWorker   *worker.ReindexWorker
	ReconcileWorker *worker.ReconcileWorker

	StartedAt time.Time
}

// New connects every dependency, builds the services and starts the
// background loops. On error, whatever was opened is closed again.
func New(ctx context.Context) (_ *App, err error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}
	logging.Setup(cfg.App.Env, cfg.Log.Level)

	a := &App{Config: cfg, StartedAt: time.Now()}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	a.MySQL, err = mysqlClient.New(ctx, cfg.MySQLDSN())
	if err != nil {
		return nil, err
	}
	if err = a.MySQL.AutoMigrate(repository.Models()...); err != nil {
		return nil, fmt.Errorf("auto migrate tables failed: %w", err)
	}
	a.Store = repository.NewStore(a.MySQL)

	if cfg.Redis.Addr != "" {
		a.Redis, err = redisClient.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, err
		}
	}
	if cfg.RabbitMQ.URL != "" {
		a.MQConn, err = rabbitmqClient.New(ctx, cfg.RabbitMQ.URL)
		if err != nil {
			return nil, err
		}
	}

	vectors, err := a.newVectorClient(ctx)
	if err != nil {
		return nil, err
	}

	var publisher app.ReindexPublisher
	if a.MQConn != nil {
		publisher = rabbitmqClient.NewReindexPublisher(a.MQConn, cfg.RabbitMQ.ReindexQueue)
	}
	a.Ingest = app.NewIngestService(a.Store, vectors, publisher, cfg.Ingest.ChunkSize)

	var web app.WebSearcher
	if cfg.Search.WebFallbackEnabled {
		web = websearch.NewBaiduClient(websearch.Config{
			Enabled:   true,
			Endpoint:  cfg.Search.Endpoint,
			UserAgent: cfg.RSS.UserAgent,
			Timeout:   cfg.Search.Timeout(),
		})
	}
	a.Search = app.NewSearchService(vectors, web, a.newSummarizer())

	a.Reconcile, err = app.NewReconcileService(a.Store, vectors, app.ReconcileConfig{
		Grace:     cfg.Reconcile.Grace(),
		BatchSize: cfg.Reconcile.BatchSize,
		PoolSize:  cfg.Reconcile.PoolSize,
	})
	if err != nil {
		return nil, err
	}

	var locker harvest.RunLocker
	if a.Redis != nil {
		locker = cache.NewRunLock(a.Redis, cfg.Redis.LockKey)
	}
	a.Harvest = harvest.NewScheduler(
		harvest.Config{
			Feeds:           cfg.RSS.Feeds,
			Interval:        cfg.RSS.Interval(),
			InitialDelay:    cfg.RSS.InitialDelay(),
			RunTimeout:      cfg.RSS.RunTimeout(),
			FeedTimeout:     cfg.RSS.FeedTimeout(),
			PolitenessDelay: cfg.RSS.PolitenessDelay(),
		},
		harvest.NewGofeedParser(cfg.RSS.UserAgent, cfg.RSS.PageFetchTimeout()),
		harvest.NewPageTextFetcher(cfg.RSS.UserAgent, cfg.RSS.PageFetchTimeout()),
		a.Store,
		a.Ingest,
		locker,
	)

	if a.MQConn != nil {
		a.ReindexWorker = worker.NewReindexWorker(a.MQConn, a.Reconcile, cfg.RabbitMQ.ReindexQueue)
		if err = a.ReindexWorker.Start(ctx); err != nil {
			return nil, fmt.Errorf("start reindex worker failed: %w", err)
		}
	}
	if cfg.Reconcile.Enabled {
		a.ReconcileWorker = worker.NewReconcileWorker(a.Reconcile, cfg.Reconcile.Interval())
		a.ReconcileWorker.Start(ctx)
	}
	if cfg.RSS.Enabled && len(cfg.RSS.Feeds) > 0 {
		a.Harvest.Start(ctx)
		logrus.WithField("feeds", len(cfg.RSS.Feeds)).Info("feed harvest scheduled")
	}

	return a, nil
}

func (a *App) newVectorClient(ctx context.Context) (vectorstore.Client, error) {
	cfg := a.Config
	switch cfg.Vector.Backend {
	case "", "worker":
		return vectorstore.NewWorkerClient(cfg.Vector.WorkerURL, cfg.Vector.Timeout()), nil
	case "pgvector":
		pool, err := postgresClient.New(ctx, cfg.Vector.PostgresDSN)
		if err != nil {
			return nil, err
		}
		a.Postgres = pool
		embedder := ai.NewEmbedder(ai.NewOpenAICompatibleClient(cfg.Vector.Timeout()), ai.EmbeddingConfig{
			BaseURL: cfg.LLM.BaseURL,
			APIKey:  cfg.LLM.APIKey,
			Model:   cfg.LLM.EmbeddingModel,
		})
		store := vectorstore.NewPGVectorStore(pool, embedder, cfg.Vector.Table, cfg.Vector.Dimension)
		if err := store.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown vector backend %q", cfg.Vector.Backend)
	}
}

func (a *App) newSummarizer() summarizer.Summarizer {
	cfg := a.Config
	if cfg.Summarizer.Backend == "llm" {
		return summarizer.NewLLMSummarizer(ai.NewOpenAICompatibleClient(cfg.Summarizer.Timeout()), ai.ChatConfig{
			BaseURL: cfg.LLM.BaseURL,
			APIKey:  cfg.LLM.APIKey,
			Model:   cfg.LLM.Model,
		})
	}
	return summarizer.NewWorkerSummarizer(cfg.Summarizer.WorkerURL, cfg.Summarizer.Timeout())
}

// StopBackground stops the harvest scheduler, including a manually
// triggered run, and the reconcile and reindex workers. Safe to call twice.
func (a *App) StopBackground() {
	if a.Harvest != nil {
		a.Harvest.Stop()
	}
	if a.ReconcileWorker != nil {
		a.ReconcileWorker.Close()
	}
	if a.ReindexWorker != nil {
		a.ReindexWorker.Close()
	}
}

// Close stops the background loops before closing the connections they use.
func (a *App) Close() error {
	var closeErr error
	a.StopBackground()
	if a.Reconcile != nil {
		a.Reconcile.Close()
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.Postgres != nil {
		a.Postgres.Close()
	}
	if a.MySQL != nil {
		sqlDB, err := a.MySQL.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	return closeErr
}
