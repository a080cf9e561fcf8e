package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"ragchat/internal/ai"
	appsvc "ragchat/internal/app"
	"ragchat/internal/cache"
	"ragchat/internal/config"
	"ragchat/internal/pkg/logger"
	mysqlClient "ragchat/internal/platform/mysql"
	postgresClient "ragchat/internal/platform/postgres"
	rabbitmqClient "ragchat/internal/platform/rabbitmq"
	redisClient "ragchat/internal/platform/redis"
	"ragchat/internal/repository"
	"ragchat/internal/vectorstore"
	"ragchat/internal/worker"
)

type App struct {
	Config   *config.Config
	Log      *zap.Logger
	Embedder ai.Embedder
	Store    vectorstore.Store
	Ingest   *appsvc.IngestService
	Query    *appsvc.QueryService

	MySQL        *gorm.DB
	Postgres     *gorm.DB
	Redis        *redis.Client
	MQConn       *amqp.Connection
	Ledger       *repository.IngestionRepository
	LedgerWorker *worker.IngestionLedgerWorker

	StartedAt time.Time
}

// Options tweak construction for non-server entrypoints.
type Options struct {
	// SkipWorkers leaves the ledger queue unconsumed; events are still
	// published.
	SkipWorkers bool
	// SkipEnsure leaves the collection untouched at startup, so that a
	// collection with a different dimension can still be recreated.
	SkipEnsure bool
	// Logger replaces the configured logger.
	Logger *zap.Logger
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}
	return NewWithConfig(ctx, cfg, Options{})
}

// NewWithConfig connects every enabled dependency and makes sure the vector
// collection exists. It never drops existing data.
func NewWithConfig(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	log := opts.Logger
	if log == nil {
		var err error
		log, err = logger.New(logger.Options{
			File:  cfg.Log.File,
			Level: cfg.Log.Level,
			Prod:  cfg.App.Env == "prod",
		})
		if err != nil {
			return nil, fmt.Errorf("build logger failed: %w", err)
		}
	}

	a := &App{Config: cfg, Log: log, StartedAt: time.Now()}
	if err := a.init(ctx, opts); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) init(ctx context.Context, opts Options) error {
	cfg := a.Config

	if cfg.Cache.Driver == cache.DriverRedis {
		redisCli, err := redisClient.New(ctx, redisClient.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return err
		}
		a.Redis = redisCli
	}

	embedder, err := a.buildEmbedder()
	if err != nil {
		return err
	}
	a.Embedder = embedder

	store, err := a.buildStore(ctx)
	if err != nil {
		return err
	}
	a.Store = store
	if !opts.SkipEnsure {
		if err := store.EnsureCollection(ctx, embedder.Dimension()); err != nil {
			return fmt.Errorf("ensure collection %s failed: %w", cfg.Store.Collection, err)
		}
	}

	var publisher appsvc.EventPublisher
	if cfg.Ledger.Enabled {
		p, err := a.startLedger(ctx, opts.SkipWorkers)
		if err != nil {
			return err
		}
		publisher = p
	}

	a.Ingest = appsvc.NewIngestService(embedder, store, publisher, cfg.Store.Collection, a.Log.Named("ingest"))
	a.Query = appsvc.NewQueryService(embedder, store, appsvc.QueryConfig{
		MinScore:     cfg.Query.MinScore,
		LexicalBonus: cfg.Query.LexicalBonus,
		StrictWords:  cfg.Query.StrictWords,
		SmallTalk:    cfg.Query.SmallTalk,
	}, a.Log.Named("query"))

	a.Log.Info("app initialized",
		zap.String("backend", cfg.Embedding.Backend),
		zap.String("model", embedder.ModelName()),
		zap.Int("dim", embedder.Dimension()),
		zap.String("store", cfg.Store.Driver),
		zap.String("collection", cfg.Store.Collection),
		zap.String("cache", cfg.Cache.Driver),
		zap.Bool("ledger", cfg.Ledger.Enabled),
	)
	return nil
}

func (a *App) buildEmbedder() (ai.Embedder, error) {
	cfg := a.Config
	var base ai.Embedder
	switch cfg.Embedding.Backend {
	case ai.BackendRemote:
		remote, err := ai.NewRemoteEmbedder(ai.RemoteConfig{
			APIKey:    cfg.Embedding.Remote.APIKey,
			BaseURL:   cfg.Embedding.Remote.BaseURL,
			Model:     cfg.Embedding.Remote.Model,
			Dimension: cfg.Embedding.Remote.Dimension,
		})
		if err != nil {
			return nil, err
		}
		base = remote
	default:
		base = ai.NewLocalEmbedder(ai.LocalConfig{
			BaseURL:   cfg.Embedding.Local.BaseURL,
			APIKey:    cfg.Embedding.Local.APIKey,
			Model:     cfg.Embedding.Local.Model,
			Dimension: cfg.Embedding.Local.Dimension,
			Timeout:   time.Duration(cfg.Embedding.Local.TimeoutSeconds) * time.Second,
		}, nil)
	}

	ttl := time.Duration(cfg.Cache.TTLSeconds) * time.Second
	log := a.Log.Named("embed-cache")
	switch cfg.Cache.Driver {
	case cache.DriverMemory:
		return ai.NewCachedEmbedder(base, cache.NewMemoryEmbeddingCache(ttl), log), nil
	case cache.DriverRedis:
		return ai.NewCachedEmbedder(base, cache.NewRedisEmbeddingCache(a.Redis, ttl), log), nil
	}
	return base, nil
}

func (a *App) buildStore(ctx context.Context) (vectorstore.Store, error) {
	cfg := a.Config.Store
	switch cfg.Driver {
	case vectorstore.DriverPGVector:
		db, err := postgresClient.New(ctx, cfg.PGVector.DSN)
		if err != nil {
			return nil, err
		}
		a.Postgres = db
		return vectorstore.NewPGVector(db, cfg.Collection)
	case vectorstore.DriverBolt:
		return vectorstore.OpenBolt(cfg.Bolt.Path, cfg.Collection)
	case vectorstore.DriverMemory:
		return vectorstore.NewMemory(), nil
	}
	return vectorstore.NewQdrant(vectorstore.QdrantConfig{
		URL:        cfg.Qdrant.URL,
		APIKey:     cfg.Qdrant.APIKey,
		Collection: cfg.Collection,
		Timeout:    time.Duration(cfg.Qdrant.TimeoutSeconds) * time.Second,
	}, nil), nil
}

func (a *App) startLedger(ctx context.Context, skipWorker bool) (*rabbitmqClient.IngestionPublisher, error) {
	cfg := a.Config

	mysqlDB, err := mysqlClient.New(ctx, cfg.MySQLDSN())
	if err != nil {
		return nil, err
	}
	a.MySQL = mysqlDB
	a.Ledger = repository.NewIngestionRepository(mysqlDB)

	mqConn, err := rabbitmqClient.New(ctx, cfg.RabbitMQ.URL, cfg.Ledger.Queue)
	if err != nil {
		return nil, err
	}
	a.MQConn = mqConn

	if !skipWorker {
		ledgerWorker := worker.NewIngestionLedgerWorker(mqConn, a.Ledger, cfg.Ledger.Queue, a.Log.Named("ledger"))
		if err := ledgerWorker.Start(context.WithoutCancel(ctx)); err != nil {
			return nil, fmt.Errorf("start ledger worker failed: %w", err)
		}
		a.LedgerWorker = ledgerWorker
	}
	return rabbitmqClient.NewIngestionPublisher(mqConn, cfg.Ledger.Queue), nil
}

func (a *App) Close() error {
	var errs []error
	if a.LedgerWorker != nil {
		a.LedgerWorker.Close()
	}
	if a.MQConn != nil && !a.MQConn.IsClosed() {
		if err := a.MQConn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close rabbitmq failed: %w", err))
		}
	}
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close vector store failed: %w", err))
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis failed: %w", err))
		}
	}
	for name, db := range map[string]*gorm.DB{"mysql": a.MySQL, "postgres": a.Postgres} {
		if db == nil {
			continue
		}
		if sqlDB, err := db.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close %s failed: %w", name, err))
			}
		}
	}
	if a.Log != nil {
		_ = a.Log.Sync()
	}
	return errors.Join(errs...)
}
