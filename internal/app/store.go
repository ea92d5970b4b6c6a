package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/utafrali/reelreviews/internal/config"
	"github.com/utafrali/reelreviews/internal/repository"
	"github.com/utafrali/reelreviews/internal/repository/memory"
	"github.com/utafrali/reelreviews/internal/repository/mongodb"
	"github.com/utafrali/reelreviews/internal/repository/postgres"
	redisrepo "github.com/utafrali/reelreviews/internal/repository/redis"
	"github.com/utafrali/reelreviews/migrations"
	"github.com/utafrali/reelreviews/pkg/database"
)

// store bundles the repositories of one backend with its lifecycle hooks.
type store struct {
	name     string
	accounts repository.AccountRepository
	reviews  repository.ReviewRepository
	ping     func(ctx context.Context) error
	close    func(ctx context.Context) error
}

func openStore(ctx context.Context, cfg *config.Config, reg prometheus.Registerer, logger *slog.Logger) (*store, error) {
	switch cfg.StoreDriver {
	case config.StoreMongo:
		return openMongo(ctx, cfg, logger)
	case config.StorePostgres:
		return openPostgres(ctx, cfg, reg, logger)
	case config.StoreRedis:
		return openRedis(ctx, cfg, logger)
	case config.StoreMemory:
		logger.Warn("using in-memory store, data is lost on restart")
		return &store{
			name:     config.StoreMemory,
			accounts: memory.NewAccountRepository(),
			reviews:  memory.NewReviewRepository(),
			ping:     func(context.Context) error { return nil },
			close:    func(context.Context) error { return nil },
		}, nil
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.StoreDriver)
	}
}

func openMongo(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*store, error) {
	db, err := database.NewMongoDatabase(ctx, &database.MongoConfig{
		URI:            cfg.MongoURI,
		Database:       cfg.MongoDatabase,
		MaxPoolSize:    cfg.MongoMaxPoolSize,
		ConnectTimeout: cfg.MongoTimeout,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}
	logger.Info("connected to MongoDB", slog.String("database", cfg.MongoDatabase))

	if err := mongodb.EnsureIndexes(ctx, db); err != nil {
		_ = db.Client().Disconnect(context.Background())
		return nil, fmt.Errorf("ensure mongodb indexes: %w", err)
	}
	logger.Info("mongodb indexes ensured")

	return &store{
		name:     config.StoreMongo,
		accounts: mongodb.NewAccountRepository(db),
		reviews:  mongodb.NewReviewRepository(db),
		ping: func(ctx context.Context) error {
			return db.Client().Ping(ctx, nil)
		},
		close: func(ctx context.Context) error {
			return db.Client().Disconnect(ctx)
		},
	}, nil
}

func openPostgres(ctx context.Context, cfg *config.Config, reg prometheus.Registerer, logger *slog.Logger) (*store, error) {
	pgCfg := database.PostgresConfig{
		Host:            cfg.PostgresHost,
		Port:            cfg.PostgresPort,
		User:            cfg.PostgresUser,
		Password:        cfg.PostgresPass,
		DBName:          cfg.PostgresDB,
		SSLMode:         cfg.PostgresSSL,
		MaxConns:        cfg.DBMaxConns,
		MinConns:        cfg.DBMinConns,
		MaxConnLifetime: time.Duration(cfg.DBMaxConnLifetimeMins) * time.Minute,
		MaxConnIdleTime: time.Duration(cfg.DBMaxConnIdleTimeMins) * time.Minute,
	}

	pool, err := database.NewPostgresPool(ctx, &pgCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)
	if err := database.RegisterPoolMetrics(reg, pool, serviceName); err != nil {
		logger.Warn("register pool metrics", slog.String("error", err.Error()))
	}

	// Run database migrations.
	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations completed")

	// Configure slow query logging.
	if cfg.SlowQueryThresholdMs > 0 {
		database.SetSlowQueryLogging(time.Duration(cfg.SlowQueryThresholdMs)*time.Millisecond, logger)
	}

	return &store{
		name:     config.StorePostgres,
		accounts: postgres.NewAccountRepository(pool),
		reviews:  postgres.NewReviewRepository(pool),
		ping:     pool.Ping,
		close: func(context.Context) error {
			pool.Close()
			return nil
		},
	}, nil
}

func openRedis(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*store, error) {
	rdb, err := database.NewRedisClient(ctx, database.RedisConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
		DB:       cfg.RedisDB,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	logger.Info("connected to Redis",
		slog.String("addr", cfg.RedisAddr),
		slog.Int("db", cfg.RedisDB),
	)

	return &store{
		name:     config.StoreRedis,
		accounts: redisrepo.NewAccountRepository(rdb),
		reviews:  redisrepo.NewReviewRepository(rdb),
		ping: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		},
		close: func(context.Context) error {
			return rdb.Close()
		},
	}, nil
}
