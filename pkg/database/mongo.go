package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoConfig holds MongoDB connection configuration.
type MongoConfig struct {
	URI            string
	Database       string
	MaxPoolSize    uint64
	ConnectTimeout time.Duration
}

// NewMongoDatabase connects to MongoDB, pings the primary and returns the
// configured database handle. Startup failures are retried like Postgres.
func NewMongoDatabase(ctx context.Context, cfg *MongoConfig, logger *slog.Logger) (*mongo.Database, error) {
	if cfg.URI == "" {
		return nil, errors.New("mongodb uri must be set")
	}
	if cfg.Database == "" {
		return nil, errors.New("mongodb database must be set")
	}

	opts := options.Client().ApplyURI(cfg.URI)
	if cfg.MaxPoolSize > 0 {
		opts.SetMaxPoolSize(cfg.MaxPoolSize)
	}
	if cfg.ConnectTimeout > 0 {
		opts.SetConnectTimeout(cfg.ConnectTimeout)
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("create mongodb client: %w", err)
	}

	err = withStartupRetry(ctx, "mongodb", logger, func() error {
		return client.Ping(ctx, readpref.Primary())
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	return client.Database(cfg.Database), nil
}
