package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/tidepool-org/yearly-summary/errors"
)

func NewClient(host string) (*mongo.Client, error) {
	ctx, cancel := NewDbContext()
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(host))
	if err != nil {
		return nil, fmt.Errorf("unable to connect to mongo: %w", err)
	}

	return client, nil
}

// NewLifecycleClient connects to mongo and disconnects when the application stops
func NewLifecycleClient(cs ConnectionString, logger *zap.SugaredLogger, lifecycle fx.Lifecycle) (*mongo.Client, error) {
	client, err := NewClient(string(cs))
	if err != nil {
		return nil, err
	}

	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return client.Ping(ctx, nil)
		},
		OnStop: func(ctx context.Context) error {
			logger.Debug("disconnecting from mongo")
			return client.Disconnect(ctx)
		},
	})

	return client, nil
}

func NewDatabase(client *mongo.Client, cfg *Config, logger *zap.SugaredLogger) (*mongo.Database, error) {
	if cfg.DatabaseName == "" {
		return nil, fmt.Errorf("%w: database name must not be empty", errors.InvalidConfig)
	}

	logger.Debugw("using mongo database", "database", cfg.DatabaseName)
	return client.Database(cfg.DatabaseName), nil
}
