package outbox

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/tidepool-org/yearly-summary/config"
)

// NewConfiguredRepository returns the mongo backed repository when the outbox
// is enabled. Otherwise events are dropped and the outbox collection is never touched.
func NewConfiguredRepository(cfg *config.Config, db *mongo.Database, logger *zap.SugaredLogger, lifecycle fx.Lifecycle) (Repository, error) {
	if !cfg.OutboxEnabled {
		logger.Debug("outbox is disabled, events will be dropped")
		return &disabledRepository{}, nil
	}
	return NewRepository(cfg, db, logger, lifecycle)
}

type disabledRepository struct{}

var _ Repository = &disabledRepository{}

func (d *disabledRepository) Create(ctx context.Context, event Event) error {
	return nil
}

func (d *disabledRepository) Initialize(ctx context.Context) error {
	return nil
}
