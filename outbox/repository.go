package outbox

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/tidepool-org/yearly-summary/config"
	"github.com/tidepool-org/yearly-summary/store"
)

type repository struct {
	collection *mongo.Collection
	logger     *zap.SugaredLogger
}

func NewRepository(cfg *config.Config, db *mongo.Database, logger *zap.SugaredLogger, lifecycle fx.Lifecycle) (Repository, error) {
	repo := &repository{
		collection: db.Collection(cfg.OutboxCollection),
		logger:     logger.With("collection", cfg.OutboxCollection),
	}

	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return repo.Initialize(ctx)
		},
	})

	return repo, nil
}

func (r *repository) Initialize(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "eventType", Value: 1},
				{Key: "createdTime", Value: 1},
			},
			Options: options.Index().SetName("EventTypeCreatedTime"),
		},
		{
			Keys:    bson.D{{Key: "runId", Value: 1}},
			Options: options.Index().SetName("RunId"),
		},
	})
	if err != nil {
		return store.WriteError(err, "unable to create outbox indexes")
	}
	return nil
}

func (r *repository) Create(ctx context.Context, event Event) error {
	if _, err := r.collection.InsertOne(ctx, event); err != nil {
		return store.WriteError(err, "unable to insert %s event for patient %s", event.EventType, event.PatientId)
	}

	r.logger.Debugw("created outbox event", "eventType", event.EventType, "runId", event.RunId, "patientId", event.PatientId)
	return nil
}
