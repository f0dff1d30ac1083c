package patients

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/tidepool-org/yearly-summary/config"
	"github.com/tidepool-org/yearly-summary/store"
)

func NewMetricsRepository(cfg *config.Config, db *mongo.Database) (MetricsRepository, error) {
	return &metricsRepository{
		collection: db.Collection(cfg.MetricsCollection),
	}, nil
}

type metricsRepository struct {
	collection *mongo.Collection
}

func (r *metricsRepository) CountInRange(ctx context.Context, patientId string, from, to time.Time) (int, error) {
	selector := bson.M{
		"patientId": patientId,
		"timestamp": bson.M{
			"$gte": from,
			"$lt":  to,
		},
	}

	count, err := r.collection.CountDocuments(ctx, selector)
	if err != nil {
		return 0, store.ReadError(err, "unable to count metrics of patient %s", patientId)
	}

	return int(count), nil
}
