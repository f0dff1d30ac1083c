package patients

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/tidepool-org/yearly-summary/config"
	"github.com/tidepool-org/yearly-summary/errors"
	"github.com/tidepool-org/yearly-summary/store"
)

func NewRepository(cfg *config.Config, db *mongo.Database, logger *zap.SugaredLogger) (Repository, error) {
	return &repository{
		collection: db.Collection(cfg.PatientsCollection),
		logger:     logger,
	}, nil
}

type repository struct {
	collection *mongo.Collection
	logger     *zap.SugaredLogger
}

func (r *repository) List(ctx context.Context, page store.Page) ([]PatientRecord, error) {
	// $gt would only match string ids, the negation also reaches the ids of
	// other types sorted after the strings so they fail below
	selector := bson.M{}
	if page.After != "" {
		selector["_id"] = bson.M{"$not": bson.M{"$lte": page.After}}
	}

	opts := options.Find().
		SetProjection(bson.M{"_id": 1}).
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetLimit(int64(page.Limit))

	cursor, err := r.collection.Find(ctx, selector, opts)
	if err != nil {
		return nil, store.ReadError(err, "unable to list patient records")
	}

	var documents []bson.Raw
	if err = cursor.All(ctx, &documents); err != nil {
		return nil, store.ReadError(err, "unable to decode patient records")
	}

	records := make([]PatientRecord, 0, len(documents))
	for _, document := range documents {
		value := document.Lookup("_id")
		id, ok := value.StringValueOK()
		if !ok {
			return nil, fmt.Errorf("%w: patient record %s in %s has a %s _id, only string ids are supported", errors.InvalidConfig, value, r.collection.Name(), value.Type)
		}
		records = append(records, PatientRecord{Id: id})
	}

	r.logger.Debugw("listed patient records", "after", page.After, "count", len(records))
	return records, nil
}
