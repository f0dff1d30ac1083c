package summaries

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/tidepool-org/yearly-summary/config"
	"github.com/tidepool-org/yearly-summary/errors"
	"github.com/tidepool-org/yearly-summary/store"
)

func NewRepository(cfg *config.Config, db *mongo.Database, logger *zap.SugaredLogger, lifecycle fx.Lifecycle) (Repository, error) {
	repo := &repository{
		collection: db.Collection(cfg.SummariesCollection),
		policy:     cfg.DuplicatePolicy,
		unique:     cfg.DuplicatePolicy == config.DuplicatePolicyUpsert,
		logger:     logger,
	}

	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return repo.Initialize(ctx)
		},
	})

	return repo, nil
}

type repository struct {
	collection *mongo.Collection
	policy     config.DuplicatePolicy
	unique     bool
	logger     *zap.SugaredLogger
}

var indexKeys = bson.D{
	{Key: "patientId", Value: 1},
	{Key: "year", Value: 1},
	{Key: "type", Value: 1},
}

// Initialize makes sure an index on (patientId, year, type) exists. Re-runs
// with the append policy are allowed to create duplicates, so the index can
// only be unique when summaries are upserted. An index left behind by a run
// with another policy is replaced when it doesn't fit the current one.
func (r *repository) Initialize(ctx context.Context) error {
	specs, err := r.collection.Indexes().ListSpecifications(ctx)
	if err != nil {
		return store.ReadError(err, "unable to list summary indexes")
	}

	var replaced *mongo.IndexSpecification
	for i, spec := range specs {
		if !sameKeys(spec.KeysDocument, indexKeys) {
			continue
		}

		unique := spec.Unique != nil && *spec.Unique
		if unique == r.unique || (unique && r.policy == config.DuplicatePolicySkip) {
			return nil
		}

		r.logger.Infow("replacing summary index", "index", spec.Name, "unique", unique, "policy", r.policy)
		if _, err := r.collection.Indexes().DropOne(ctx, spec.Name); err != nil {
			return store.WriteError(err, "unable to drop summary index %s", spec.Name)
		}
		replaced = specs[i]
		break
	}

	if _, err := r.collection.Indexes().CreateOne(ctx, summaryIndex(r.unique)); err != nil {
		if !mongo.IsDuplicateKeyError(err) {
			return store.WriteError(err, "unable to create summary index")
		}
		if replaced != nil {
			if _, restoreErr := r.collection.Indexes().CreateOne(ctx, summaryIndex(false)); restoreErr != nil {
				r.logger.Errorw("unable to restore summary index", "index", replaced.Name, "error", restoreErr)
			}
		}
		return fmt.Errorf("%w: duplicate summaries exist, the %s policy requires unique summaries: %w", errors.InvalidConfig, r.policy, err)
	}
	return nil
}

func summaryIndex(unique bool) mongo.IndexModel {
	index := mongo.IndexModel{
		Keys:    indexKeys,
		Options: options.Index().SetName("PatientYearType"),
	}
	if unique {
		index.Options.SetUnique(true).SetName("UniquePatientYearType")
	}
	return index
}

func sameKeys(document bson.Raw, keys bson.D) bool {
	elements, err := document.Elements()
	if err != nil || len(elements) != len(keys) {
		return false
	}
	for i, element := range elements {
		if element.Key() != keys[i].Key {
			return false
		}
	}
	return true
}

func (r *repository) Insert(ctx context.Context, summary *Summary) error {
	id := primitive.NewObjectID()

	// An upsert on a fresh id is an insert that lets the server set generatedAt
	selector := bson.M{"_id": id}
	update := bson.M{
		"$setOnInsert": bson.M{
			"patientId": summary.PatientId,
			"year":      summary.Year,
			"type":      summary.Type,
			"text":      summary.Text,
		},
		"$currentDate": bson.M{
			"generatedAt": true,
		},
	}

	if _, err := r.collection.UpdateOne(ctx, selector, update, options.Update().SetUpsert(true)); err != nil {
		return store.WriteError(err, "unable to insert summary for patient %s", summary.PatientId)
	}

	summary.Id = &id
	return nil
}

func (r *repository) Upsert(ctx context.Context, summary *Summary) (bool, error) {
	id := primitive.NewObjectID()

	selector := bson.M{
		"patientId": summary.PatientId,
		"year":      summary.Year,
		"type":      summary.Type,
	}
	update := bson.M{
		"$set": bson.M{
			"text": summary.Text,
		},
		"$setOnInsert": bson.M{
			"_id": id,
		},
		"$currentDate": bson.M{
			"generatedAt": true,
		},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After).
		SetProjection(bson.M{"_id": 1, "generatedAt": 1})

	var result Summary
	if err := r.collection.FindOneAndUpdate(ctx, selector, update, opts).Decode(&result); err != nil {
		return false, store.WriteError(err, "unable to upsert summary for patient %s", summary.PatientId)
	}

	summary.Id = result.Id
	summary.GeneratedAt = result.GeneratedAt
	return result.Id != nil && *result.Id == id, nil
}

func (r *repository) Exists(ctx context.Context, patientId string, year int, summaryType string) (bool, error) {
	selector := bson.M{
		"patientId": patientId,
		"year":      year,
		"type":      summaryType,
	}

	count, err := r.collection.CountDocuments(ctx, selector, options.Count().SetLimit(1))
	if err != nil {
		return false, store.ReadError(err, "unable to check summary of patient %s", patientId)
	}

	return count > 0, nil
}
