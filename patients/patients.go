package patients

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/tidepool-org/yearly-summary/store"
)

// PatientRecord is a top level patient document. The job only needs the id,
// every other attribute is owned by the application that writes the record.
// Ids must be strings, List fails on a record with an ObjectID or numeric _id.
type PatientRecord struct {
	Id string `json:"id" bson:"_id"`
}

// MetricEntry is a timestamped measurement belonging to a patient record
type MetricEntry struct {
	Id        *primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	PatientId string              `json:"patientId" bson:"patientId"`
	Timestamp time.Time           `json:"timestamp" bson:"timestamp"`
	Payload   bson.M              `json:"payload,omitempty" bson:",inline"`
}

//go:generate go tool mockgen -source=./patients.go -destination=./test/mock_repository.go -package test

type Repository interface {
	// List returns a page of patient records in ascending id order
	List(ctx context.Context, page store.Page) ([]PatientRecord, error)
}

type MetricsRepository interface {
	// CountInRange counts the metric entries of a patient with from <= timestamp < to
	CountInRange(ctx context.Context, patientId string, from, to time.Time) (int, error)
}
