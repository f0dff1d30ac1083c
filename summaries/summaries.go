package summaries

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	TypeYearly = "yearly"
)

// Summary is a derived aggregate of the metrics of a patient. GeneratedAt is
// assigned by the database when the summary is written.
type Summary struct {
	Id          *primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	PatientId   string              `json:"patientId" bson:"patientId"`
	Year        int                 `json:"year" bson:"year"`
	Type        string              `json:"type" bson:"type"`
	Text        string              `json:"text" bson:"text"`
	GeneratedAt time.Time           `json:"generatedAt" bson:"generatedAt"`
}

//go:generate go tool mockgen -source=./summaries.go -destination=./test/mock_repository.go -package test

type Repository interface {
	// Insert always adds a new summary document
	Insert(ctx context.Context, summary *Summary) error
	// Upsert creates or replaces the summary with the same patient, year and type.
	// It returns true when a new document was created.
	Upsert(ctx context.Context, summary *Summary) (bool, error)
	// Exists checks whether a summary for the patient, year and type was already written
	Exists(ctx context.Context, patientId string, year int, summaryType string) (bool, error)
}
