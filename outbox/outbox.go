package outbox

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type EventType string

const (
	EventTypeYearlySummaryGenerated EventType = "yearlySummaryGenerated"
)

// Event is a notification for downstream consumers, written next to the
// summary it describes. RunId and PatientId are kept on the envelope so
// consumers can select the events of a run without decoding payloads.
type Event struct {
	Id          *primitive.ObjectID `bson:"_id,omitempty"`
	EventType   EventType           `bson:"eventType"`
	RunId       string              `bson:"runId"`
	PatientId   string              `bson:"patientId"`
	CreatedTime time.Time           `bson:"createdTime"`
	Payload     bson.Raw            `bson:"payload"`
}

// YearlySummaryGeneratedPayload tells a downstream summarizer which summary
// can be enriched
type YearlySummaryGeneratedPayload struct {
	SummaryId   string `bson:"summaryId,omitempty"`
	Year        int    `bson:"year"`
	Type        string `bson:"type"`
	RecordCount int    `bson:"recordCount"`
}

//go:generate go tool mockgen -source=./outbox.go -destination=./test/mock_outbox.go -package test

type Repository interface {
	Create(ctx context.Context, event Event) error
	Initialize(ctx context.Context) error
}

func NewYearlySummaryGeneratedEvent(runId string, patientId string, payload YearlySummaryGeneratedPayload) (Event, error) {
	raw, err := bson.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("unable to marshal %s payload: %w", EventTypeYearlySummaryGenerated, err)
	}

	return Event{
		EventType:   EventTypeYearlySummaryGenerated,
		RunId:       runId,
		PatientId:   patientId,
		CreatedTime: time.Now().UTC(),
		Payload:     raw,
	}, nil
}
