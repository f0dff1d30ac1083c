package store

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

type Transaction = func(sessCtx mongo.SessionContext) (interface{}, error)

func WithTransaction(ctx context.Context, dbClient *mongo.Client, txn Transaction) (interface{}, error) {
	session, err := dbClient.StartSession()
	if err != nil {
		return nil, fmt.Errorf("unable to start sessions %w", err)
	}
	defer session.EndSession(ctx)

	wc := writeconcern.Majority()
	rc := readconcern.Snapshot()
	txnOpts := options.Transaction().SetWriteConcern(wc).SetReadConcern(rc)
	return session.WithTransaction(ctx, txn, txnOpts)
}

// Transactor runs a unit of work. Repositories called with the context passed
// to fn take part in the transaction when there is one.
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// NewTransactor returns a transactor backed by mongo sessions when enabled.
// Transactions require a replica set, standalone deployments should keep it disabled.
func NewTransactor(client *mongo.Client, enabled bool) Transactor {
	if !enabled {
		return passthrough{}
	}
	return &sessionTransactor{client: client}
}

type sessionTransactor struct {
	client *mongo.Client
}

func (s *sessionTransactor) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	_, err := WithTransaction(ctx, s.client, func(sessCtx mongo.SessionContext) (interface{}, error) {
		return nil, fn(sessCtx)
	})
	return err
}

type passthrough struct{}

func (passthrough) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
