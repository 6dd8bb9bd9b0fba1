package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

// Transactor runs a unit of work. Atomic reports whether the work is rolled
// back by the database on failure; when false, callers must compensate.
type Transactor interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
	Atomic() bool
}

// NewTransactor returns a session-backed Transactor when enabled is true
// (replica set or sharded cluster), otherwise a pass-through one.
func NewTransactor(client *mongo.Client, enabled bool) Transactor {
	if enabled && client != nil {
		return &sessionTx{client: client}
	}
	return Direct{}
}

type sessionTx struct {
	client *mongo.Client
}

func (t *sessionTx) Atomic() bool { return true }

// WithTransaction starts a session and runs fn inside a majority-committed
// transaction. The ctx handed to fn is a mongo.SessionContext; repositories
// pass it through unchanged so every write joins the transaction. The driver
// retries fn on TransientTransactionError, so fn must not have effects
// outside the database.
func (t *sessionTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	sess, err := t.client.StartSession()
	if err != nil {
		return err
	}
	defer sess.EndSession(context.Background())

	opts := options.Transaction().
		SetWriteConcern(writeconcern.Majority()).
		SetReadConcern(readconcern.Snapshot())

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	}, opts)
	return err
}

// Direct runs fn with no transaction. Used for standalone servers and tests.
type Direct struct{}

func (Direct) Atomic() bool { return false }

func (Direct) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
