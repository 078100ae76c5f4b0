// internal/app/system/txn/txn.go

// Package txn runs multi-document MongoDB work inside a transaction
// when the deployment supports one (replica set / mongos), and falls
// back to plain sequential execution on standalone servers where
// transactions are unavailable.
package txn

import (
	"context"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// notSupportedCodes are server error codes returned when transactions
// are attempted against a deployment that cannot run them.
var notSupportedCodes = map[int32]bool{
	20:  true, // IllegalOperation
	51:  true, // no such command / txn number
	263: true, // OperationNotSupportedInTransaction
}

// IsNotSupported reports whether the error indicates the server cannot
// run multi-document transactions (e.g. a standalone mongod).
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}
	if cmdErr, ok := err.(mongo.CommandError); ok {
		if notSupportedCodes[cmdErr.Code] {
			return true
		}
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "illegal operation") {
		return true
	}
	if strings.Contains(msg, "transaction") &&
		(strings.Contains(msg, "replica set") || strings.Contains(msg, "session")) {
		return true
	}
	if strings.Contains(msg, "session") && strings.Contains(msg, "not supported") {
		return true
	}
	return false
}

// WithTransaction runs fn inside a MongoDB transaction. When client is
// nil (unit tests over fakes) or the deployment does not support
// transactions, fn runs directly against the plain context; callers
// must therefore keep fn's step order safe to run non-atomically.
func WithTransaction(ctx context.Context, client *mongo.Client, log *zap.Logger, fn func(ctx context.Context) error) error {
	if client == nil {
		return fn(ctx)
	}

	sess, err := client.StartSession()
	if err != nil {
		if IsNotSupported(err) {
			log.Warn("transactions unavailable, running without one", zap.Error(err))
			return fn(ctx)
		}
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	if err != nil && IsNotSupported(err) {
		log.Warn("transactions unavailable, running without one", zap.Error(err))
		return fn(ctx)
	}
	return err
}
