// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"

	"github.com/dalemusser/crewhub/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// ConnectDB establishes the MongoDB connection used by the whole app.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	opts := options.Client().
		ApplyURI(appCfg.MongoURI).
		SetMaxPoolSize(appCfg.MongoMaxPoolSize).
		SetMinPoolSize(appCfg.MongoMinPoolSize)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return DBDeps{}, fmt.Errorf("mongo connect: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return DBDeps{}, fmt.Errorf("mongo ping: %w", err)
	}

	logger.Info("connected to MongoDB", zap.String("database", appCfg.MongoDatabase))

	return DBDeps{
		CrewHubMongoClient:   client,
		CrewHubMongoDatabase: client.Database(appCfg.MongoDatabase),
	}, nil
}

// EnsureSchema creates the indexes the stores rely on. Index creation
// is idempotent, so this runs on every startup.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	db := deps.CrewHubMongoDatabase

	type collIndexes struct {
		coll    string
		indexes []mongo.IndexModel
	}

	unique := options.Index().SetUnique(true)

	all := []collIndexes{
		{
			coll: "users",
			indexes: []mongo.IndexModel{
				{Keys: bson.D{{Key: "email_ci", Value: 1}}, Options: unique},
			},
		},
		{
			coll: "projects",
			indexes: []mongo.IndexModel{
				{Keys: bson.D{{Key: "owner_id", Value: 1}}},
			},
		},
		{
			// The unique pair backs both membership idempotency and the
			// accept path's duplicate guard.
			coll: "team_memberships",
			indexes: []mongo.IndexModel{
				{Keys: bson.D{{Key: "project_id", Value: 1}, {Key: "user_id", Value: 1}}, Options: unique},
				{Keys: bson.D{{Key: "user_id", Value: 1}}},
			},
		},
		{
			// The pending-only partial index blocks duplicate open
			// applications while still letting a rejected applicant
			// apply again.
			coll: "applications",
			indexes: []mongo.IndexModel{
				{
					Keys: bson.D{{Key: "project_id", Value: 1}, {Key: "applicant_id", Value: 1}},
					Options: options.Index().SetUnique(true).
						SetPartialFilterExpression(bson.M{"status": models.ApplicationPending}),
				},
				{Keys: bson.D{{Key: "project_id", Value: 1}, {Key: "status", Value: 1}}},
				{Keys: bson.D{{Key: "applicant_id", Value: 1}}},
			},
		},
		{
			coll: "messages",
			indexes: []mongo.IndexModel{
				{Keys: bson.D{{Key: "project_id", Value: 1}, {Key: "created_at", Value: 1}}},
			},
		},
		{
			coll: "notifications",
			indexes: []mongo.IndexModel{
				{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "is_read", Value: 1}}},
				{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
			},
		},
		{
			coll: "tasks",
			indexes: []mongo.IndexModel{
				{Keys: bson.D{{Key: "project_id", Value: 1}}},
			},
		},
		{
			coll: "calendar_events",
			indexes: []mongo.IndexModel{
				{Keys: bson.D{{Key: "project_id", Value: 1}, {Key: "starts_at", Value: 1}}},
			},
		},
	}

	for _, ci := range all {
		if _, err := db.Collection(ci.coll).Indexes().CreateMany(ctx, ci.indexes); err != nil {
			return fmt.Errorf("create indexes for %s: %w", ci.coll, err)
		}
		logger.Debug("ensured indexes", zap.String("collection", ci.coll))
	}

	return nil
}
