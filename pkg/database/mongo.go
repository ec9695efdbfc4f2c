package database

import (
	"context"
	"fmt"

	"github.com/Payphone-Digital/locatory/config"
	"github.com/Payphone-Digital/locatory/internal/constants"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

// NewMongoClient connects to the document store. Untyped documents decode
// as bson.M so list results serialize as plain JSON objects.
func NewMongoClient(ctx context.Context, cfg *config.Config) (*mongo.Client, error) {
	opts := options.Client().
		ApplyURI(cfg.Mongo.URI).
		SetAppName(cfg.App.Name).
		SetConnectTimeout(cfg.Mongo.ConnectTimeout).
		SetMaxPoolSize(cfg.Mongo.MaxPoolSize).
		SetBSONOptions(&options.BSONOptions{DefaultDocumentM: true})

	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.Mongo.ConnectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}
	return client, nil
}

// MongoIndexes lists the indexes every collection needs: the 2dsphere
// index backing radius queries, and one reaction per user and review.
func MongoIndexes() map[string][]mongo.IndexModel {
	reactionIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "review", Value: 1}, {Key: "user", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("review_user_unique"),
		},
		{Keys: bson.D{{Key: "user", Value: 1}}},
	}

	return map[string][]mongo.IndexModel{
		constants.CollectionPlaces: {
			{Keys: bson.D{{Key: "location", Value: "2dsphere"}}, Options: options.Index().SetName("location_2dsphere")},
			{Keys: bson.D{{Key: "user", Value: 1}}},
			{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		},
		constants.CollectionReviews: {
			{Keys: bson.D{{Key: "place", Value: 1}, {Key: "createdAt", Value: -1}}},
			{Keys: bson.D{{Key: "user", Value: 1}}},
		},
		constants.CollectionLikes:    reactionIndexes,
		constants.CollectionDislikes: reactionIndexes,
	}
}

// EnsureMongoIndexes creates missing indexes; existing ones are left alone.
func EnsureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	for collection, models := range MongoIndexes() {
		if _, err := db.Collection(collection).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", collection, err)
		}
	}
	return nil
}

// PingMongo is used by the health endpoint.
func PingMongo(ctx context.Context, client *mongo.Client) error {
	return client.Ping(ctx, readpref.Primary())
}
