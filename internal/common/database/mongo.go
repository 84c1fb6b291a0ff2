// internal/common/database/mongo.go
package database

import (
	"context"
	"fmt"

	"clinic-notify-workers/internal/common/config"
	"clinic-notify-workers/internal/common/errors"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoClient wraps the MongoDB client and the configured database.
type MongoClient struct {
	Client *mongo.Client
	DB     *mongo.Database
}

// NewMongo connects to MongoDB and selects cfg.Database.
func NewMongo(ctx context.Context, cfg config.MongoConfig) (*MongoClient, error) {
	ctx, cancel := context.WithTimeout(ctx, config.GetDuration(cfg.ConnectTimeout))
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, errors.NewDatabaseConnectionFailedError(fmt.Errorf("connect mongo: %w", err))
	}

	return &MongoClient{Client: client, DB: client.Database(cfg.Database)}, nil
}

// Ping tests the MongoDB connection against the primary.
func (c *MongoClient) Ping(ctx context.Context) error {
	if err := c.Client.Ping(ctx, readpref.Primary()); err != nil {
		return errors.NewDatabaseConnectionFailedError(fmt.Errorf("ping mongo: %w", err))
	}
	return nil
}

// Close disconnects the client.
func (c *MongoClient) Close(ctx context.Context) error {
	if c.Client != nil {
		return c.Client.Disconnect(ctx)
	}
	return nil
}
