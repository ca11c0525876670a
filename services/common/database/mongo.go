package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// ConnectMongo dials uri, pings it and returns the named database.
func ConnectMongo(ctx context.Context, uri, dbName string) (*mongo.Database, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(timeoutCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo: connect: %w", err)
	}
	if err := client.Ping(timeoutCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo: ping: %w", err)
	}

	zap.L().Info("connected to mongo", zap.String("database", dbName))
	return client.Database(dbName), nil
}

// DisconnectMongo closes the client behind db.
func DisconnectMongo(db *mongo.Database) {
	if db == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.Client().Disconnect(ctx); err != nil {
		zap.L().Warn("mongo disconnect failed", zap.Error(err))
	}
}
