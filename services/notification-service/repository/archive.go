package repository

import (
	"context"

	"github.com/yashrajoria/storefront-backend/services/notification-service/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const archiveCollection = "notification_logs"

// Archive keeps a second copy of every delivery attempt.
type Archive interface {
	Store(ctx context.Context, log *models.NotificationLog) error
}

type MongoArchive struct {
	collection *mongo.Collection
}

func NewMongoArchive(db *mongo.Database) *MongoArchive {
	return &MongoArchive{collection: db.Collection(archiveCollection)}
}

func (a *MongoArchive) Store(ctx context.Context, log *models.NotificationLog) error {
	_, err := a.collection.InsertOne(ctx, bson.M{
		"_id":        log.ID.String(),
		"event_id":   log.EventID,
		"user_id":    log.UserID.String(),
		"recipient":  log.Recipient,
		"event_type": log.EventType,
		"channel":    log.Channel,
		"subject":    log.Subject,
		"status":     log.Status,
		"attempt":    log.Attempt,
		"message_id": log.MessageID,
		"error":      log.Error,
		"created_at": log.CreatedAt,
	})
	return err
}
