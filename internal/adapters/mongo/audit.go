package mongo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"eventbooking/internal/observability"
)

// AuditLogger keeps an out-of-band trail of reservation lifecycle events.
// The notifier feeds it from the broker; nothing in the booking path blocks
// on it.
type AuditLogger struct {
	coll   *mongo.Collection
	logger observability.Logger
}

func NewAuditLogger(db *mongo.Database, logger observability.Logger) *AuditLogger {
	return &AuditLogger{
		coll:   db.Collection("audit_logs"),
		logger: logger,
	}
}

type AuditLog struct {
	ID        uuid.UUID `bson:"_id"`
	Action    string    `bson:"action"`
	Timestamp time.Time `bson:"timestamp"`
	Data      bson.M    `bson:"data"`
}

func (a *AuditLogger) Record(ctx context.Context, action string, data map[string]interface{}) error {
	log := AuditLog{
		ID:        uuid.New(),
		Action:    action,
		Timestamp: time.Now().UTC(),
		Data:      bson.M(data),
	}
	_, err := a.coll.InsertOne(ctx, log)
	if err != nil {
		a.logger.Error("failed to insert audit log", err)
		return err
	}
	return nil
}
