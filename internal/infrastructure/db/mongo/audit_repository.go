package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/taskboard/tasktracker/internal/core/domain"
)

const taskEventsCollection = "task_events"

// AuditRepository implements ports.AuditRepository using MongoDB.
type AuditRepository struct {
	coll *mongo.Collection
}

// NewAuditRepository creates a new AuditRepository.
func NewAuditRepository(db *mongo.Database) *AuditRepository {
	return &AuditRepository{coll: db.Collection(taskEventsCollection)}
}

// EnsureIndexes creates the lookup index used to read a task's history.
func (r *AuditRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "task_id", Value: 1}, {Key: "occurred_at", Value: 1}},
		Options: options.Index().SetName("task_id_occurred_at"),
	})
	if err != nil {
		return fmt.Errorf("mongo ensure indexes: %w", err)
	}
	return nil
}

// InsertTaskEvent persists a task event to the task_events collection.
func (r *AuditRepository) InsertTaskEvent(ctx context.Context, event *domain.TaskEvent) error {
	doc := bson.M{
		"task_id":     event.TaskID,
		"type":        string(event.Type),
		"actor_id":    event.ActorID,
		"actor_role":  string(event.ActorRole),
		"occurred_at": event.OccurredAt.UTC(),
	}
	if event.Status != "" {
		doc["status"] = string(event.Status)
	}

	_, err := r.coll.InsertOne(ctx, doc)
	return err
}
