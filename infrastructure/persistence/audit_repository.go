package persistence

import (
	"context"
	"time"

	"creator-hub/domain/model"
	"creator-hub/infrastructure/logger"

	"go.mongodb.org/mongo-driver/v2/mongo"
)

// PublishAuditRepository appends publish lifecycle entries to MongoDB.
// A nil client turns every write into a logged no-op; publishing never
// fails because the audit sink is down.
type PublishAuditRepository struct {
	mongoDb *mongo.Client
}

func NewPublishAuditRepository(mongoDb *mongo.Client) *PublishAuditRepository {
	return &PublishAuditRepository{mongoDb: mongoDb}
}

func (r *PublishAuditRepository) Append(ctx context.Context, entries []*model.PublishAudit) error {
	if len(entries) == 0 {
		return nil
	}
	if r.mongoDb == nil {
		logger.GetLogger().Debug("MongoDB client is nil - skipping publish audit write")
		return nil
	}
	now := time.Now().UTC()
	docs := make([]interface{}, 0, len(entries))
	for _, e := range entries {
		if e.CreatedAt.IsZero() {
			e.CreatedAt = now
		}
		docs = append(docs, e)
	}
	collection := r.mongoDb.Database("creator_hub").Collection("publish_audit")
	if _, err := collection.InsertMany(ctx, docs); err != nil {
		return &model.StoreError{Op: "append_audit", Err: err}
	}
	return nil
}
