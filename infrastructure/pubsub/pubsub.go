package pubsub

import (
	"context"

	"cloud.google.com/go/pubsub"

	"creator-hub/infrastructure/logger"
)

// NewPubSub creates a Pub/Sub client for the configured project. Credentials
// come from the ambient GOOGLE_APPLICATION_CREDENTIALS environment.
func NewPubSub(ctx context.Context, projectID string) (*pubsub.Client, error) {
	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Error while instantiate PubSub client")
		return nil, err
	}
	return client, nil
}
