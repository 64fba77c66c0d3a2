package pubsub

import (
	"context"
	"log"

	"cloud.google.com/go/pubsub"

	"creator-hub/infrastructure/logger"
)

type ISyncPubSub interface {
	Publish(ctx context.Context, topic string, payload []byte) (string, error)
}

// SyncPubSub publishes insight-sync completion events so downstream reporting
// jobs can pick up fresh snapshots without polling the database.
type SyncPubSub struct {
	PubSubClient *pubsub.Client
}

func NewSyncPubSub(pubSubClient *pubsub.Client) ISyncPubSub {
	return &SyncPubSub{
		PubSubClient: pubSubClient,
	}
}

func (syncPubSub *SyncPubSub) Publish(
	ctx context.Context,
	topicName string,
	payload []byte,
) (string, error) {
	msg := &pubsub.Message{
		Data: payload,
	}

	topic := syncPubSub.PubSubClient.Topic(topicName)

	// Create the topic if it doesn't exist.
	exists, err := topic.Exists(ctx)
	if err != nil {
		return "", err
	}
	if !exists {
		log.Printf("Topic %v doesn't exist - creating it", topicName)
		_, err = syncPubSub.PubSubClient.CreateTopic(ctx, topicName)
		if err != nil {
			return "", err
		}
	}

	serverId, err := topic.Publish(ctx, msg).Get(ctx)
	if err != nil {
		return "", err
	}

	logger.GetLogger().WithField("server ID", serverId).Info("Sync event published")
	return serverId, nil
}
