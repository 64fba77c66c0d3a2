package servicebus

import (
	"context"

	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"

	"creator-hub/infrastructure/logger"
)

type IPublishServiceBus interface {
	SendMessage(message []byte) error
}

// PublishServiceBus forwards publish lifecycle events (submitted, published,
// failed) to an Azure Service Bus queue for external consumers.
type PublishServiceBus struct {
	AzservicebusClient *azservicebus.Client
	Queue              string
}

func NewPublishServiceBus(azServiceBusClient *azservicebus.Client, queue string) IPublishServiceBus {
	return &PublishServiceBus{AzservicebusClient: azServiceBusClient, Queue: queue}
}

func (publishServiceBus *PublishServiceBus) SendMessage(message []byte) error {
	sender, err := publishServiceBus.AzservicebusClient.NewSender(publishServiceBus.Queue, nil)
	if err != nil {
		logger.GetLogger().
			WithField("error", err).
			Error("Error while making new sender service bus.")
		return err
	}
	defer func(sender *azservicebus.Sender, ctx context.Context) {
		err := sender.Close(ctx)
		if err != nil {
			logger.GetLogger().
				WithField("error", err).
				Error("Error while closing sender.")
		}
	}(sender, context.Background())

	sbMessage := &azservicebus.Message{
		Body: message,
	}
	err = sender.SendMessage(context.Background(), sbMessage, nil)
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Error while sending message.")
		return err
	}

	return nil
}
