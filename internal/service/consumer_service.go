package service

import (
	"context"
	"encoding/json"
	"time"

	"finance-qa-be/internal/pkg/logger"
	"finance-qa-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// EventDelivery pushes events to live clients. Implemented by the websocket hub.
type EventDelivery interface {
	Send(ctx context.Context, event events.Event) error
}

// EventArchive keeps a durable copy of events. Implemented by the NATS publisher.
type EventArchive interface {
	Publish(ctx context.Context, event events.Event) error
}

const (
	archiveQueueSize = 256
	archiveTimeout   = 5 * time.Second
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	pubSub    *gochannel.GoChannel
	topicName string
	delivery  EventDelivery
	archive   EventArchive
	logger    logger.ILogger

	archiveQueue chan events.BaseEvent
}

// NewConsumerService forwards bus events to delivery and, when non-nil, archive.
func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	delivery EventDelivery,
	archive EventArchive,
	log logger.ILogger,
) IConsumerService {
	cs := &consumerService{
		pubSub:    pubSub,
		topicName: topicName,
		delivery:  delivery,
		archive:   archive,
		logger:    log,
	}
	if archive != nil {
		cs.archiveQueue = make(chan events.BaseEvent, archiveQueueSize)
	}
	return cs
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	if cs.archiveQueue != nil {
		go cs.runArchive(ctx)
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

// runArchive drains the archive queue in order. Publishers on the bus never
// wait for it.
func (cs *consumerService) runArchive(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event := <-cs.archiveQueue:
			archiveCtx, cancel := context.WithTimeout(ctx, archiveTimeout)
			err := cs.archive.Publish(archiveCtx, event)
			cancel()
			if err != nil {
				cs.logger.Warn("ConsumerService", "Archive publish failed", withError(map[string]interface{}{
					"type":       event.Type,
					"session_id": event.Session,
				}, err))
			}
		}
	}
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var event events.BaseEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		cs.logger.Error("ConsumerService", "Failed to unmarshal event", map[string]interface{}{"error": err})
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	details := map[string]interface{}{"type": event.Type, "session_id": event.Session}

	if cs.delivery != nil {
		if err := cs.delivery.Send(ctx, event); err != nil {
			cs.logger.Warn("ConsumerService", "Live delivery failed", withError(details, err))
		}
	}

	if cs.archiveQueue != nil {
		select {
		case cs.archiveQueue <- event:
		default:
			cs.logger.Warn("ConsumerService", "Archive queue full, dropping event", details)
		}
	}

	cs.logger.Debug("ConsumerService", "Event forwarded", details)
	msg.Ack()
}

func withError(details map[string]interface{}, err error) map[string]interface{} {
	out := make(map[string]interface{}, len(details)+1)
	for k, v := range details {
		out[k] = v
	}
	out["error"] = err.Error()
	return out
}
