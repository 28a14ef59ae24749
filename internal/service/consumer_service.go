// FILE: internal/service/consumer_service.go
package service

import (
	"context"
	"encoding/json"
	"log"

	"emergence-monitor-be/internal/constant"
	"emergence-monitor-be/internal/websocket"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	pubSub    *gochannel.GoChannel
	topicName string
	hub       *websocket.Hub
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	topicName string,
	hub *websocket.Hub,
) IConsumerService {
	return &consumerService{
		pubSub:    pubSub,
		topicName: topicName,
		hub:       hub,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(msg *message.Message) {
	kind := msg.Metadata.Get(constant.MetadataKindKey)
	if kind == "" {
		log.Printf("[ERROR] Dashboard event without kind metadata, dropping")
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	if !json.Valid(msg.Payload) {
		log.Printf("[ERROR] Dashboard event %s carries invalid JSON, dropping", kind)
		msg.Ack()
		return
	}

	// The payload was serialized by the publisher; hand it to the hub as raw
	// JSON so it lands inside the envelope without a second encode pass.
	cs.hub.BroadcastEnvelope(kind, json.RawMessage(msg.Payload))
	msg.Ack()
}
