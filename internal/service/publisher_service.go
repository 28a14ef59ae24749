package service

import (
	"context"
	"encoding/json"

	"emergence-monitor-be/internal/constant"
	"emergence-monitor-be/pkg/graph"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// IPublisherService puts dashboard-bound events on the internal bus. The
// consumer side fans them out to websocket clients, so producers never touch
// the hub directly.
type IPublisherService interface {
	Publish(ctx context.Context, kind string, payload interface{}) error
	PublishFrame(frame *graph.Frame)
}

type publisherService struct {
	topicName string
	pubSub    *gochannel.GoChannel
}

func NewPublisherService(topicName string, pubSub *gochannel.GoChannel) IPublisherService {
	return &publisherService{
		topicName: topicName,
		pubSub:    pubSub,
	}
}

func (p *publisherService) Publish(ctx context.Context, kind string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	msg := message.NewMessage(watermill.NewUUID(), data)
	msg.Metadata.Set(constant.MetadataKindKey, kind)
	msg.SetContext(ctx)

	return p.pubSub.Publish(p.topicName, msg)
}

// PublishFrame satisfies the renderer's publisher contract. Frames are
// best-effort: a failed publish drops the frame and the next tick replaces it.
func (p *publisherService) PublishFrame(frame *graph.Frame) {
	_ = p.Publish(context.Background(), constant.KindFrame, frame)
}
