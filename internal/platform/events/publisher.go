package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/pubsub"

	"github.com/jwebchajari/Savia/internal/domain"
)

// CatalogChangedEvent is the Pub/Sub event type for product upserts and deletions.
const CatalogChangedEvent = "catalog.product.changed"

// PubSubPublisher publishes catalog change notifications to a Pub/Sub topic.
type PubSubPublisher struct {
	topic   *pubsub.Topic
	marshal func(any) ([]byte, error)
}

// NewPubSubPublisher constructs a Pub/Sub backed catalog change publisher.
func NewPubSubPublisher(topic *pubsub.Topic) (*PubSubPublisher, error) {
	if topic == nil {
		return nil, errors.New("events: topic is required")
	}
	return &PubSubPublisher{topic: topic, marshal: json.Marshal}, nil
}

// PublishCatalogChange sends the change and waits for the server-assigned message id.
// Messages for the same product share an ordering key.
func (p *PubSubPublisher) PublishCatalogChange(ctx context.Context, change domain.CatalogChange) (string, error) {
	if p == nil || p.topic == nil {
		return "", errors.New("events: publisher not initialised")
	}

	data, err := p.marshal(change)
	if err != nil {
		return "", fmt.Errorf("events: marshal catalog change: %w", err)
	}

	attrs := map[string]string{"eventType": CatalogChangedEvent}
	setAttr(attrs, "productId", change.ProductID)
	setAttr(attrs, "action", change.Action)
	setAttr(attrs, "actorId", change.ActorID)

	msg := &pubsub.Message{Data: data, Attributes: attrs}
	if p.topic.EnableMessageOrdering {
		msg.OrderingKey = strings.TrimSpace(change.ProductID)
	}

	id, err := p.topic.Publish(ctx, msg).Get(ctx)
	if err != nil {
		if msg.OrderingKey != "" {
			p.topic.ResumePublish(msg.OrderingKey)
		}
		return "", fmt.Errorf("events: publish catalog change: %w", err)
	}
	return id, nil
}

// Stop flushes pending messages and stops the topic's background goroutines.
func (p *PubSubPublisher) Stop() {
	if p != nil && p.topic != nil {
		p.topic.Stop()
	}
}

func setAttr(attrs map[string]string, key, value string) {
	if v := strings.TrimSpace(value); v != "" {
		attrs[key] = v
	}
}
