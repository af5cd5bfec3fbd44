// Package pubsub sends domain events to a Google Cloud Pub/Sub topic.
package pubsub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"distribution/internal/core/ports"

	gpubsub "cloud.google.com/go/pubsub"
	"google.golang.org/api/option"
)

// Sink publishes each event as one JSON message. The event type and aggregate
// id are copied into message attributes so subscriptions can filter on them.
type Sink struct {
	client *gpubsub.Client
	topic  *gpubsub.Topic
}

// NewSink connects to projectID. Credentials come from opts or from
// Application Default Credentials.
func NewSink(ctx context.Context, projectID, topicID string, opts ...option.ClientOption) (*Sink, error) {
	if projectID == "" {
		return nil, errors.New("pubsub project id is required")
	}
	if topicID == "" {
		return nil, errors.New("pubsub topic is required")
	}

	client, err := gpubsub.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("create pubsub client: %w", err)
	}

	return &Sink{client: client, topic: client.Topic(topicID)}, nil
}

// EnsureTopic creates the topic when it does not exist yet.
func (s *Sink) EnsureTopic(ctx context.Context) error {
	ok, err := s.topic.Exists(ctx)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	if _, err = s.client.CreateTopic(ctx, s.topic.ID()); err != nil {
		return fmt.Errorf("create topic %q: %w", s.topic.ID(), err)
	}
	return nil
}

// Send blocks until the server acknowledges the message.
func (s *Sink) Send(ctx context.Context, event ports.DomainEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	result := s.topic.Publish(ctx, &gpubsub.Message{
		Data: data,
		Attributes: map[string]string{
			"type":        event.Type,
			"aggregateId": event.AggregateID,
		},
	})
	_, err = result.Get(ctx)
	return err
}

// Close flushes pending messages and releases the client.
func (s *Sink) Close() error {
	s.topic.Stop()
	return s.client.Close()
}
