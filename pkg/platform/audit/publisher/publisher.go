// Package publisher provides the Kafka-backed audit sink. Events are
// produced synchronously to a single topic keyed by group id so that one
// group's history stays ordered within a partition.
package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"beredskap/pkg/platform/audit"
)

const defaultTopic = "beredskap.audit.v1"

// Kafka publishes audit events through a franz-go client.
type Kafka struct {
	client *kgo.Client
	topic  string
}

// Option configures the Kafka publisher.
type Option func(*Kafka)

// WithTopic overrides the default audit topic.
func WithTopic(topic string) Option {
	return func(p *Kafka) {
		if topic != "" {
			p.topic = topic
		}
	}
}

// NewKafka builds a publisher over the given seed brokers.
func NewKafka(brokers []string, opts ...Option) (*Kafka, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	p := &Kafka{client: client, topic: defaultTopic}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// payload is the JSON wire form of an audit event.
type payload struct {
	Action      string `json:"action"`
	Timestamp   string `json:"timestamp"`
	GroupID     string `json:"group_id,omitempty"`
	HouseholdID string `json:"household_id,omitempty"`
	ActorEmail  string `json:"actor_email,omitempty"`
	RequestID   string `json:"request_id,omitempty"`
	Detail      string `json:"detail,omitempty"`
}

// Publish produces one event and waits for broker acknowledgement.
func (p *Kafka) Publish(ctx context.Context, event audit.Event) error {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	body := payload{
		Action:     string(event.Action),
		Timestamp:  event.Timestamp.Format(time.RFC3339Nano),
		ActorEmail: event.ActorEmail,
		RequestID:  event.RequestID,
		Detail:     event.Detail,
	}
	if !event.GroupID.IsNil() {
		body.GroupID = event.GroupID.String()
	}
	if !event.HouseholdID.IsNil() {
		body.HouseholdID = event.HouseholdID.String()
	}

	value, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}

	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(body.GroupID),
		Value: value,
	}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce audit event: %w", err)
	}
	return nil
}

// Close flushes buffered records and releases the client.
func (p *Kafka) Close() {
	p.client.Close()
}
