package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	platformredis "beredskap/internal/platform/redis"
	id "beredskap/pkg/domain"
	"beredskap/pkg/requestcontext"
)

const channelPrefix = "notify:household:"

// RedisPublisher publishes notifications to a per-household pub/sub
// channel; delivery-side consumers (websocket gateway, mailer) subscribe
// elsewhere.
type RedisPublisher struct {
	client *platformredis.Client
}

func NewRedisPublisher(client *platformredis.Client) *RedisPublisher {
	return &RedisPublisher{client: client}
}

type message struct {
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
	RequestID string `json:"request_id,omitempty"`
}

func (p *RedisPublisher) Notify(ctx context.Context, householdID id.HouseholdID, text string) error {
	payload, err := json.Marshal(message{
		Message:   text,
		Timestamp: requestcontext.Now(ctx).Format(time.RFC3339),
		RequestID: requestcontext.RequestID(ctx),
	})
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	channel := channelPrefix + householdID.String()
	if err := p.client.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	return nil
}
