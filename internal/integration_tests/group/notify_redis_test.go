//go:build integration

package group

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"beredskap/internal/notify"
	platformredis "beredskap/internal/platform/redis"
	id "beredskap/pkg/domain"
	"beredskap/pkg/requestcontext"
	"beredskap/pkg/testutil/containers"
)

func TestRedisNotifier_PublishesToHouseholdChannel(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	ctx := context.Background()

	householdID := id.HouseholdID(uuid.New())
	sub := rc.Client.Subscribe(ctx, "notify:household:"+householdID.String())
	t.Cleanup(func() { _ = sub.Close() })

	// Wait for the subscription before publishing.
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	publishCtx := requestcontext.WithRequestID(requestcontext.WithTime(ctx, now), "req-123")

	publisher := notify.NewRedisPublisher(&platformredis.Client{Client: rc.Client})
	require.NoError(t, publisher.Notify(publishCtx, householdID, "You have been invited to join Nabolaget"))

	select {
	case msg := <-sub.Channel():
		var payload struct {
			Message   string `json:"message"`
			Timestamp string `json:"timestamp"`
			RequestID string `json:"request_id"`
		}
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &payload))
		assert.Equal(t, "You have been invited to join Nabolaget", payload.Message)
		assert.Equal(t, now.Format(time.RFC3339), payload.Timestamp)
		assert.Equal(t, "req-123", payload.RequestID)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for notification")
	}
}
