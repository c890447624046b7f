//go:build integration

package testutils

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/require"
)

const defaultTimeout = 15 * time.Second

// MessageCapture records every message received on a set of topics.
type MessageCapture struct {
	mu   sync.Mutex
	msgs map[string][]*message.Message
}

// CaptureTopics subscribes to topics until ctx is done.
func CaptureTopics(ctx context.Context, t *testing.T, sub message.Subscriber, topics ...string) *MessageCapture {
	t.Helper()
	c := &MessageCapture{msgs: make(map[string][]*message.Message)}
	for _, topic := range topics {
		ch, err := sub.Subscribe(ctx, topic)
		require.NoError(t, err, "subscribe %s", topic)
		go func() {
			for msg := range ch {
				c.mu.Lock()
				c.msgs[topic] = append(c.msgs[topic], msg)
				c.mu.Unlock()
				msg.Ack()
			}
		}()
	}
	return c
}

func (c *MessageCapture) snapshot(topic string) []*message.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*message.Message(nil), c.msgs[topic]...)
}

// WaitFor blocks until n payloads on topic satisfy match and returns them.
// Messages from earlier tests that share the stream are skipped by match.
func WaitFor[T any](t *testing.T, c *MessageCapture, topic string, n int, match func(T) bool) []T {
	t.Helper()

	var found []T
	require.Eventually(t, func() bool {
		var hits []T
		for _, msg := range c.snapshot(topic) {
			var payload T
			if err := json.Unmarshal(msg.Payload, &payload); err != nil {
				continue
			}
			if match(payload) {
				hits = append(hits, payload)
			}
		}
		found = hits
		return len(hits) >= n
	}, defaultTimeout, 50*time.Millisecond, "waiting for %d messages on %s", n, topic)
	return found
}
