// Package events publishes admission lifecycle notifications for downstream
// consumers such as billing and the dashboards.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

// Event types.
const (
	AdmissionAdmitted   = "admission.admitted"
	AdmissionDischarged = "admission.discharged"
)

// Event is one lifecycle notification.
type Event struct {
	Type       string
	OccurredAt time.Time
	Data       interface{}
}

// Publisher delivers events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, evt Event) (string, error)
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) (string, error) { return "", nil }

// RedisStreamPublisher appends events to a Redis stream with XADD. Each entry
// carries the event type, the JSON-encoded payload and a unix timestamp.
type RedisStreamPublisher struct {
	client *redis.Client
	stream string
	maxLen int64
}

// NewRedisStreamPublisher creates a publisher writing to stream. maxLen > 0
// caps the stream length approximately.
func NewRedisStreamPublisher(client *redis.Client, stream string, maxLen int64) *RedisStreamPublisher {
	return &RedisStreamPublisher{client: client, stream: stream, maxLen: maxLen}
}

func (p *RedisStreamPublisher) Publish(ctx context.Context, evt Event) (string, error) {
	data, err := json.Marshal(evt.Data)
	if err != nil {
		return "", fmt.Errorf("encode %s event: %w", evt.Type, err)
	}
	at := evt.OccurredAt
	if at.IsZero() {
		at = time.Now()
	}

	args := &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]interface{}{
			"type":      evt.Type,
			"data":      string(data),
			"timestamp": strconv.FormatInt(at.Unix(), 10),
		},
	}
	if p.maxLen > 0 {
		args.MaxLen = p.maxLen
		args.Approx = true
	}

	id, err := p.client.XAdd(ctx, args).Result()
	if err != nil {
		return "", fmt.Errorf("xadd %s: %w", p.stream, err)
	}
	return id, nil
}
