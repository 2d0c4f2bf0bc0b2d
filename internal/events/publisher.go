package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// EventType identifies the lifecycle event kind.
type EventType string

const (
	// EventTypePageScraped is published after a page completes extraction.
	EventTypePageScraped EventType = "PAGE_SCRAPED"
)

// PageScrapedPayload is the event body for a completed page.
type PageScrapedPayload struct {
	EventID      string    `json:"event_id"`
	EventType    string    `json:"event_type"`
	Timestamp    time.Time `json:"timestamp"`
	URL          string    `json:"url"`
	RowCount     int       `json:"row_count"`
	FitmentFound bool      `json:"fitment_found"`
	Source       string    `json:"source"`
}

// RedisClient is the slice of go-redis the publisher needs (for testing).
type RedisClient interface {
	XAdd(ctx context.Context, args *redis.XAddArgs) *redis.StringCmd
	Close() error
}

// Publisher emits lifecycle events onto a Redis stream. Fire-and-forget: a
// failed publish costs observability, never batch progress.
type Publisher struct {
	client RedisClient
	stream string
	logger *slog.Logger
}

func NewPublisher(client RedisClient, stream string, logger *slog.Logger) *Publisher {
	return &Publisher{
		client: client,
		stream: stream,
		logger: logger.With("component", "event_publisher"),
	}
}

func (p *Publisher) PublishPageScraped(ctx context.Context, url string, rowCount int, fitmentFound bool) error {
	payload := PageScrapedPayload{
		EventID:      uuid.New().String(),
		EventType:    string(EventTypePageScraped),
		Timestamp:    time.Now(),
		URL:          url,
		RowCount:     rowCount,
		FitmentFound: fitmentFound,
		Source:       "fitment-scraper",
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]interface{}{
			"data":       string(data),
			"type":       payload.EventType,
			"timestamp":  fmt.Sprintf("%d", payload.Timestamp.UnixNano()),
			"event_id":   payload.EventID,
			"event_type": payload.EventType,
		},
	}

	if _, err := p.client.XAdd(ctx, args).Result(); err != nil {
		return fmt.Errorf("failed to publish to redis: %w", err)
	}

	p.logger.Info("event published",
		"type", payload.EventType,
		"event_id", payload.EventID,
		"url", url,
		"rows", rowCount,
	)

	return nil
}
