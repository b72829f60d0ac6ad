package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/stockyard/stockd"
)

const eventChannel = "stockd:events"

// SignalService fans allocation events out through redis pubsub.
type SignalService struct {
	rdb *redis.Client
}

func NewSignalService(redisClient *redis.Client) *SignalService {
	return &SignalService{
		rdb: redisClient,
	}
}

func (s *SignalService) Publish(ctx context.Context, event stockd.Event) error {
	jsonstr, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return s.rdb.Publish(ctx, eventChannel, jsonstr).Err()
}

// Realtime subscribes to the event channel and forwards events whose SKU
// matches one of the prefixes most recently received on input. It returns
// when ctx is cancelled or input closes.
func (s *SignalService) Realtime(ctx context.Context, input chan []string, output chan stockd.Event) {
	sub := s.rdb.Subscribe(ctx, eventChannel)
	defer sub.Close()

	events := sub.Channel()
	var prefixes []string

	for {
		select {
		case <-ctx.Done():
			return
		case next, ok := <-input:
			if !ok {
				return
			}
			prefixes = next
		case msg, ok := <-events:
			if !ok {
				return
			}

			var event stockd.Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				slog.ErrorContext(ctx, "failed to decode event",
					slog.String("error", err.Error()),
					slog.String("module", "signal"),
				)
				continue
			}

			if !matchesAny(event.SKU, prefixes) {
				continue
			}

			select {
			case output <- event:
			case <-ctx.Done():
				return
			}
		}
	}
}

func matchesAny(sku string, prefixes []string) bool {
	for _, prefix := range prefixes {
		if prefix == "*" || strings.HasPrefix(sku, prefix) {
			return true
		}
	}
	return false
}
