// Package stream bridges live match events to external consumers. A
// bridge is just another hub observer with its own bounded buffer and
// failure domain; a broken broker never slows a match down.
package stream

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"github.com/swex-camp2024-copilot/spellcaster-arena/internal/arena"
)

// KafkaBridge forwards every event of every match to a Kafka topic,
// keyed by match ID so one match's events stay on one partition.
type KafkaBridge struct {
	producer *kafka.Writer
}

func NewKafkaBridge(producer *kafka.Writer) *KafkaBridge {
	return &KafkaBridge{producer: producer}
}

// Tap is registered with the match manager; it attaches to each new
// match's hub and pumps its stream until the match ends.
func (b *KafkaBridge) Tap(matchID string, hub *arena.Hub) {
	sub, err := hub.Attach()
	if err != nil {
		slog.Error("kafka bridge failed to attach", "matchID", matchID, "error", err)
		return
	}
	go b.pump(matchID, sub)
}

func (b *KafkaBridge) pump(matchID string, sub *arena.Subscription) {
	for ev := range sub.Events() {
		if ev.Type == arena.EventHeartbeat {
			continue
		}
		payload, err := json.Marshal(ev)
		if err != nil {
			slog.Error("failed to marshal match event", "matchID", matchID, "error", err)
			continue
		}
		err = b.producer.WriteMessages(context.Background(), kafka.Message{
			Key:   []byte(matchID),
			Value: payload,
		})
		if err != nil {
			slog.Error("failed to publish match event", "matchID", matchID, "error", err)
		}
	}
}

// Close flushes and closes the underlying producer.
func (b *KafkaBridge) Close() error {
	return b.producer.Close()
}
