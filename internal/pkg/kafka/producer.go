package kafka

import (
	"log/slog"

	"github.com/segmentio/kafka-go"
)

// NewProducer initializes the Kafka writer used by the match event
// bridge. Writes are asynchronous so a slow broker cannot stall the
// bridge's pump.
func NewProducer(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne, // Acknowledge after leader has written.
		Async:        true,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				slog.Error("Kafka async write failed", "error", err)
			}
		},
	}
}
