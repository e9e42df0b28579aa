package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Handler processes one decoded trip event.
type Handler func(ctx context.Context, ev TripEvent) error

type messageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer reads the trip event topic as part of a consumer group.
type Consumer struct {
	reader messageReader
	logger *zap.Logger
}

func NewKafkaConsumer(brokers []string, topic, group string, logger *zap.Logger) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  group,
		MinBytes: 1,
		MaxBytes: 10e6,
	})
	return &Consumer{reader: r, logger: logger}
}

// Decode parses one message value.
func Decode(value []byte) (TripEvent, error) {
	var ev TripEvent
	if err := json.Unmarshal(value, &ev); err != nil {
		return TripEvent{}, fmt.Errorf("decode trip event: %w", err)
	}
	if ev.Type == "" || ev.CarpoolID == "" {
		return TripEvent{}, fmt.Errorf("decode trip event: missing type or carpoolId")
	}
	return ev, nil
}

// Run feeds events to handle until ctx ends. Malformed messages and handler
// failures are logged and committed so one bad record cannot wedge the group.
func (c *Consumer) Run(ctx context.Context, handle Handler) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("fetch trip event: %w", err)
		}

		ev, err := Decode(msg.Value)
		if err != nil {
			c.logger.Warn("skipping malformed trip event", zap.Int64("offset", msg.Offset), zap.Error(err))
		} else if err := handle(ctx, ev); err != nil {
			c.logger.Error("trip event handler failed",
				zap.String("type", ev.Type),
				zap.String("carpool_id", ev.CarpoolID),
				zap.Error(err),
			)
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
			c.logger.Warn("commit trip event", zap.Error(err))
		}
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
