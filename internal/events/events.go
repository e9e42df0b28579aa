// Package events emits trip lifecycle records for downstream consumers.
// Emission is best effort and never fails the operation that produced it.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// TripEvent is one fired notification or position report.
type TripEvent struct {
	Type       string    `json:"type"`
	CarpoolID  string    `json:"carpoolId"`
	DriverID   string    `json:"driverId"`
	Lat        float64   `json:"lat"`
	Lon        float64   `json:"lon"`
	Recipients []string  `json:"recipients,omitempty"`
	RequestID  string    `json:"requestId,omitempty"`
	At         time.Time `json:"at"`
}

type Emitter interface {
	Emit(ctx context.Context, ev TripEvent)
	Close() error
}

// KafkaEmitter writes events keyed by carpool id so one trip stays ordered
// within a partition.
type KafkaEmitter struct {
	writer *kafka.Writer
	logger *zap.Logger
}

func NewKafkaEmitter(brokers []string, topic string, logger *zap.Logger) *KafkaEmitter {
	w := kafka.NewWriter(kafka.WriterConfig{Brokers: brokers, Topic: topic, Balancer: &kafka.Hash{}})
	return &KafkaEmitter{writer: w, logger: logger}
}

func (k *KafkaEmitter) Emit(ctx context.Context, ev TripEvent) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()

	b, err := json.Marshal(ev)
	if err != nil {
		k.logger.Error("encode trip event", zap.Error(err))
		return
	}
	if err := k.writer.WriteMessages(ctx, kafka.Message{Key: []byte(ev.CarpoolID), Value: b}); err != nil {
		k.logger.Warn("emit trip event",
			zap.String("type", ev.Type),
			zap.String("carpool_id", ev.CarpoolID),
			zap.Error(err),
		)
	}
}

func (k *KafkaEmitter) Close() error {
	if k.writer == nil {
		return nil
	}
	return k.writer.Close()
}

// LogEmitter is used when no brokers are configured.
type LogEmitter struct {
	logger *zap.Logger
}

func NewLogEmitter(logger *zap.Logger) *LogEmitter {
	return &LogEmitter{logger: logger}
}

func (l *LogEmitter) Emit(_ context.Context, ev TripEvent) {
	l.logger.Debug("trip event",
		zap.String("type", ev.Type),
		zap.String("carpool_id", ev.CarpoolID),
		zap.Strings("recipients", ev.Recipients),
	)
}

func (l *LogEmitter) Close() error { return nil }
