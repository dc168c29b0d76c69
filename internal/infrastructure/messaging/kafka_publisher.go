package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/IBM/sarama"

	"github.com/irwan019/GrkApp/internal/domain/entities"
	"github.com/irwan019/GrkApp/internal/logger"
)

const healthCheckTopic = "__healthcheck"

type KafkaOptions struct {
	Brokers      []string
	Topic        string
	RequiredAcks int16
	MaxRetries   int
	Timeout      time.Duration
}

// SnapshotEvent is the message published for every accepted render.
type SnapshotEvent struct {
	ID          string            `json:"id"`
	View        entities.View     `json:"view"`
	Location    string            `json:"location"`
	PeriodStart string            `json:"period_start,omitempty"`
	PeriodEnd   string            `json:"period_end,omitempty"`
	RenderedAt  time.Time         `json:"rendered_at"`
	Rows        int               `json:"rows"`
	Empty       bool              `json:"empty"`
	Summary     *entities.Summary `json:"summary,omitempty"`
}

func NewSnapshotEvent(s *entities.Snapshot) SnapshotEvent {
	e := SnapshotEvent{
		ID:         s.ID,
		View:       s.State.View,
		Location:   s.State.Location,
		RenderedAt: s.RenderedAt,
		Rows:       len(s.Rows),
		Empty:      s.Empty,
		Summary:    s.Summary,
	}
	if s.State.View == entities.ViewPeriod {
		e.PeriodStart = s.State.Start.Format(entities.DateLayout)
		e.PeriodEnd = s.State.End.Format(entities.DateLayout)
	}
	return e
}

type KafkaPublisher struct {
	producer sarama.SyncProducer
	topic    string
	logger   logger.Logger
}

func NewKafkaPublisher(opts KafkaOptions, log logger.Logger) (*KafkaPublisher, error) {
	if len(opts.Brokers) == 0 {
		return nil, errors.New("kafka publisher needs at least one broker")
	}

	config := sarama.NewConfig()
	config.ClientID = "grkapp"
	config.Producer.RequiredAcks = sarama.RequiredAcks(opts.RequiredAcks)
	config.Producer.Retry.Max = opts.MaxRetries
	config.Producer.Return.Successes = true
	config.Producer.Timeout = opts.Timeout
	if config.Producer.Timeout <= 0 {
		config.Producer.Timeout = 5 * time.Second
	}

	producer, err := sarama.NewSyncProducer(opts.Brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	return newKafkaPublisher(producer, opts.Topic, log), nil
}

func newKafkaPublisher(producer sarama.SyncProducer, topic string, log logger.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		producer: producer,
		topic:    topic,
		logger:   logger.Component(log, "kafka_publisher"),
	}
}

// Publish keys the message by location so one location's snapshots stay ordered.
func (k *KafkaPublisher) Publish(ctx context.Context, snapshot *entities.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(NewSnapshotEvent(snapshot))
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic:     k.topic,
		Key:       sarama.StringEncoder(snapshot.State.Location),
		Value:     sarama.ByteEncoder(data),
		Timestamp: snapshot.RenderedAt,
		Headers: []sarama.RecordHeader{
			{Key: []byte("view"), Value: []byte(snapshot.State.View)},
		},
	}

	partition, offset, err := k.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to publish snapshot %s: %w", snapshot.ID, err)
	}

	k.logger.Debugf("Published snapshot %s to %s [%d] at offset %d", snapshot.ID, k.topic, partition, offset)
	return nil
}

func (k *KafkaPublisher) HealthCheck(ctx context.Context) error {
	if k.producer == nil {
		return errors.New("kafka producer is nil")
	}

	msg := &sarama.ProducerMessage{
		Topic: healthCheckTopic,
		Value: sarama.ByteEncoder([]byte("ping")),
	}

	_, _, err := k.producer.SendMessage(msg)
	return err
}

func (k *KafkaPublisher) Close() error {
	if k.producer == nil {
		return nil
	}
	return k.producer.Close()
}

// NopPublisher is used when publishing is disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, *entities.Snapshot) error { return nil }
func (NopPublisher) HealthCheck(context.Context) error                 { return nil }
func (NopPublisher) Close() error                                      { return nil }
