package events

import (
	"context"
	"encoding/json"
	"errors"
	"io"

	"github.com/globalled/sst/internal/sst/models"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Acknowledger is invoked for every submission acknowledgement.
type Acknowledger interface {
	AcknowledgeSubmission(ctx context.Context, kind models.RecordKind, id uint) error
}

type KafkaReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Consumer struct {
	reader  KafkaReader
	logger  *zap.Logger
	handler Acknowledger
	done    chan struct{}
}

// NewConsumer consumes submission acknowledgements from topic.
func NewConsumer(brokers []string, groupID, topic string, handler Acknowledger, logger *zap.Logger) *Consumer {
	return newConsumer(kafka.NewReader(kafka.ReaderConfig{
		Brokers: brokers,
		GroupID: groupID,
		Topic:   topic,
		Dialer:  kafka.DefaultDialer,
	}), handler, logger)
}

func newConsumer(reader KafkaReader, handler Acknowledger, logger *zap.Logger) *Consumer {
	return &Consumer{
		reader:  reader,
		logger:  logger.Named("kafka_consumer"),
		handler: handler,
		done:    make(chan struct{}),
	}
}

// Start reads messages in a goroutine until ctx is cancelled.
func (c *Consumer) Start(ctx context.Context) {
	go func() {
		defer close(c.done)
		for {
			msg, err := c.reader.FetchMessage(ctx)
			if err != nil {
				if ctx.Err() != nil || errors.Is(err, io.EOF) {
					return
				}
				c.logger.Error("Failed to fetch message", zap.Error(err))
				continue
			}
			c.handle(ctx, msg)
		}
	}()
}

// handle processes one message and commits it. Failures are logged, not retried.
func (c *Consumer) handle(ctx context.Context, msg kafka.Message) {
	var event Event
	if err := json.Unmarshal(msg.Value, &event); err != nil || event.Type != SubmissionAcknowledged {
		c.logger.Error("Failed to parse event",
			zap.Error(err),
			zap.ByteString("value", msg.Value),
		)
		c.commit(ctx, msg, event)
		return
	}

	if err := c.handler.AcknowledgeSubmission(ctx, event.Kind, event.ID); err != nil {
		c.logger.Error("Failed to handle event",
			zap.Error(err),
			zap.String("event_type", string(event.Type)),
			zap.String("kind", string(event.Kind)),
			zap.Uint("id", event.ID),
		)
	}
	c.commit(ctx, msg, event)
}

func (c *Consumer) commit(ctx context.Context, msg kafka.Message, event Event) {
	if err := c.reader.CommitMessages(ctx, msg); err != nil {
		c.logger.Error("Failed to commit message",
			zap.Error(err),
			zap.String("event_type", string(event.Type)),
		)
	}
}

// Close closes the reader. Cancel the Start context first.
func (c *Consumer) Close() {
	if err := c.reader.Close(); err != nil {
		c.logger.Error("Failed to close Kafka reader", zap.Error(err))
	}
}

// Done is closed when the consuming goroutine exits.
func (c *Consumer) Done() <-chan struct{} {
	return c.done
}
