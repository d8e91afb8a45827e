package messaging

import (
	"encoding/json"
	"fmt"

	"infinite-pages/internal/models"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// UpdateSink delivers a raw progress payload to an online user. Returns
// false when the user has no active connection.
type UpdateSink interface {
	SendToUser(userID string, message []byte) bool
}

// ProgressConsumer reads progress events from the queue and forwards each to
// the owning user's live connection.
type ProgressConsumer struct {
	conn      *amqp.Connection
	sink      UpdateSink
	queueName string
	stop      chan struct{}
	logger    *zap.Logger
}

// NewProgressConsumer creates a ProgressConsumer.
func NewProgressConsumer(conn *amqp.Connection, sink UpdateSink, queueName string, logger *zap.Logger) *ProgressConsumer {
	return &ProgressConsumer{
		conn:      conn,
		sink:      sink,
		queueName: queueName,
		stop:      make(chan struct{}),
		logger:    logger.Named("ProgressConsumer"),
	}
}

// StartConsuming blocks reading the progress queue; run it in a goroutine.
// Events for offline users are acked and dropped: progress is a live UI aid,
// not a durable inbox.
func (c *ProgressConsumer) StartConsuming() error {
	ch, err := c.conn.Channel()
	if err != nil {
		return fmt.Errorf("progress consumer: failed to open channel: %w", err)
	}
	defer ch.Close()

	q, err := ch.QueueDeclare(c.queueName, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("progress consumer: failed to declare queue %q: %w", c.queueName, err)
	}
	if err := ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("progress consumer: failed to set QoS: %w", err)
	}

	msgs, err := ch.Consume(
		q.Name,
		"infinite-pages-progress-consumer",
		false, // manual ack
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("progress consumer: failed to register consumer: %w", err)
	}
	c.logger.Info("Progress consumer started", zap.String("queue", q.Name))

	for {
		select {
		case d, ok := <-msgs:
			if !ok {
				c.logger.Info("Progress delivery channel closed")
				return nil
			}

			var event models.ProgressEvent
			if err := json.Unmarshal(d.Body, &event); err != nil {
				c.logger.Warn("Failed to decode progress event, dropping", zap.Error(err))
				_ = d.Nack(false, false)
				continue
			}

			if c.sink.SendToUser(event.UserID.String(), d.Body) {
				c.logger.Debug("Progress event delivered",
					zap.String("userID", event.UserID.String()),
					zap.String("state", event.State),
				)
			}
			_ = d.Ack(false)

		case <-c.stop:
			c.logger.Info("Progress consumer stopping")
			return nil
		}
	}
}

// Stop signals the consuming loop to exit.
func (c *ProgressConsumer) Stop() {
	close(c.stop)
}
