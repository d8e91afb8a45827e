package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"infinite-pages/internal/interfaces"
	"infinite-pages/internal/models"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	publishTimeout  = 10 * time.Second
	publishAttempts = 3
	appID           = "infinite-pages"
)

// Compile-time check to ensure rabbitMQProgressPublisher implements ProgressPublisher
var _ interfaces.ProgressPublisher = (*rabbitMQProgressPublisher)(nil)

// rabbitMQProgressPublisher emits generation progress events to the durable
// progress queue on the default exchange.
type rabbitMQProgressPublisher struct {
	channel   *amqp.Channel
	queueName string
	logger    *zap.Logger
}

// NewProgressPublisher opens a channel and declares the progress queue. The
// declaration parameters must match the consumer's.
func NewProgressPublisher(conn *amqp.Connection, queueName string, logger *zap.Logger) (interfaces.ProgressPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("progress publisher: failed to open channel: %w", err)
	}
	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		ch.Close()
		return nil, fmt.Errorf("progress publisher: failed to declare queue %q: %w", queueName, err)
	}
	logger.Info("Progress publisher ready", zap.String("queue", queueName))
	return &rabbitMQProgressPublisher{
		channel:   ch,
		queueName: queueName,
		logger:    logger.Named("ProgressPublisher"),
	}, nil
}

// Publish sends one progress event. Transient broker errors are retried with
// a small backoff before giving up.
func (p *rabbitMQProgressPublisher) Publish(ctx context.Context, event models.ProgressEvent) error {
	if p.channel == nil {
		return errors.New("progress publisher: channel is not initialized")
	}
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("progress publisher: failed to encode event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	for attempt := 1; attempt <= publishAttempts; attempt++ {
		err = p.channel.PublishWithContext(ctx,
			"",          // default exchange
			p.queueName, // routing key
			false,       // mandatory
			false,       // immediate
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent,
				Body:         body,
				Timestamp:    time.Now(),
				AppId:        appID,
			},
		)
		if err == nil {
			return nil
		}
		p.logger.Warn("Progress publish failed",
			zap.Error(err),
			zap.Int("attempt", attempt),
			zap.String("storyID", event.StoryID.String()),
		)
		time.Sleep(time.Duration(attempt) * 100 * time.Millisecond)
	}
	return fmt.Errorf("progress publisher: publish to %q failed after retries: %w", p.queueName, err)
}
