package messaging

import (
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const (
	connectAttempts = 5
	connectBackoff  = 2 * time.Second
)

// ConnectRabbitMQ dials the broker with retries. Brokers routinely come up
// after the service inside a compose stack.
func ConnectRabbitMQ(url string, logger *zap.Logger) (*amqp.Connection, error) {
	var conn *amqp.Connection
	var err error
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		conn, err = amqp.Dial(url)
		if err == nil {
			logger.Info("Connected to RabbitMQ", zap.Int("attempt", attempt))
			return conn, nil
		}
		logger.Warn("RabbitMQ connection failed, retrying",
			zap.Error(err),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", time.Duration(attempt)*connectBackoff),
		)
		time.Sleep(time.Duration(attempt) * connectBackoff)
	}
	return nil, fmt.Errorf("failed to connect to RabbitMQ after %d attempts: %w", connectAttempts, err)
}
