package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"restaurant-pos/internal/logger"
)

// MessageHandler processes one queued print job body.
type MessageHandler func(ctx context.Context, body []byte) error

// Consumer drains one print queue with manual acks. A job is acked only
// after its ticket was handled; a failed job is requeued so no ticket is
// lost to a transient printer error.
type Consumer struct {
	conn        *Connection
	logger      *logger.Logger
	queueName   string
	consumerTag string
	prefetch    int
}

// NewConsumer creates a consumer for one print queue. prefetch bounds how
// many unacked jobs the worker holds at once.
func NewConsumer(conn *Connection, log *logger.Logger, queueName, consumerTag string, prefetch int) *Consumer {
	return &Consumer{
		conn:        conn,
		logger:      log,
		queueName:   queueName,
		consumerTag: consumerTag,
		prefetch:    prefetch,
	}
}

// StartConsuming blocks handling jobs until the context is cancelled.
func (c *Consumer) StartConsuming(ctx context.Context, handler MessageHandler) error {
	if c.conn.IsClosed() {
		if err := c.conn.Reconnect(); err != nil {
			return fmt.Errorf("failed to reconnect: %w", err)
		}
	}

	err := c.conn.Channel().Qos(
		c.prefetch, // prefetch count
		0,          // prefetch size
		false,      // global
	)
	if err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	deliveries, err := c.conn.Channel().Consume(
		c.queueName,   // queue
		c.consumerTag, // consumer
		false,         // auto-ack (acked after the ticket is handled)
		false,         // exclusive
		false,         // no-local
		false,         // no-wait
		nil,           // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	c.logger.Info("print_consumer_started",
		fmt.Sprintf("Consuming print jobs from %s", c.queueName),
		"", map[string]interface{}{
			"queue":    c.queueName,
			"consumer": c.consumerTag,
			"prefetch": c.prefetch,
		})

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("print_consumer_stopped", "Print consumer stopped by context", "", nil)
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				c.logger.Error("print_consumer_channel_closed", "Job channel closed, attempting to reconnect", "", nil, nil)
				if err := c.conn.Reconnect(); err != nil {
					return fmt.Errorf("failed to reconnect after channel closed: %w", err)
				}
				return c.StartConsuming(ctx, handler)
			}

			c.handleDelivery(ctx, d, handler)
		}
	}
}

// handleDelivery runs one job through the handler and acks or requeues it.
func (c *Consumer) handleDelivery(ctx context.Context, delivery amqp091.Delivery, handler MessageHandler) {
	startTime := time.Now()

	jobCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	err := handler(jobCtx, delivery.Body)

	fields := map[string]interface{}{
		"queue":        c.queueName,
		"print_job":    delivery.RoutingKey,
		"duration_ms":  time.Since(startTime).Milliseconds(),
		"delivery_tag": delivery.DeliveryTag,
	}

	if err != nil {
		c.logger.Error("print_job_failed", "Print job failed, requeueing", "", err, fields)
		if nackErr := delivery.Nack(false, true); nackErr != nil {
			c.logger.Error("print_job_nack_failed", "Failed to requeue print job", "", nackErr, nil)
		}
		return
	}

	c.logger.Debug("print_job_handled", "Print job handled", "", fields)
	if ackErr := delivery.Ack(false); ackErr != nil {
		c.logger.Error("print_job_ack_failed", "Failed to ack print job", "", ackErr, nil)
	}
}

// ParseMessage parses a JSON job body into the provided struct.
func ParseMessage(body []byte, v interface{}) error {
	return json.Unmarshal(body, v)
}

// Close cancels the consumer and closes the connection.
func (c *Consumer) Close() error {
	if c.conn != nil && !c.conn.IsClosed() {
		err := c.conn.Channel().Cancel(c.consumerTag, false)
		if err != nil {
			c.logger.Error("print_consumer_cancel_failed", "Failed to cancel consumer", "", err, nil)
		}
		return c.conn.Close()
	}
	return nil
}
