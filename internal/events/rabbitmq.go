package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"memory-test-service/internal/logger"

	amqp "github.com/rabbitmq/amqp091-go"
)

type RabbitMQClient struct {
	mu            sync.RWMutex
	conn          *amqp.Connection
	channel       *amqp.Channel
	connectionURI string
	isConnected   bool
	closed        bool
	log           *logger.Logger
}

func NewRabbitMQClient(connectionURI string, log *logger.Logger) (*RabbitMQClient, error) {
	client := &RabbitMQClient{
		connectionURI: connectionURI,
		log:           log,
	}

	if err := client.connect(); err != nil {
		return nil, err
	}

	return client, nil
}

func (c *RabbitMQClient) connect() error {
	conn, err := amqp.Dial(c.connectionURI)
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to open a channel: %w", err)
	}

	if err := declareExchange(channel); err != nil {
		channel.Close()
		conn.Close()
		return err
	}

	c.mu.Lock()
	c.conn = conn
	c.channel = channel
	c.isConnected = true
	c.mu.Unlock()

	go c.monitorConnection(conn)

	return nil
}

func declareExchange(channel *amqp.Channel) error {
	err := channel.ExchangeDeclare(
		ExchangeName, // name
		"topic",      // type
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}
	return nil
}

func (c *RabbitMQClient) monitorConnection(conn *amqp.Connection) {
	connCloseChan := conn.NotifyClose(make(chan *amqp.Error, 1))

	err, ok := <-connCloseChan
	c.mu.Lock()
	c.isConnected = false
	closed := c.closed
	c.mu.Unlock()

	if closed || !ok {
		return
	}
	c.log.Warn("RabbitMQ connection closed, attempting to reconnect", "error", err)
	c.reconnect()
}

func (c *RabbitMQClient) reconnect() {
	backoff := 1 * time.Second
	maxBackoff := 30 * time.Second

	for {
		time.Sleep(backoff)

		c.mu.RLock()
		closed := c.closed
		c.mu.RUnlock()
		if closed {
			return
		}

		err := c.connect()
		if err == nil {
			c.log.Info("Reconnected to RabbitMQ")
			return
		}

		c.log.Warn("Failed to reconnect to RabbitMQ", "error", err, "retry_in", backoff)

		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

func (c *RabbitMQClient) PublishEvent(ctx context.Context, exchange, routingKey string, body []byte) error {
	c.mu.RLock()
	channel, connected := c.channel, c.isConnected
	c.mu.RUnlock()

	if !connected {
		return fmt.Errorf("cannot publish: not connected to RabbitMQ")
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := channel.PublishWithContext(
		ctx,
		exchange,   // exchange
		routingKey, // routing key
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}

	return nil
}

// Close closes the connection and channel
func (c *RabbitMQClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closed = true
	c.isConnected = false

	var err error
	if c.channel != nil {
		err = c.channel.Close()
	}
	if c.conn != nil {
		err = c.conn.Close()
	}
	return err
}
