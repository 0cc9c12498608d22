package rabbitmq

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Config selects the broker and the exchange ledger events are published to.
type Config struct {
	URL        string
	Exchange   string
	MaxRetries int
}

const defaultMaxRetries = 5

// Connection holds the AMQP connection and a publishing channel with the
// ledger exchange declared.
type Connection struct {
	Conn     *amqp.Connection
	Channel  *amqp.Channel
	Exchange string
}

// dial is swapped in tests.
var dial = amqp.Dial

// Connect dials the broker with exponential backoff and declares a durable
// topic exchange. Returns nil if no URL is configured (RabbitMQ disabled).
func Connect(cfg Config, logger *slog.Logger) (*Connection, error) {
	if cfg.URL == "" {
		return nil, nil
	}
	if cfg.Exchange == "" {
		return nil, errors.New("rabbitmq exchange is required")
	}
	retries := cfg.MaxRetries
	if retries <= 0 {
		retries = defaultMaxRetries
	}

	var (
		conn *amqp.Connection
		err  error
	)
	wait := time.Second
	for attempt := 1; attempt <= retries; attempt++ {
		conn, err = dial(cfg.URL)
		if err == nil {
			break
		}
		if attempt == retries {
			return nil, fmt.Errorf("connect to rabbitmq: %w", err)
		}
		if logger != nil {
			logger.Warn("rabbitmq connection attempt failed",
				"attempt", attempt,
				"error", err,
				"retry_in", wait,
			)
		}
		time.Sleep(wait)
		wait *= 2
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open rabbitmq channel: %w", err)
	}
	if err := ch.ExchangeDeclare(cfg.Exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", cfg.Exchange, err)
	}
	return &Connection{Conn: conn, Channel: ch, Exchange: cfg.Exchange}, nil
}

// Health reports whether the connection is still open.
func (c *Connection) Health() error {
	if c.Conn.IsClosed() {
		return amqp.ErrClosed
	}
	return nil
}

func (c *Connection) Close() error {
	if c.Channel != nil {
		_ = c.Channel.Close()
	}
	return c.Conn.Close()
}
