package rabbitmq

import (
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

const (
	dialAttempts = 10
	dialBackoff  = 2 * time.Second
)

// Connection wraps an AMQP connection.
type Connection struct {
	conn *amqp.Connection
}

// Connect establishes a connection to RabbitMQ, retrying with a fixed
// backoff so the service tolerates a broker that is still starting.
func Connect(url string, log zerolog.Logger) (*Connection, error) {
	var conn *amqp.Connection
	var err error

	for i := 0; i < dialAttempts; i++ {
		conn, err = amqp.Dial(url)
		if err == nil {
			log.Info().Msg("connected to RabbitMQ")
			return &Connection{conn: conn}, nil
		}
		log.Warn().Err(err).Int("attempt", i+1).Msg("RabbitMQ dial failed, retrying")
		time.Sleep(dialBackoff)
	}

	return nil, fmt.Errorf("rabbitmq connect after %d attempts: %w", dialAttempts, err)
}

// Channel opens a new AMQP channel.
func (c *Connection) Channel() (*amqp.Channel, error) {
	return c.conn.Channel()
}

// IsClosed reports whether the underlying connection has been closed.
func (c *Connection) IsClosed() bool {
	return c.conn == nil || c.conn.IsClosed()
}

// Close closes the connection.
func (c *Connection) Close() error {
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
