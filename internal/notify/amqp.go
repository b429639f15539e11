// README: RabbitMQ notifier publishing driver offers to a topic exchange.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"zonetaxi/internal/logger"
)

type publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
}

type AMQP struct {
	ch       publisher
	exchange string
}

func NewAMQP(ch *amqp091.Channel, exchange string) *AMQP {
	return &AMQP{ch: ch, exchange: exchange}
}

// DialAMQP connects with retries and declares the durable topic exchange.
func DialAMQP(ctx context.Context, url, exchange string, attempts int, log logger.Logger) (*amqp091.Connection, *amqp091.Channel, error) {
	log = logger.OrNop(log)
	if attempts <= 0 {
		attempts = 1
	}
	backoff := time.Second
	var lastErr error
	for i := 0; i < attempts; i++ {
		conn, ch, err := dialOnce(url, exchange)
		if err == nil {
			return conn, ch, nil
		}
		lastErr = err
		log.Warnf("RabbitMQ not ready, retrying... (%d/%d): %v", i+1, attempts, err)
		select {
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		case <-time.After(backoff):
		}
		if backoff < 10*time.Second {
			backoff *= 2
		}
	}
	return nil, nil, fmt.Errorf("connect to RabbitMQ: %w", lastErr)
}

func dialOnce(url, exchange string) (*amqp091.Connection, *amqp091.Channel, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, err
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = conn.Close()
		return nil, nil, err
	}
	return conn, ch, nil
}

func RoutingKey(driverID string) string {
	return "driver." + driverID + ".offer"
}

func (a *AMQP) Notify(ctx context.Context, to Recipient, offer Offer) error {
	body, err := json.Marshal(envelope{Type: "ride_offer", Offer: offer})
	if err != nil {
		return err
	}
	return a.ch.PublishWithContext(ctx, a.exchange, RoutingKey(to.DriverID.String()), false, false, amqp091.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp091.Persistent,
		Timestamp:    time.Now(),
		MessageId:    offer.RequestID.String() + ":" + to.DriverID.String(),
	})
}
