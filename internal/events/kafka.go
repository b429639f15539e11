// README: Ride lifecycle events published to Kafka, keyed by request id.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"zonetaxi/internal/modules/ride"
)

const writeTimeout = 2 * time.Second

// Message is the wire form of a ride status change.
type Message struct {
	RequestID   string    `json:"request_id"`
	CommunityID string    `json:"community_id"`
	From        string    `json:"from"`
	To          string    `json:"to"`
	ActorType   string    `json:"actor_type"`
	ActorID     string    `json:"actor_id,omitempty"`
	Reason      string    `json:"reason,omitempty"`
	At          time.Time `json:"at"`
}

func FromEvent(e ride.Event) Message {
	m := Message{
		RequestID:   e.RequestID.String(),
		CommunityID: e.CommunityID,
		From:        string(e.FromStatus),
		To:          string(e.ToStatus),
		ActorType:   e.ActorType,
		Reason:      e.Reason,
		At:          e.CreatedAt.UTC(),
	}
	if e.ActorID != nil {
		m.ActorID = e.ActorID.String()
	}
	return m
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	writer messageWriter
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
	}
	return &KafkaPublisher{writer: w}
}

// Publish writes one event. Messages share the request id as key so every
// event of a request lands on the same partition in order.
func (k *KafkaPublisher) Publish(ctx context.Context, e ride.Event) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	b, err := json.Marshal(FromEvent(e))
	if err != nil {
		return err
	}
	return k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(e.RequestID),
		Value: b,
		Time:  e.CreatedAt,
	})
}

func (k *KafkaPublisher) Close() error {
	if k.writer == nil {
		return nil
	}
	return k.writer.Close()
}
