package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zonetaxi/internal/modules/ride"
	"zonetaxi/internal/types"
)

type captureWriter struct {
	msgs   []kafka.Message
	closed bool
}

func (c *captureWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	c.msgs = append(c.msgs, msgs...)
	return nil
}

func (c *captureWriter) Close() error {
	c.closed = true
	return nil
}

func TestKafkaPublisher_Publish(t *testing.T) {
	w := &captureWriter{}
	p := &KafkaPublisher{writer: w}
	actor := types.ID("d1")
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	err := p.Publish(context.Background(), ride.Event{
		RequestID:   "r1",
		CommunityID: "guild-1",
		FromStatus:  ride.StatusPending,
		ToStatus:    ride.StatusAccepted,
		ActorType:   ride.ActorDriver,
		ActorID:     &actor,
		CreatedAt:   at,
	})
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "r1", string(w.msgs[0].Key))

	var m Message
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &m))
	assert.Equal(t, "pending", m.From)
	assert.Equal(t, "accepted", m.To)
	assert.Equal(t, "d1", m.ActorID)
	assert.True(t, at.Equal(m.At))

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}
