package helpers

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/feedback-hub/pkg/mailer"
)

type published struct {
	exchange, key string
	msg           amqp.Publishing
}

type fakeChannel struct {
	out []published
	err error
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	if f.err != nil {
		return f.err
	}
	f.out = append(f.out, published{exchange, key, msg})
	return nil
}

func (f *fakeChannel) Close() error { return nil }

func TestRabbitPublisher_PublishJSON(t *testing.T) {
	ch := &fakeChannel{}
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	p := &RabbitPublisher{ch: ch, Queue: "email", AppID: "feedback-hub", now: func() time.Time { return at }}

	job := mailer.EmailJob{To: "a@b.com", Template: "welcome"}
	require.NoError(t, p.PublishJSON(context.Background(), job))

	require.Len(t, ch.out, 1)
	got := ch.out[0]
	assert.Equal(t, "", got.exchange)
	assert.Equal(t, "email", got.key)
	assert.Equal(t, "application/json", got.msg.ContentType)
	assert.Equal(t, amqp.Persistent, got.msg.DeliveryMode)
	assert.Equal(t, "email.welcome", got.msg.Type)
	assert.Equal(t, "feedback-hub", got.msg.AppId)
	assert.Equal(t, at, got.msg.Timestamp)
	assert.NotEmpty(t, got.msg.MessageId)

	var decoded mailer.EmailJob
	require.NoError(t, json.Unmarshal(got.msg.Body, &decoded))
	assert.Equal(t, job, decoded)
}

func TestRabbitPublisher_Errors(t *testing.T) {
	p := &RabbitPublisher{ch: &fakeChannel{err: errors.New("closed")}, Queue: "q", now: time.Now}
	assert.Error(t, p.PublishJSON(context.Background(), map[string]any{"a": 1}))
	assert.Error(t, p.PublishJSON(context.Background(), make(chan int)))
}
