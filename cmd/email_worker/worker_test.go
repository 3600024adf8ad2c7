package main

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/feedback-hub/pkg/helpers"
	"github.com/oksasatya/feedback-hub/pkg/mailer"
	mailtpl "github.com/oksasatya/feedback-hub/pkg/mailer/templates"
)

type sent struct{ to, subject, text, html string }

type fakeSender struct {
	sent []sent
	err  error
}

func (f *fakeSender) Send(_ context.Context, to, subject, text, html string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sent{to, subject, text, html})
	return nil
}

func body(t *testing.T, job mailer.EmailJob) []byte {
	t.Helper()
	b, err := json.Marshal(job)
	require.NoError(t, err)
	return b
}

func TestHandle_RendersTemplate(t *testing.T) {
	s := &fakeSender{}
	w := &worker{sender: s, logger: helpers.DiscardLogger()}
	data := mailtpl.NewWelcomeData(mailtpl.Branding{AppName: "feedback-hub"}, "Ann", "ann@b.com", mailtpl.WithUserID(7))

	got := w.handle(context.Background(), body(t, mailer.EmailJob{To: "ann@b.com", Template: mailtpl.Welcome, Data: data}))

	assert.Equal(t, ack, got)
	require.Len(t, s.sent, 1)
	assert.Equal(t, "ann@b.com", s.sent[0].to)
	assert.Equal(t, "Welcome to feedback-hub", s.sent[0].subject)
	assert.Contains(t, s.sent[0].text, "Hi Ann")
	assert.Contains(t, s.sent[0].html, "<strong>7</strong>")
}

func TestHandle_PreRenderedBody(t *testing.T) {
	s := &fakeSender{}
	w := &worker{sender: s, logger: helpers.DiscardLogger()}

	got := w.handle(context.Background(), body(t, mailer.EmailJob{To: "a@b.com", Subject: "Hi", Text: "plain"}))
	assert.Equal(t, ack, got)
	assert.Equal(t, sent{"a@b.com", "Hi", "plain", ""}, s.sent[0])
}

func TestHandle_DropsMalformedJobs(t *testing.T) {
	s := &fakeSender{}
	w := &worker{sender: s, logger: helpers.DiscardLogger()}
	ctx := context.Background()

	assert.Equal(t, drop, w.handle(ctx, []byte("{not json")))
	assert.Equal(t, drop, w.handle(ctx, body(t, mailer.EmailJob{Template: mailtpl.Welcome})))
	assert.Equal(t, drop, w.handle(ctx, body(t, mailer.EmailJob{To: "a@b.com", Template: "missing"})))
	assert.Equal(t, drop, w.handle(ctx, body(t, mailer.EmailJob{To: "a@b.com"})))
	assert.Empty(t, s.sent)
}

func TestHandle_RequeuesSendFailures(t *testing.T) {
	w := &worker{sender: &fakeSender{err: errors.New("mailgun down")}, logger: helpers.DiscardLogger()}
	got := w.handle(context.Background(), body(t, mailer.EmailJob{To: "a@b.com", Subject: "Hi", Text: "x"}))
	assert.Equal(t, requeue, got)
}
