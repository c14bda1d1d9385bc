package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mailtpl "github.com/oksasatya/circle-up/pkg/mailer/templates"
)

type sent struct{ to, subject, text, html string }

type fakeSender struct {
	got []sent
	err error
}

func (f *fakeSender) Send(_ context.Context, to, subject, text, html string) error {
	if f.err != nil {
		return f.err
	}
	f.got = append(f.got, sent{to, subject, text, html})
	return nil
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

func encode(t *testing.T, job EmailJob) []byte {
	t.Helper()
	b, err := json.Marshal(job)
	require.NoError(t, err)
	return b
}

func TestWorker_RendersTemplate(t *testing.T) {
	s := &fakeSender{}
	w := NewWorker(s, quietLogger())
	base := mailtpl.Base{AppName: "Circle Up", AppURL: "https://circleup.test"}
	job := EmailJob{To: "bob@example.com", Template: mailtpl.FriendAdded, Data: mailtpl.NewFriendAddedData(base, "Bob", "", "Fox")}

	require.NoError(t, w.Process(context.Background(), encode(t, job)))

	require.Len(t, s.got, 1)
	assert.Equal(t, "bob@example.com", s.got[0].to)
	assert.Equal(t, "Fox added you on Circle Up", s.got[0].subject)
	assert.NotEmpty(t, s.got[0].html)
}

func TestWorker_RawBody(t *testing.T) {
	s := &fakeSender{}
	w := NewWorker(s, quietLogger())

	require.NoError(t, w.Process(context.Background(), encode(t, EmailJob{To: "a@x.com", Subject: "hi", Text: "body"})))

	assert.Equal(t, []sent{{"a@x.com", "hi", "body", ""}}, s.got)
}

func TestWorker_PermanentFailures(t *testing.T) {
	w := NewWorker(&fakeSender{}, quietLogger())
	ctx := context.Background()

	assert.ErrorIs(t, w.Process(ctx, []byte("{")), ErrPermanent)
	assert.ErrorIs(t, w.Process(ctx, encode(t, EmailJob{Subject: "x"})), ErrPermanent)
	assert.ErrorIs(t, w.Process(ctx, encode(t, EmailJob{To: "a@x.com", Template: "nope"})), ErrPermanent)
}

func TestWorker_SendFailureIsRetryable(t *testing.T) {
	w := NewWorker(&fakeSender{err: errors.New("503")}, quietLogger())

	err := w.Process(context.Background(), encode(t, EmailJob{To: "a@x.com", Subject: "x", Text: "y"}))

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrPermanent)
}

func TestEnsureRecipient(t *testing.T) {
	job := EmailJob{To: "ann@example.com", Data: map[string]any{"Email": ""}}
	job.EnsureRecipient()

	assert.Equal(t, "ann@example.com", job.Data["Email"])
	assert.Equal(t, "ann@example.com", job.Data["RecipientEmail"])
}
