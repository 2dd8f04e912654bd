package notify

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"studyroom-backend/internal/model"
	"studyroom-backend/internal/repository/inmem"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

type fakeSender struct {
	sent []*gomail.Message
	err  error
}

func (f *fakeSender) DialAndSend(m ...*gomail.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, m...)
	return nil
}

type failingSink struct{}

func (failingSink) Notify(context.Context, Message) error { return assert.AnError }

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestDBSink(t *testing.T) {
	store := inmem.New()
	sink := NewDBSink(store.Notifications())

	require.NoError(t, sink.Notify(context.Background(), Message{StudentID: 3, Type: "weekly_goal", Title: "t", Message: "m", Link: "/points"}))

	notes := store.NotificationsFor(3)
	require.Len(t, notes, 1)
	assert.Equal(t, "weekly_goal", notes[0].Type)
	assert.False(t, notes[0].IsRead)
}

func TestMailSink(t *testing.T) {
	store := inmem.New()
	withGuardian := store.AddStudent(model.Student{Name: "Kim", GuardianEmail: "parent@example.com", IsActive: true})
	without := store.AddStudent(model.Student{Name: "Lee", IsActive: true})

	sender := &fakeSender{}
	sink := NewMailSink(sender, "noreply@example.com", store)

	require.NoError(t, sink.Notify(context.Background(), Message{StudentID: withGuardian.ID, Title: "Weekly goal achieved", Message: "well done"}))
	require.NoError(t, sink.Notify(context.Background(), Message{StudentID: without.ID, Title: "x"}))

	require.Len(t, sender.sent, 1)
	assert.Equal(t, []string{"parent@example.com"}, sender.sent[0].GetHeader("To"))
	assert.Equal(t, []string{"[Kim] Weekly goal achieved"}, sender.sent[0].GetHeader("Subject"))

	assert.Error(t, sink.Notify(context.Background(), Message{StudentID: 999}))
}

func TestMulti_ContinuesPastFailure(t *testing.T) {
	store := inmem.New()
	multi := NewMulti(quiet, failingSink{}, NewDBSink(store.Notifications()))

	err := multi.Notify(context.Background(), Message{StudentID: 1, Type: "weekly_goal"})
	assert.ErrorIs(t, err, assert.AnError)
	assert.Len(t, store.NotificationsFor(1), 1)
}
