// Package notify delivers user-facing notifications. Delivery is fire-and-forget for callers.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	"studyroom-backend/internal/model"
	"studyroom-backend/internal/repository"

	"github.com/pkg/errors"
	"gopkg.in/gomail.v2"
)

type Message struct {
	StudentID uint
	Type      string
	Title     string
	Message   string
	Link      string
}

type Sink interface {
	Notify(ctx context.Context, msg Message) error
}

// DBSink stores the notification for the in-app inbox.
type DBSink struct {
	repo repository.NotificationRepository
}

func NewDBSink(repo repository.NotificationRepository) *DBSink {
	return &DBSink{repo: repo}
}

func (s *DBSink) Notify(ctx context.Context, msg Message) error {
	return s.repo.Create(ctx, &model.Notification{
		StudentID: msg.StudentID,
		Type:      msg.Type,
		Title:     msg.Title,
		Message:   msg.Message,
		Link:      msg.Link,
	})
}

// Sender is satisfied by *gomail.Dialer.
type Sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// MailSink emails the student's guardian. Students without a guardian address are skipped.
type MailSink struct {
	sender   Sender
	from     string
	students repository.StudentRepository
}

func NewMailSink(sender Sender, from string, students repository.StudentRepository) *MailSink {
	return &MailSink{sender: sender, from: from, students: students}
}

func (s *MailSink) Notify(ctx context.Context, msg Message) error {
	student, err := s.students.GetByID(ctx, msg.StudentID)
	if err != nil {
		return errors.Wrapf(err, "load student %d", msg.StudentID)
	}
	if student.GuardianEmail == "" {
		return nil
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", student.GuardianEmail)
	m.SetHeader("Subject", fmt.Sprintf("[%s] %s", student.Name, msg.Title))
	m.SetBody("text/plain", msg.Message)
	if err := s.sender.DialAndSend(m); err != nil {
		return errors.Wrapf(err, "send mail to guardian of student %d", msg.StudentID)
	}
	return nil
}

// Multi fans a message out to every sink; one failing sink does not stop the others.
type Multi struct {
	sinks []Sink
	log   *slog.Logger
}

func NewMulti(log *slog.Logger, sinks ...Sink) *Multi {
	return &Multi{sinks: sinks, log: log}
}

func (m *Multi) Notify(ctx context.Context, msg Message) error {
	var first error
	for _, s := range m.sinks {
		if err := s.Notify(ctx, msg); err != nil {
			m.log.WarnContext(ctx, "notification sink failed", "student_id", msg.StudentID, "type", msg.Type, "err", err)
			if first == nil {
				first = err
			}
		}
	}
	return first
}
