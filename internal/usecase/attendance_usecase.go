package usecase

import (
	"context"
	"time"

	"studyroom-backend/internal/model"
	"studyroom-backend/internal/repository"
	"studyroom-backend/internal/studyday"
	"studyroom-backend/internal/studytime"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// AttendanceUsecase covers manual event entry and per-day study time queries.
type AttendanceUsecase struct {
	events     repository.AttendanceRepository
	students   repository.StudentRepository
	aggregator *studytime.Aggregator
	clock      *studyday.Clock
	now        func() time.Time
}

func NewAttendanceUsecase(events repository.AttendanceRepository, students repository.StudentRepository, aggregator *studytime.Aggregator, clock *studyday.Clock) *AttendanceUsecase {
	return &AttendanceUsecase{events: events, students: students, aggregator: aggregator, clock: clock, now: time.Now}
}

// RecordManual stores a manually entered event. A zero occurredAt means now.
func (u *AttendanceUsecase) RecordManual(ctx context.Context, studentID uint, typ model.EventType, occurredAt time.Time) (*model.AttendanceEvent, error) {
	if !typ.Valid() {
		return nil, errors.Errorf("unknown event type %q", typ)
	}
	if _, err := u.students.GetByID(ctx, studentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrStudentNotFound
		}
		return nil, errors.Wrap(err, "load student")
	}
	if occurredAt.IsZero() {
		occurredAt = u.now()
	}

	event := &model.AttendanceEvent{
		StudentID:  studentID,
		Type:       typ,
		OccurredAt: occurredAt.UTC(),
		Source:     model.SourceManual,
	}
	if err := u.events.Create(ctx, event); err != nil {
		return nil, errors.Wrap(ErrPersistence, "create event: "+err.Error())
	}
	return event, nil
}

type DayStudyTime struct {
	StudentID uint      `json:"student_id"`
	Date      string    `json:"date"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Seconds   int64     `json:"seconds"`
}

// StudyTime returns one study day's total. A zero date means the current study day.
func (u *AttendanceUsecase) StudyTime(ctx context.Context, studentID uint, date studyday.Date) (*DayStudyTime, error) {
	now := u.now()
	if date.IsZero() {
		date = u.clock.StudyDateOf(now)
	}
	secs, err := u.aggregator.StudySeconds(ctx, studentID, date, now)
	if err != nil {
		return nil, err
	}
	start, end := u.clock.Bounds(date)
	return &DayStudyTime{StudentID: studentID, Date: date.String(), Start: start, End: end, Seconds: secs}, nil
}

func (u *AttendanceUsecase) DayEvents(ctx context.Context, studentID uint, date studyday.Date) ([]model.AttendanceEvent, error) {
	if date.IsZero() {
		date = u.clock.StudyDateOf(u.now())
	}
	return u.aggregator.DayEvents(ctx, studentID, date)
}
