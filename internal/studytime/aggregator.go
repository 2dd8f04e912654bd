package studytime

import (
	"context"
	"time"

	"studyroom-backend/internal/model"
	"studyroom-backend/internal/studyday"

	"github.com/pkg/errors"
)

// EventSource loads a student's canonical events in [from, to), ordered by (occurred_at, id).
type EventSource interface {
	ListByStudentBetween(ctx context.Context, studentID uint, from, to time.Time) ([]model.AttendanceEvent, error)
}

type Aggregator struct {
	events EventSource
	clock  *studyday.Clock
}

func NewAggregator(events EventSource, clock *studyday.Clock) *Aggregator {
	return &Aggregator{events: events, clock: clock}
}

// StudySeconds returns the study time of one study day as evaluated at now.
func (a *Aggregator) StudySeconds(ctx context.Context, studentID uint, date studyday.Date, now time.Time) (int64, error) {
	start, end := a.clock.Bounds(date)
	if now.Before(start) {
		return 0, nil
	}
	events, err := a.events.ListByStudentBetween(ctx, studentID, start, end)
	if err != nil {
		return 0, errors.Wrapf(err, "load events of student %d on %s", studentID, date)
	}
	return Reduce(events, end, now), nil
}

// DayEvents returns the events that fall inside a study day.
func (a *Aggregator) DayEvents(ctx context.Context, studentID uint, date studyday.Date) ([]model.AttendanceEvent, error) {
	start, end := a.clock.Bounds(date)
	events, err := a.events.ListByStudentBetween(ctx, studentID, start, end)
	if err != nil {
		return nil, errors.Wrapf(err, "load events of student %d on %s", studentID, date)
	}
	return events, nil
}

// WeekSeconds sums StudySeconds over the seven study days starting at weekStart.
func (a *Aggregator) WeekSeconds(ctx context.Context, studentID uint, weekStart studyday.Date, now time.Time) (int64, error) {
	var total int64
	for _, d := range a.clock.WeekDates(weekStart) {
		secs, err := a.StudySeconds(ctx, studentID, d, now)
		if err != nil {
			return 0, err
		}
		total += secs
	}
	return total, nil
}
