package studytime

import (
	"context"
	"testing"
	"time"

	"studyroom-backend/internal/model"
	"studyroom-backend/internal/repository/inmem"
	"studyroom-backend/internal/studyday"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addEvent(t *testing.T, store *inmem.Store, studentID uint, typ model.EventType, when time.Time) {
	t.Helper()
	require.NoError(t, store.Create(context.Background(), &model.AttendanceEvent{
		StudentID: studentID, Type: typ, OccurredAt: when.UTC(), Source: model.SourceManual,
	}))
}

func TestAggregator_StudySeconds_OvernightTail(t *testing.T) {
	store := inmem.New()
	clock := studyday.NewClock(9*60, time.Sunday)
	agg := NewAggregator(store, clock)

	addEvent(t, store, 1, model.EventCheckIn, time.Date(2026, 3, 10, 22, 0, 0, 0, kst))
	addEvent(t, store, 1, model.EventCheckOut, time.Date(2026, 3, 11, 1, 0, 0, 0, kst))
	// next day's events must not leak into the 10th
	addEvent(t, store, 1, model.EventCheckIn, time.Date(2026, 3, 11, 8, 0, 0, 0, kst))
	addEvent(t, store, 2, model.EventCheckIn, time.Date(2026, 3, 10, 9, 0, 0, 0, kst))

	now := time.Date(2026, 3, 12, 0, 0, 0, 0, kst)
	secs, err := agg.StudySeconds(context.Background(), 1, studyday.NewDate(2026, 3, 10), now)
	require.NoError(t, err)
	assert.Equal(t, int64(3*3600), secs)

	secs, err = agg.StudySeconds(context.Background(), 1, studyday.NewDate(2026, 3, 11), time.Date(2026, 3, 11, 9, 30, 0, 0, kst))
	require.NoError(t, err)
	assert.Equal(t, int64(90*60), secs)
}

func TestAggregator_FutureDayIsZero(t *testing.T) {
	store := inmem.New()
	agg := NewAggregator(store, studyday.NewClock(9*60, time.Sunday))

	secs, err := agg.StudySeconds(context.Background(), 1, studyday.NewDate(2026, 3, 20), time.Date(2026, 3, 10, 12, 0, 0, 0, kst))
	require.NoError(t, err)
	assert.Zero(t, secs)
}

func TestAggregator_WeekSeconds(t *testing.T) {
	store := inmem.New()
	clock := studyday.NewClock(9*60, time.Sunday)
	agg := NewAggregator(store, clock)

	weekStart := studyday.NewDate(2026, 3, 8)
	for i, d := range clock.WeekDates(weekStart) {
		start, _ := clock.Bounds(d)
		addEvent(t, store, 7, model.EventCheckIn, start.Add(time.Hour))
		addEvent(t, store, 7, model.EventCheckOut, start.Add(time.Hour+time.Duration(i+1)*time.Hour))
	}

	secs, err := agg.WeekSeconds(context.Background(), 7, weekStart, time.Date(2026, 3, 20, 0, 0, 0, 0, kst))
	require.NoError(t, err)
	assert.Equal(t, int64((1+2+3+4+5+6+7)*3600), secs)
}

func TestAggregator_SourceError(t *testing.T) {
	store := inmem.New()
	store.SetFail("attendance.list", assert.AnError)
	agg := NewAggregator(store, studyday.NewClock(9*60, time.Sunday))

	_, err := agg.StudySeconds(context.Background(), 1, studyday.NewDate(2026, 3, 10), time.Now())
	assert.ErrorIs(t, err, assert.AnError)
}
