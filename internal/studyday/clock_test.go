package studyday

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var kst = time.FixedZone("KST", 9*3600)

func TestStudyDateOf(t *testing.T) {
	clock := NewClock(9*60, time.Sunday)

	tests := []struct {
		name string
		at   time.Time
		want string
	}{
		{name: "midnight belongs to previous day", at: time.Date(2026, 3, 10, 0, 0, 0, 0, kst), want: "2026-03-09"},
		{name: "overnight tail", at: time.Date(2026, 3, 10, 1, 15, 0, 0, kst), want: "2026-03-09"},
		{name: "after close before open", at: time.Date(2026, 3, 10, 5, 0, 0, 0, kst), want: "2026-03-09"},
		{name: "last second before open", at: time.Date(2026, 3, 10, 7, 29, 59, 0, kst), want: "2026-03-09"},
		{name: "opening instant", at: time.Date(2026, 3, 10, 7, 30, 0, 0, kst), want: "2026-03-10"},
		{name: "evening", at: time.Date(2026, 3, 10, 23, 59, 59, 0, kst), want: "2026-03-10"},
		{name: "month boundary", at: time.Date(2026, 3, 1, 3, 0, 0, 0, kst), want: "2026-02-28"},
		{name: "year boundary", at: time.Date(2027, 1, 1, 6, 0, 0, 0, kst), want: "2026-12-31"},
		// 22:00 UTC on the 9th is 07:00 KST on the 10th
		{name: "host timezone irrelevant", at: time.Date(2026, 3, 9, 22, 0, 0, 0, time.UTC), want: "2026-03-09"},
		{name: "utc instant after open", at: time.Date(2026, 3, 9, 23, 0, 0, 0, time.UTC), want: "2026-03-10"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, clock.StudyDateOf(tt.at).String())
		})
	}
}

func TestStudyDateOf_EarlyMorningIsPreviousDay(t *testing.T) {
	clock := NewClock(9*60, time.Sunday)
	day := time.Date(2026, 5, 20, 0, 0, 0, 0, kst)

	for m := 0; m < 7*60+30; m += 7 {
		at := day.Add(time.Duration(m) * time.Minute)
		own := Date{at.Year(), at.Month(), at.Day()}
		assert.Equal(t, own.AddDays(-1), clock.StudyDateOf(at), "at %s", at)
	}
}

func TestBounds(t *testing.T) {
	clock := NewClock(9*60, time.Sunday)

	start, end := clock.Bounds(NewDate(2026, 3, 10))
	assert.True(t, start.Equal(time.Date(2026, 3, 10, 7, 30, 0, 0, kst)))
	assert.True(t, end.Equal(time.Date(2026, 3, 11, 1, 30, 0, 0, kst)))

	d := NewDate(2026, 1, 1)
	for i := 0; i < 400; i++ {
		s, e := clock.Bounds(d)
		require.Equal(t, DayLength, e.Sub(s), "date %s", d)
		d = d.AddDays(1)
	}
}

func TestBounds_ContainsItsStudyDate(t *testing.T) {
	clock := NewClock(9*60, time.Sunday)
	d := NewDate(2026, 12, 31)
	start, end := clock.Bounds(d)

	assert.Equal(t, d, clock.StudyDateOf(start))
	assert.Equal(t, d, clock.StudyDateOf(end.Add(-time.Second)))
}

func TestWeekStartOf(t *testing.T) {
	tests := []struct {
		name  string
		first time.Weekday
		at    time.Time
		want  string
	}{
		// 2026-03-11 is a Wednesday
		{name: "sunday start", first: time.Sunday, at: time.Date(2026, 3, 11, 12, 0, 0, 0, kst), want: "2026-03-08"},
		{name: "monday start", first: time.Monday, at: time.Date(2026, 3, 11, 12, 0, 0, 0, kst), want: "2026-03-09"},
		{name: "on first weekday", first: time.Sunday, at: time.Date(2026, 3, 8, 9, 0, 0, 0, kst), want: "2026-03-08"},
		// sunday 02:00 still belongs to saturday's study day
		{name: "overnight tail crosses week", first: time.Sunday, at: time.Date(2026, 3, 8, 2, 0, 0, 0, kst), want: "2026-03-01"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := NewClock(9*60, tt.first)
			assert.Equal(t, tt.want, clock.WeekStartOf(tt.at).String())
		})
	}
}

func TestWeekDates(t *testing.T) {
	clock := NewClock(9*60, time.Sunday)
	dates := clock.WeekDates(NewDate(2026, 2, 26))

	require.Len(t, dates, 7)
	assert.Equal(t, "2026-02-26", dates[0].String())
	assert.Equal(t, "2026-03-04", dates[6].String())
}

func TestStamp_RoundTrip(t *testing.T) {
	clock := NewClock(9*60, time.Sunday)

	at, err := clock.FromStamp("20260310", "011500")
	require.NoError(t, err)
	assert.True(t, at.Equal(time.Date(2026, 3, 10, 1, 15, 0, 0, kst)))

	ds, ts := clock.Stamp(at.UTC())
	assert.Equal(t, "20260310", ds)
	assert.Equal(t, "011500", ts)

	_, err = clock.FromStamp("2026031", "99")
	assert.Error(t, err)
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-02-29")
	require.NoError(t, err)
	assert.Equal(t, time.Thursday, d.Weekday())
	assert.Equal(t, "2024-03-01", d.AddDays(1).String())

	_, err = ParseDate("2024-13-01")
	assert.Error(t, err)
}
