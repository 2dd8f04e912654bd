// Package studytime reduces a study day's attendance events into elapsed study seconds.
package studytime

import (
	"time"

	"studyroom-backend/internal/model"
)

// State of a student inside the room.
type State int

const (
	Absent State = iota
	Present
)

func (s State) String() string {
	if s == Present {
		return "present"
	}
	return "absent"
}

// Effect is what a transition does to the running total.
type Effect int

const (
	Ignore     Effect = iota // event has no meaning in this state
	Enter                    // remember the entry instant
	Reenter                  // already present: overwrite the entry instant (last write wins)
	Accumulate               // add now-entry to the total and leave
)

// Transition is one row of the state table.
type Transition struct {
	Next   State
	Effect Effect
}

// Transitions is the complete table. Malformed sequences (a second check_in while present,
// a check_out while absent) are explicit rows, not accidents.
var Transitions = map[State]map[model.EventType]Transition{
	Absent: {
		model.EventCheckIn:    {Present, Enter},
		model.EventBreakEnd:   {Present, Enter},
		model.EventCheckOut:   {Absent, Ignore},
		model.EventBreakStart: {Absent, Ignore},
	},
	Present: {
		model.EventCheckIn:    {Present, Reenter},
		model.EventBreakEnd:   {Present, Reenter},
		model.EventCheckOut:   {Absent, Accumulate},
		model.EventBreakStart: {Absent, Accumulate},
	},
}

// Reducer folds events one by one.
type Reducer struct {
	state State
	entry time.Time
	total time.Duration
}

func (r *Reducer) State() State { return r.state }

// Apply feeds one event. Unknown event types are ignored.
func (r *Reducer) Apply(typ model.EventType, at time.Time) {
	tr, ok := Transitions[r.state][typ]
	if !ok {
		return
	}
	switch tr.Effect {
	case Enter, Reenter:
		r.entry = at
	case Accumulate:
		if d := at.Sub(r.entry); d > 0 {
			r.total += d
		}
	}
	r.state = tr.Next
}

// Close ends the reduction. A session still open is counted up to min(now, dayEnd).
func (r *Reducer) Close(dayEnd, now time.Time) int64 {
	total := r.total
	if r.state == Present {
		until := now
		if dayEnd.Before(until) {
			until = dayEnd
		}
		if d := until.Sub(r.entry); d > 0 {
			total += d
		}
	}
	return int64(total / time.Second)
}

// Reduce returns the study seconds of one day's events, which must already be restricted to
// the day's bounds and sorted by (occurred_at, id).
func Reduce(events []model.AttendanceEvent, dayEnd, now time.Time) int64 {
	var r Reducer
	for _, ev := range events {
		r.Apply(ev.Type, ev.OccurredAt)
	}
	return r.Close(dayEnd, now)
}
