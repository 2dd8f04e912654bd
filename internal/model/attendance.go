package model

import "time"

type EventType string

const (
	EventCheckIn    EventType = "check_in"
	EventCheckOut   EventType = "check_out"
	EventBreakStart EventType = "break_start"
	EventBreakEnd   EventType = "break_end"
)

func (t EventType) Valid() bool {
	switch t {
	case EventCheckIn, EventCheckOut, EventBreakStart, EventBreakEnd:
		return true
	}
	return false
}

type EventSource string

const (
	SourceManual         EventSource = "manual"
	SourceExternalAccess EventSource = "external_access"
)

// AttendanceEvent is the canonical, immutable attendance record. Rows are ordered by
// (occurred_at, id); id breaks ties by insertion order. ExternalKey is only set for
// external_access rows, so NULLs never collide on its unique index.
type AttendanceEvent struct {
	ID          uint        `json:"id" gorm:"primaryKey"`
	StudentID   uint        `json:"student_id" gorm:"not null;index:idx_attendance_student_time,priority:1"`
	Type        EventType   `json:"type" gorm:"type:varchar(20);not null"`
	OccurredAt  time.Time   `json:"occurred_at" gorm:"not null;index:idx_attendance_student_time,priority:2"`
	Source      EventSource `json:"source" gorm:"type:varchar(20);not null"`
	ExternalKey *string     `json:"-" gorm:"type:varchar(64);uniqueIndex"`
	CreatedAt   time.Time   `json:"created_at"`
}

// StudySession is a subject/activity timer a student starts inside the room.
type StudySession struct {
	ID        uint       `json:"id" gorm:"primaryKey"`
	StudentID uint       `json:"student_id" gorm:"not null;index"`
	Subject   string     `json:"subject"`
	StartedAt time.Time  `json:"started_at" gorm:"not null"`
	EndedAt   *time.Time `json:"ended_at" gorm:"index"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}
