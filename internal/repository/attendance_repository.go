package repository

import (
	"context"
	"time"

	"studyroom-backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AttendanceRepository interface {
	Create(ctx context.Context, event *model.AttendanceEvent) error
	CreateBatch(ctx context.Context, events []model.AttendanceEvent) (int64, error)
	ListByStudentBetween(ctx context.Context, studentID uint, from, to time.Time) ([]model.AttendanceEvent, error)
	ListExternalBetween(ctx context.Context, studentIDs []uint, from, to time.Time) ([]model.AttendanceEvent, error)
}

type attendanceRepository struct {
	db *gorm.DB
}

func NewAttendanceRepository(db *gorm.DB) AttendanceRepository {
	return &attendanceRepository{db}
}

func (r *attendanceRepository) Create(ctx context.Context, event *model.AttendanceEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

// CreateBatch inserts all events in one statement. Rows whose external_key already exists are
// skipped by the database, so the returned count is what was actually written.
func (r *attendanceRepository) CreateBatch(ctx context.Context, events []model.AttendanceEvent) (int64, error) {
	if len(events) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "external_key"}}, DoNothing: true}).
		Create(&events)
	return res.RowsAffected, res.Error
}

// ListByStudentBetween returns events in [from, to) ordered by time, then insertion order.
func (r *attendanceRepository) ListByStudentBetween(ctx context.Context, studentID uint, from, to time.Time) ([]model.AttendanceEvent, error) {
	var events []model.AttendanceEvent
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND occurred_at >= ? AND occurred_at < ?", studentID, from.UTC(), to.UTC()).
		Order("occurred_at asc").Order("id asc").
		Find(&events).Error
	return events, err
}

// ListExternalBetween is the dedup lookup: external_access events of the given students in [from, to].
func (r *attendanceRepository) ListExternalBetween(ctx context.Context, studentIDs []uint, from, to time.Time) ([]model.AttendanceEvent, error) {
	var events []model.AttendanceEvent
	if len(studentIDs) == 0 {
		return events, nil
	}
	err := r.db.WithContext(ctx).
		Where("student_id IN ? AND source = ? AND occurred_at >= ? AND occurred_at <= ?",
			studentIDs, model.SourceExternalAccess, from.UTC(), to.UTC()).
		Find(&events).Error
	return events, err
}
