package repository

import (
	"context"

	"studyroom-backend/internal/model"

	"gorm.io/gorm"
)

type PointRepository interface {
	OutcomeExists(ctx context.Context, studentID uint, weekStart string) (bool, error)
	// RecordWeekly writes the point and the outcome referencing it in one transaction.
	RecordWeekly(ctx context.Context, point *model.Point, outcome *model.WeeklyPointOutcome) error
}

type pointRepository struct {
	db *gorm.DB
}

func NewPointRepository(db *gorm.DB) PointRepository {
	return &pointRepository{db}
}

func (r *pointRepository) OutcomeExists(ctx context.Context, studentID uint, weekStart string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.WeeklyPointOutcome{}).
		Where("student_id = ? AND week_start = ?", studentID, weekStart).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *pointRepository) RecordWeekly(ctx context.Context, point *model.Point, outcome *model.WeeklyPointOutcome) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(point).Error; err != nil {
			return err
		}
		outcome.PointRecordID = point.ID
		// a concurrent run that already wrote this week trips the unique index and rolls back the point
		return tx.Create(outcome).Error
	})
}

type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) error
}

type notificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db}
}

func (r *notificationRepository) Create(ctx context.Context, n *model.Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}
