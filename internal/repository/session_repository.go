package repository

import (
	"context"
	"time"

	"studyroom-backend/internal/model"

	"gorm.io/gorm"
)

type SessionRepository interface {
	// CloseOpen ends every open session of the student that started at or before endedAt.
	CloseOpen(ctx context.Context, studentID uint, endedAt time.Time) (int64, error)
}

type sessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{db}
}

func (r *sessionRepository) CloseOpen(ctx context.Context, studentID uint, endedAt time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.StudySession{}).
		Where("student_id = ? AND ended_at IS NULL AND started_at <= ?", studentID, endedAt.UTC()).
		Update("ended_at", endedAt.UTC())
	return res.RowsAffected, res.Error
}
