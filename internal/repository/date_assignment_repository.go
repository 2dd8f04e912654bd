package repository

import (
	"context"

	"studyroom-backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DateAssignmentRepository interface {
	GetByBranchAndDates(ctx context.Context, branchID uint, dates []string) (map[string]model.DateAssignment, error)
	Upsert(ctx context.Context, assignment *model.DateAssignment) error
}

type dateAssignmentRepository struct {
	db *gorm.DB
}

func NewDateAssignmentRepository(db *gorm.DB) DateAssignmentRepository {
	return &dateAssignmentRepository{db}
}

// GetByBranchAndDates returns the assignments keyed by date (YYYY-MM-DD). Missing dates are unassigned.
func (r *dateAssignmentRepository) GetByBranchAndDates(ctx context.Context, branchID uint, dates []string) (map[string]model.DateAssignment, error) {
	out := make(map[string]model.DateAssignment)
	if len(dates) == 0 {
		return out, nil
	}
	var rows []model.DateAssignment
	err := r.db.WithContext(ctx).Where("branch_id = ? AND date IN ?", branchID, dates).Find(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.Date] = row
	}
	return out, nil
}

func (r *dateAssignmentRepository) Upsert(ctx context.Context, assignment *model.DateAssignment) error {
	// unique constraint on (branch_id, date); restores soft-deleted rows
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "branch_id"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{"date_type_id", "updated_at", "deleted_at"}),
	}).Create(assignment).Error
}

type GoalSettingRepository interface {
	// GetByStudentType returns the settings of a student type keyed by date type id.
	GetByStudentType(ctx context.Context, studentTypeID uint) (map[uint]model.WeeklyGoalSetting, error)
}

type goalSettingRepository struct {
	db *gorm.DB
}

func NewGoalSettingRepository(db *gorm.DB) GoalSettingRepository {
	return &goalSettingRepository{db}
}

func (r *goalSettingRepository) GetByStudentType(ctx context.Context, studentTypeID uint) (map[uint]model.WeeklyGoalSetting, error) {
	var rows []model.WeeklyGoalSetting
	if err := r.db.WithContext(ctx).Where("student_type_id = ?", studentTypeID).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[uint]model.WeeklyGoalSetting, len(rows))
	for _, row := range rows {
		out[row.DateTypeID] = row
	}
	return out, nil
}
