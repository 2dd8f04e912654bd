package model

import (
	"time"

	"gorm.io/gorm"
)

type DateType struct {
	gorm.Model
	Name string `json:"name" gorm:"unique;not null"` // semester, vacation, exam...
}

// DateAssignment gives a calendar date of a branch its date type.
type DateAssignment struct {
	gorm.Model
	BranchID   uint   `json:"branch_id" gorm:"not null;uniqueIndex:idx_branch_date,priority:1"`
	Date       string `json:"date" gorm:"type:varchar(10);not null;uniqueIndex:idx_branch_date,priority:2"` // Format YYYY-MM-DD
	DateTypeID uint   `json:"date_type_id" gorm:"not null"`
}

type WeeklyGoalSetting struct {
	gorm.Model
	StudentTypeID   uint    `json:"student_type_id" gorm:"not null;uniqueIndex:idx_goal_setting,priority:1"`
	DateTypeID      uint    `json:"date_type_id" gorm:"not null;uniqueIndex:idx_goal_setting,priority:2"`
	WeeklyGoalHours float64 `json:"weekly_goal_hours"`
	RewardPoints    int     `json:"reward_points"`
	PenaltyPoints   int     `json:"penalty_points"`
}

type PointKind string

const (
	PointReward  PointKind = "reward"
	PointPenalty PointKind = "penalty"
)

type Point struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	StudentID uint      `json:"student_id" gorm:"not null;index"`
	Kind      PointKind `json:"kind" gorm:"type:varchar(10);not null"`
	Amount    int       `json:"amount"`
	Reason    string    `json:"reason"`
	IsAuto    bool      `json:"is_auto"`
	CreatedAt time.Time `json:"created_at"`
}

// WeeklyPointOutcome exists at most once per (student, week_start).
type WeeklyPointOutcome struct {
	ID                uint      `json:"id" gorm:"primaryKey"`
	StudentID         uint      `json:"student_id" gorm:"not null;uniqueIndex:idx_outcome_student_week,priority:1"`
	WeekStart         string    `json:"week_start" gorm:"type:varchar(10);not null;uniqueIndex:idx_outcome_student_week,priority:2"`
	TotalStudyMinutes int       `json:"total_study_minutes"`
	GoalMinutes       int       `json:"goal_minutes"`
	Achieved          bool      `json:"achieved"`
	PointRecordID     uint      `json:"point_record_id"`
	CreatedAt         time.Time `json:"created_at"`
}
