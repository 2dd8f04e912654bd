package model

import (
	"time"

	"gorm.io/gorm"
)

type Branch struct {
	gorm.Model
	Name string `json:"name" gorm:"not null"`
}

type StudentType struct {
	gorm.Model
	Name             string  `json:"name" gorm:"unique;not null"`
	DefaultGoalHours float64 `json:"default_goal_hours"`
}

type Student struct {
	gorm.Model
	Name          string `json:"name"`
	GuardianEmail string `json:"guardian_email"`
	BranchID      *uint  `json:"branch_id"`
	StudentTypeID *uint  `json:"student_type_id"`
	IsActive      bool   `json:"is_active" gorm:"default:true"`

	// relations
	Branch      *Branch      `json:"branch,omitempty" gorm:"foreignKey:BranchID"`
	StudentType *StudentType `json:"student_type,omitempty" gorm:"foreignKey:StudentTypeID"`
}

// StudentIdentityLink maps an access-control user to a student. Events before ApprovedAt are
// not trusted for that student.
type StudentIdentityLink struct {
	gorm.Model
	StudentID      uint      `json:"student_id" gorm:"not null;index"`
	ExternalUserID string    `json:"external_user_id" gorm:"type:varchar(64);uniqueIndex;not null"`
	ApprovedAt     time.Time `json:"approved_at" gorm:"not null"`
}
