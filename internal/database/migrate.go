package database

import (
	"studyroom-backend/internal/model"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// Migrate creates or updates every table the service owns. The access-control tables are
// external and never migrated.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&model.Branch{},
		&model.StudentType{},
		&model.Student{},
		&model.StudentIdentityLink{},
		&model.DateType{},
		&model.DateAssignment{},
		&model.WeeklyGoalSetting{},
		&model.AttendanceEvent{},
		&model.StudySession{},
		&model.SyncLog{},
		&model.SyncLease{},
		&model.Point{},
		&model.WeeklyPointOutcome{},
		&model.Notification{},
	)
	return errors.Wrap(err, "auto migrate")
}
