package database

import (
	"log/slog"
	"time"

	"studyroom-backend/internal/model"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// SeedAll loads a demo branch with student types, date types, goal settings and one linked
// student. It is idempotent.
func SeedAll(db *gorm.DB, log *slog.Logger) error {
	return db.Transaction(func(tx *gorm.DB) error {
		// 1. Branch
		branch := model.Branch{Name: "Main Branch"}
		if err := tx.FirstOrCreate(&branch, model.Branch{Name: branch.Name}).Error; err != nil {
			return errors.Wrap(err, "seed branch")
		}

		// 2. Student types with their flat default goal
		types := map[string]float64{"middle-school": 30, "high-school": 40, "repeater": 56}
		typeIDs := make(map[string]uint, len(types))
		for name, hours := range types {
			st := model.StudentType{Name: name, DefaultGoalHours: hours}
			if err := tx.FirstOrCreate(&st, model.StudentType{Name: name}).Error; err != nil {
				return errors.Wrapf(err, "seed student type %s", name)
			}
			typeIDs[name] = st.ID
		}

		// 3. Date types
		dateTypeIDs := make(map[string]uint)
		for _, name := range []string{"semester", "vacation", "exam"} {
			dt := model.DateType{Name: name}
			if err := tx.FirstOrCreate(&dt, model.DateType{Name: name}).Error; err != nil {
				return errors.Wrapf(err, "seed date type %s", name)
			}
			dateTypeIDs[name] = dt.ID
		}

		// 4. Weekly goal settings per (student type, date type)
		settings := []struct {
			studentType, dateType string
			hours                 float64
			reward, penalty       int
		}{
			{"middle-school", "semester", 25, 3, 2},
			{"middle-school", "vacation", 40, 5, 3},
			{"middle-school", "exam", 35, 5, 2},
			{"high-school", "semester", 40, 5, 3},
			{"high-school", "vacation", 56, 8, 4},
			{"high-school", "exam", 50, 8, 3},
			{"repeater", "semester", 60, 10, 5},
			{"repeater", "vacation", 60, 10, 5},
			{"repeater", "exam", 63, 10, 5},
		}
		for _, s := range settings {
			row := model.WeeklyGoalSetting{
				StudentTypeID:   typeIDs[s.studentType],
				DateTypeID:      dateTypeIDs[s.dateType],
				WeeklyGoalHours: s.hours,
				RewardPoints:    s.reward,
				PenaltyPoints:   s.penalty,
			}
			err := tx.Where(model.WeeklyGoalSetting{StudentTypeID: row.StudentTypeID, DateTypeID: row.DateTypeID}).
				Assign(model.WeeklyGoalSetting{WeeklyGoalHours: row.WeeklyGoalHours, RewardPoints: row.RewardPoints, PenaltyPoints: row.PenaltyPoints}).
				FirstOrCreate(&row).Error
			if err != nil {
				return errors.Wrapf(err, "seed goal setting %s/%s", s.studentType, s.dateType)
			}
		}

		// 5. Current and next four weeks are semester days
		today := time.Now().UTC().Truncate(24 * time.Hour)
		for i := -7; i < 28; i++ {
			a := model.DateAssignment{BranchID: branch.ID, Date: today.AddDate(0, 0, i).Format("2006-01-02"), DateTypeID: dateTypeIDs["semester"]}
			if err := tx.FirstOrCreate(&a, model.DateAssignment{BranchID: a.BranchID, Date: a.Date}).Error; err != nil {
				return errors.Wrapf(err, "seed date assignment %s", a.Date)
			}
		}

		// 6. Demo student linked to access-control user 1
		typeID := typeIDs["high-school"]
		student := model.Student{Name: "Demo Student", BranchID: &branch.ID, StudentTypeID: &typeID, IsActive: true}
		if err := tx.FirstOrCreate(&student, model.Student{Name: student.Name}).Error; err != nil {
			return errors.Wrap(err, "seed student")
		}
		link := model.StudentIdentityLink{StudentID: student.ID, ExternalUserID: "1", ApprovedAt: time.Now().UTC()}
		if err := tx.FirstOrCreate(&link, model.StudentIdentityLink{ExternalUserID: link.ExternalUserID}).Error; err != nil {
			return errors.Wrap(err, "seed identity link")
		}

		log.Info("seed complete", "branch_id", branch.ID, "student_id", student.ID)
		return nil
	})
}
