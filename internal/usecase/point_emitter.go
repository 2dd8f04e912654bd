package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"studyroom-backend/internal/model"
	"studyroom-backend/internal/notify"
	"studyroom-backend/internal/repository"

	"github.com/pkg/errors"
)

const NotificationWeeklyGoal = "weekly_goal"

// PointEmitter records the automatic weekly outcome and tells the student about it.
type PointEmitter struct {
	points repository.PointRepository
	sink   notify.Sink
	log    *slog.Logger
}

func NewPointEmitter(points repository.PointRepository, sink notify.Sink, log *slog.Logger) *PointEmitter {
	return &PointEmitter{points: points, sink: sink, log: log}
}

// Emit writes the point and the outcome together, then notifies. Notification failures are
// logged only.
func (e *PointEmitter) Emit(ctx context.Context, report WeeklyReport) (*model.Point, error) {
	point := &model.Point{
		StudentID: report.StudentID,
		Kind:      model.PointPenalty,
		Amount:    report.Goal.PenaltyPoints,
		IsAuto:    true,
	}
	verdict := "missed"
	if report.Achieved {
		point.Kind = model.PointReward
		point.Amount = report.Goal.RewardPoints
		verdict = "achieved"
	}
	point.Reason = fmt.Sprintf("Weekly goal %s for week of %s: studied %s of %s",
		verdict, report.WeekStart, hours(report.ActualMinutes), hours(report.Goal.GoalMinutes))

	outcome := &model.WeeklyPointOutcome{
		StudentID:         report.StudentID,
		WeekStart:         report.WeekStart,
		TotalStudyMinutes: report.ActualMinutes,
		GoalMinutes:       report.Goal.GoalMinutes,
		Achieved:          report.Achieved,
	}
	if err := e.points.RecordWeekly(ctx, point, outcome); err != nil {
		return nil, errors.Wrap(ErrPersistence, "record weekly outcome: "+err.Error())
	}

	title := "Weekly goal missed"
	message := fmt.Sprintf("You studied %s against a goal of %s. %d penalty points were recorded.",
		hours(report.ActualMinutes), hours(report.Goal.GoalMinutes), point.Amount)
	if report.Achieved {
		title = "Weekly goal achieved"
		message = fmt.Sprintf("You studied %s against a goal of %s. %d reward points were added.",
			hours(report.ActualMinutes), hours(report.Goal.GoalMinutes), point.Amount)
	}
	err := e.sink.Notify(ctx, notify.Message{
		StudentID: report.StudentID,
		Type:      NotificationWeeklyGoal,
		Title:     title,
		Message:   message,
		Link:      "/points",
	})
	if err != nil {
		e.log.WarnContext(ctx, "weekly goal notification", "student_id", report.StudentID, "err", err)
	}
	return point, nil
}

func hours(minutes int) string {
	return fmt.Sprintf("%.1fh", float64(minutes)/60)
}
