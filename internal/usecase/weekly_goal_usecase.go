package usecase

import (
	"context"
	"log/slog"
	"time"

	"studyroom-backend/internal/metrics"
	"studyroom-backend/internal/model"
	"studyroom-backend/internal/repository"
	"studyroom-backend/internal/studyday"
	"studyroom-backend/internal/studytime"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// WeeklyReport is the evaluation of one student's week.
type WeeklyReport struct {
	StudentID     uint       `json:"student_id"`
	WeekStart     string     `json:"week_start"`
	Goal          WeeklyGoal `json:"goal"`
	ActualSeconds int64      `json:"actual_seconds"`
	ActualMinutes int        `json:"actual_minutes"`
	Achieved      bool       `json:"achieved"`
}

type WeeklyGoalUsecase struct {
	students    repository.StudentRepository
	assignments repository.DateAssignmentRepository
	settings    repository.GoalSettingRepository
	points      repository.PointRepository
	aggregator  *studytime.Aggregator
	emitter     *PointEmitter
	clock       *studyday.Clock
	log         *slog.Logger
	now         func() time.Time
}

func NewWeeklyGoalUsecase(
	students repository.StudentRepository,
	assignments repository.DateAssignmentRepository,
	settings repository.GoalSettingRepository,
	points repository.PointRepository,
	aggregator *studytime.Aggregator,
	emitter *PointEmitter,
	clock *studyday.Clock,
	log *slog.Logger,
) *WeeklyGoalUsecase {
	return &WeeklyGoalUsecase{
		students:    students,
		assignments: assignments,
		settings:    settings,
		points:      points,
		aggregator:  aggregator,
		emitter:     emitter,
		clock:       clock,
		log:         log.With("job", metrics.JobWeekly),
		now:         time.Now,
	}
}

// PreviousWeekStart is the first day of the last completed week.
func (u *WeeklyGoalUsecase) PreviousWeekStart() studyday.Date {
	return u.clock.WeekStartOf(u.now()).AddDays(-7)
}

// Run evaluates every eligible student for the week starting at weekStart. A zero weekStart
// means the previous completed week. One student's failure never stops the batch.
func (u *WeeklyGoalUsecase) Run(ctx context.Context, weekStart studyday.Date) (summary Summary) {
	started := time.Now()
	summary = newSummary()
	defer func() {
		metrics.JobRuns.WithLabelValues(metrics.JobWeekly, string(summary.Status)).Inc()
		metrics.JobDuration.WithLabelValues(metrics.JobWeekly).Observe(time.Since(started).Seconds())
		u.log.InfoContext(ctx, "weekly goals finished", "week_start", weekStart, "status", summary.Status,
			"processed", summary.Processed, "succeeded", summary.Succeeded, "skipped", summary.Skipped,
			"errors", len(summary.Errors))
	}()

	if weekStart.IsZero() {
		weekStart = u.PreviousWeekStart()
	}
	week := weekStart.String()

	students, err := u.students.ListEligible(ctx)
	if err != nil {
		u.log.ErrorContext(ctx, "list students", "err", err)
		summary.abort(errors.Wrap(ErrPersistence, "list students: "+err.Error()))
		return summary
	}

	now := u.now()
	for _, st := range students {
		summary.Processed++

		// 1. Idempotency
		exists, err := u.points.OutcomeExists(ctx, st.ID, week)
		if err != nil {
			u.studentFailed(ctx, &summary, st.ID, err)
			continue
		}
		if exists {
			summary.Skipped++
			continue
		}

		// 2-4. Goal and actual
		report, err := u.evaluate(ctx, st, weekStart, now)
		if err != nil {
			u.studentFailed(ctx, &summary, st.ID, err)
			continue
		}

		// 5. Emit
		if _, err := u.emitter.Emit(ctx, report); err != nil {
			// a concurrent run may have won the unique index
			if exists, _ := u.points.OutcomeExists(ctx, st.ID, week); exists {
				summary.Skipped++
				continue
			}
			u.studentFailed(ctx, &summary, st.ID, err)
			continue
		}
		summary.Succeeded++
		result := "missed"
		if report.Achieved {
			result = "achieved"
		}
		metrics.WeeklyOutcomes.WithLabelValues(result).Inc()
	}

	summary.finish()
	return summary
}

func (u *WeeklyGoalUsecase) studentFailed(ctx context.Context, summary *Summary, studentID uint, err error) {
	u.log.ErrorContext(ctx, "weekly goal failed", "student_id", studentID, "err", err)
	summary.addError("student %d: %v", studentID, err)
}

// Preview evaluates one student's week without writing anything.
func (u *WeeklyGoalUsecase) Preview(ctx context.Context, studentID uint, weekStart studyday.Date) (*WeeklyReport, error) {
	st, err := u.students.GetByID(ctx, studentID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrStudentNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "load student")
	}
	if st.StudentType == nil || st.Branch == nil {
		return nil, ErrStudentIneligible
	}
	if weekStart.IsZero() {
		weekStart = u.clock.WeekStartOf(u.now())
	}
	report, err := u.evaluate(ctx, *st, weekStart, u.now())
	if err != nil {
		return nil, err
	}
	return &report, nil
}

func (u *WeeklyGoalUsecase) evaluate(ctx context.Context, st model.Student, weekStart studyday.Date, now time.Time) (WeeklyReport, error) {
	if st.BranchID == nil || st.StudentType == nil {
		return WeeklyReport{}, ErrStudentIneligible
	}

	dates := u.clock.WeekDates(weekStart)
	keys := make([]string, len(dates))
	for i, d := range dates {
		keys[i] = d.String()
	}

	assignments, err := u.assignments.GetByBranchAndDates(ctx, *st.BranchID, keys)
	if err != nil {
		return WeeklyReport{}, errors.Wrap(ErrPersistence, "date assignments: "+err.Error())
	}
	settings, err := u.settings.GetByStudentType(ctx, st.StudentType.ID)
	if err != nil {
		return WeeklyReport{}, errors.Wrap(ErrPersistence, "goal settings: "+err.Error())
	}

	days := make([]DayGoal, len(keys))
	for i, key := range keys {
		a, ok := assignments[key]
		if !ok {
			continue
		}
		set, ok := settings[a.DateTypeID]
		if !ok {
			continue
		}
		days[i] = DayGoal{
			Assigned:        true,
			WeeklyGoalHours: set.WeeklyGoalHours,
			RewardPoints:    set.RewardPoints,
			PenaltyPoints:   set.PenaltyPoints,
		}
	}
	goal := ComputeWeeklyGoal(st.StudentType.DefaultGoalHours, days)

	secs, err := u.aggregator.WeekSeconds(ctx, st.ID, weekStart, now)
	if err != nil {
		return WeeklyReport{}, errors.Wrap(ErrPersistence, err.Error())
	}
	actualMinutes := int(secs / 60)

	return WeeklyReport{
		StudentID:     st.ID,
		WeekStart:     weekStart.String(),
		Goal:          goal,
		ActualSeconds: secs,
		ActualMinutes: actualMinutes,
		Achieved:      actualMinutes >= goal.GoalMinutes,
	}, nil
}
