package routes

import (
	"log/slog"

	"studyroom-backend/config"
	"studyroom-backend/internal/accessdb"
	"studyroom-backend/internal/notify"
	"studyroom-backend/internal/repository"
	"studyroom-backend/internal/studyday"
	"studyroom-backend/internal/studytime"
	"studyroom-backend/internal/usecase"

	"gopkg.in/gomail.v2"
	"gorm.io/gorm"
)

// Container holds the services shared by the HTTP routes and the in-process scheduler.
type Container struct {
	Config          config.Config
	Clock           *studyday.Clock
	Sync            *usecase.SyncUsecase
	Weekly          *usecase.WeeklyGoalUsecase
	Attendance      *usecase.AttendanceUsecase
	DateAssignments repository.DateAssignmentRepository
}

func NewContainer(db *gorm.DB, cfg config.Config, log *slog.Logger) *Container {
	clock := studyday.NewClock(cfg.Facility.UTCOffsetMinutes, cfg.Facility.FirstWeekday)

	eventRepo := repository.NewAttendanceRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	assignmentRepo := repository.NewDateAssignmentRepository(db)
	pointRepo := repository.NewPointRepository(db)

	sinks := []notify.Sink{notify.NewDBSink(repository.NewNotificationRepository(db))}
	if cfg.Mail.Enabled() {
		dialer := gomail.NewDialer(cfg.Mail.Host, cfg.Mail.Port, cfg.Mail.Username, cfg.Mail.Password)
		sinks = append(sinks, notify.NewMailSink(dialer, cfg.Mail.From, studentRepo))
	}

	aggregator := studytime.NewAggregator(eventRepo, clock)
	gates := usecase.NewGateClassifier(cfg.Access.InKeywords, cfg.Access.OutKeywords,
		usecase.ParseUnmatchedGatePolicy(cfg.Access.UnmatchedGatePolicy))

	return &Container{
		Config: cfg,
		Clock:  clock,
		Sync: usecase.NewSyncUsecase(
			accessdb.NewMySQLConnector(cfg.Access, clock),
			repository.NewSyncLogRepository(db),
			repository.NewLeaseRepository(db),
			repository.NewIdentityRepository(db),
			eventRepo,
			repository.NewSessionRepository(db),
			gates,
			clock,
			cfg.Jobs.LeaseTTL,
			log,
		),
		Weekly: usecase.NewWeeklyGoalUsecase(
			studentRepo,
			assignmentRepo,
			repository.NewGoalSettingRepository(db),
			pointRepo,
			aggregator,
			usecase.NewPointEmitter(pointRepo, notify.NewMulti(log, sinks...), log),
			clock,
			log,
		),
		Attendance:      usecase.NewAttendanceUsecase(eventRepo, studentRepo, aggregator, clock),
		DateAssignments: assignmentRepo,
	}
}
