package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"studyroom-backend/internal/accessdb"
	"studyroom-backend/internal/metrics"
	"studyroom-backend/internal/model"
	"studyroom-backend/internal/repository"
	"studyroom-backend/internal/studyday"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

const SyncLeaseName = "access-sync"

// SyncUsecase reconciles the access-control system into canonical attendance events.
type SyncUsecase struct {
	access     accessdb.Connector
	syncLogs   repository.SyncLogRepository
	leases     repository.LeaseRepository
	identities repository.IdentityRepository
	events     repository.AttendanceRepository
	sessions   repository.SessionRepository
	gates      GateClassifier
	clock      *studyday.Clock
	leaseTTL   time.Duration
	log        *slog.Logger
	now        func() time.Time
}

func NewSyncUsecase(
	access accessdb.Connector,
	syncLogs repository.SyncLogRepository,
	leases repository.LeaseRepository,
	identities repository.IdentityRepository,
	events repository.AttendanceRepository,
	sessions repository.SessionRepository,
	gates GateClassifier,
	clock *studyday.Clock,
	leaseTTL time.Duration,
	log *slog.Logger,
) *SyncUsecase {
	return &SyncUsecase{
		access:     access,
		syncLogs:   syncLogs,
		leases:     leases,
		identities: identities,
		events:     events,
		sessions:   sessions,
		gates:      gates,
		clock:      clock,
		leaseTTL:   leaseTTL,
		log:        log.With("job", metrics.JobSync),
		now:        time.Now,
	}
}

// Run executes one reconciliation batch.
func (u *SyncUsecase) Run(ctx context.Context) (summary Summary) {
	started := time.Now()
	summary = newSummary()
	defer func() {
		metrics.JobRuns.WithLabelValues(metrics.JobSync, string(summary.Status)).Inc()
		metrics.JobDuration.WithLabelValues(metrics.JobSync).Observe(time.Since(started).Seconds())
		u.log.InfoContext(ctx, "sync finished", "status", summary.Status, "processed", summary.Processed,
			"succeeded", summary.Succeeded, "skipped", summary.Skipped, "errors", len(summary.Errors))
	}()

	// 0. Lease
	holder := uuid.NewString()
	acquired, err := u.leases.Acquire(ctx, SyncLeaseName, holder, u.leaseTTL, u.now())
	if err != nil {
		summary.abort(errors.Wrap(ErrPersistence, "acquire lease: "+err.Error()))
		return summary
	}
	if !acquired {
		summary.Status = StatusLocked
		summary.Errors = append(summary.Errors, ErrLeaseHeld.Error())
		return summary
	}
	defer func() {
		if err := u.leases.Release(context.WithoutCancel(ctx), SyncLeaseName, holder); err != nil {
			u.log.WarnContext(ctx, "release lease", "err", err)
		}
	}()

	// 1. Watermark
	watermark, err := u.syncLogs.LatestWatermark(ctx)
	if err != nil {
		u.fail(ctx, &summary, errors.Wrap(ErrPersistence, "read watermark: "+err.Error()))
		return summary
	}

	// 2. Fetch from the access-control system over a connection scoped to this batch
	src := u.access.Connect()
	defer func() {
		if err := src.Close(); err != nil {
			u.log.WarnContext(ctx, "close access connection", "err", err)
		}
	}()
	gates, err := src.ListGates(ctx)
	if err != nil {
		u.fail(ctx, &summary, err)
		return summary
	}
	records, err := src.ListAccessRecordsAfter(ctx, watermark)
	if err != nil {
		u.fail(ctx, &summary, err)
		return summary
	}
	summary.Processed = len(records)

	// 3. Nothing new: record the run and keep the previous watermark
	if len(records) == 0 {
		if err := u.appendLog(ctx, watermark, 0); err != nil {
			summary.abort(err)
			return summary
		}
		summary.finish()
		return summary
	}

	// 4-9. Reconcile
	inserted, err := u.reconcile(ctx, gates, records, &summary)
	if err != nil {
		u.fail(ctx, &summary, err)
		return summary
	}
	summary.Succeeded = int(inserted)
	metrics.EventsInserted.Add(float64(inserted))

	// 10. Advance
	maxStamp := records[0].Stamp()
	for _, r := range records[1:] {
		if s := r.Stamp(); s > maxStamp {
			maxStamp = s
		}
	}
	if err := u.appendLog(ctx, &maxStamp, int(inserted)); err != nil {
		summary.abort(err)
		return summary
	}
	summary.finish()
	return summary
}

type candidate struct {
	event model.AttendanceEvent
	key   string
}

func (u *SyncUsecase) reconcile(ctx context.Context, gates []model.Gate, records []model.ExternalAccessRecord, summary *Summary) (int64, error) {
	gateNames := make(map[int]string, len(gates))
	for _, g := range gates {
		gateNames[g.ID] = g.Name
	}

	externalIDs := make([]string, 0, len(records))
	for _, r := range records {
		externalIDs = append(externalIDs, strconv.Itoa(r.ExternalUserID))
	}
	links, err := u.identities.FindByExternalUserIDs(ctx, externalIDs)
	if err != nil {
		return 0, errors.Wrap(ErrPersistence, "resolve identities: "+err.Error())
	}

	skip := func(reason string) {
		summary.Skipped++
		metrics.RecordsSkipped.WithLabelValues(reason).Inc()
	}

	warnedGates := make(map[int]bool)
	seen := make(map[string]bool)
	var candidates []candidate
	for _, r := range records {
		link, ok := links[strconv.Itoa(r.ExternalUserID)]
		if !ok {
			skip("identity_unresolved")
			continue
		}

		typ, matched, keep := u.gates.Classify(gateNames[r.GateID])
		if !matched && !warnedGates[r.GateID] {
			warnedGates[r.GateID] = true
			u.log.WarnContext(ctx, "gate matches no direction keyword", "gate_id", r.GateID,
				"gate_name", gateNames[r.GateID], "as", typ, "kept", keep)
		}
		if !keep {
			skip("unmatched_gate")
			continue
		}

		occurredAt, err := u.clock.FromStamp(r.DateStamp, r.TimeStamp)
		if err != nil {
			skip("malformed_stamp")
			summary.addError("record %s of user %d: %v", r.Stamp(), r.ExternalUserID, err)
			continue
		}
		if occurredAt.Before(link.ApprovedAt) {
			skip("approval_boundary")
			continue
		}

		key := externalKey(link.StudentID, occurredAt)
		if seen[key] {
			skip("duplicate")
			continue
		}
		seen[key] = true
		candidates = append(candidates, candidate{
			key: key,
			event: model.AttendanceEvent{
				StudentID:  link.StudentID,
				Type:       typ,
				OccurredAt: occurredAt.UTC(),
				Source:     model.SourceExternalAccess,
			},
		})
	}
	if len(candidates) == 0 {
		return 0, nil
	}

	// 7. Dedup against events already ingested
	existing, err := u.existingKeys(ctx, candidates)
	if err != nil {
		return 0, err
	}
	survivors := make([]model.AttendanceEvent, 0, len(candidates))
	for _, c := range candidates {
		if existing[c.key] {
			skip("duplicate")
			continue
		}
		key := c.key
		c.event.ExternalKey = &key
		survivors = append(survivors, c.event)
	}
	if len(survivors) == 0 {
		return 0, nil
	}

	// 8. One batch insert; the unique external key drops rows a concurrent run already wrote
	inserted, err := u.events.CreateBatch(ctx, survivors)
	if err != nil {
		return 0, errors.Wrap(ErrPersistence, "insert events: "+err.Error())
	}
	if lost := len(survivors) - int(inserted); lost > 0 {
		summary.Skipped += lost
		metrics.RecordsSkipped.WithLabelValues("duplicate").Add(float64(lost))
	}

	// 9. Close open study sessions at each student's latest check-out
	lastOut := make(map[uint]time.Time)
	for _, ev := range survivors {
		if ev.Type == model.EventCheckOut && ev.OccurredAt.After(lastOut[ev.StudentID]) {
			lastOut[ev.StudentID] = ev.OccurredAt
		}
	}
	for studentID, endedAt := range lastOut {
		closed, err := u.sessions.CloseOpen(ctx, studentID, endedAt)
		if err != nil {
			return inserted, errors.Wrap(ErrPersistence, fmt.Sprintf("close sessions of student %d: %v", studentID, err))
		}
		if closed > 0 {
			u.log.DebugContext(ctx, "closed study sessions", "student_id", studentID, "count", closed)
		}
	}

	return inserted, nil
}

func (u *SyncUsecase) existingKeys(ctx context.Context, candidates []candidate) (map[string]bool, error) {
	ids := make(map[uint]bool)
	from, to := candidates[0].event.OccurredAt, candidates[0].event.OccurredAt
	for _, c := range candidates {
		ids[c.event.StudentID] = true
		if c.event.OccurredAt.Before(from) {
			from = c.event.OccurredAt
		}
		if c.event.OccurredAt.After(to) {
			to = c.event.OccurredAt
		}
	}
	studentIDs := make([]uint, 0, len(ids))
	for id := range ids {
		studentIDs = append(studentIDs, id)
	}

	events, err := u.events.ListExternalBetween(ctx, studentIDs, from, to)
	if err != nil {
		return nil, errors.Wrap(ErrPersistence, "load ingested events: "+err.Error())
	}
	keys := make(map[string]bool, len(events))
	for _, ev := range events {
		keys[externalKey(ev.StudentID, ev.OccurredAt)] = true
	}
	return keys, nil
}

// externalKey identifies an external event by (student, instant); source instants are stable.
func externalKey(studentID uint, at time.Time) string {
	return fmt.Sprintf("acs:%d:%d", studentID, at.Unix())
}

func (u *SyncUsecase) appendLog(ctx context.Context, stamp *string, count int) error {
	err := u.syncLogs.Append(ctx, &model.SyncLog{
		LastProcessedStamp: stamp,
		SyncedAt:           u.now().UTC(),
		RecordsSynced:      count,
		Status:             model.SyncSuccess,
	})
	if err != nil {
		return errors.Wrap(ErrPersistence, "append sync log: "+err.Error())
	}
	return nil
}

// fail records an error row that leaves the watermark where it was.
func (u *SyncUsecase) fail(ctx context.Context, summary *Summary, cause error) {
	u.log.ErrorContext(ctx, "sync failed", "err", cause)
	summary.Succeeded = 0
	summary.abort(cause)

	msg := cause.Error()
	err := u.syncLogs.Append(context.WithoutCancel(ctx), &model.SyncLog{
		SyncedAt:      u.now().UTC(),
		RecordsSynced: 0,
		Status:        model.SyncError,
		ErrorMessage:  &msg,
	})
	if err != nil {
		u.log.ErrorContext(ctx, "append error sync log", "err", err)
		summary.addError("append sync log: %v", err)
	}
}

// Status reports the recent sync history and the lease state.
func (u *SyncUsecase) Status(ctx context.Context, limit int) ([]model.SyncLog, *model.SyncLease, error) {
	logs, err := u.syncLogs.Recent(ctx, limit)
	if err != nil {
		return nil, nil, errors.Wrap(err, "recent sync logs")
	}
	lease, err := u.leases.Get(ctx, SyncLeaseName)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// no lease row until the first run
		return logs, nil, nil
	}
	if err != nil {
		return nil, nil, errors.Wrap(err, "sync lease")
	}
	return logs, lease, nil
}
