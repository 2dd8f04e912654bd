// Package inmem holds map-backed repositories with the same semantics as the gorm ones,
// including the unique constraints the engine relies on.
package inmem

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"studyroom-backend/internal/model"
	"studyroom-backend/internal/repository"

	"gorm.io/gorm"
)

var ErrDuplicate = errors.New("duplicate key")

// Store implements every repository interface over one mutex.
type Store struct {
	mu sync.RWMutex

	nextID uint

	Events      []model.AttendanceEvent
	SyncLogs    []model.SyncLog
	Leases      map[string]model.SyncLease
	Students    map[uint]model.Student
	Branches    map[uint]model.Branch
	Types       map[uint]model.StudentType
	Links       map[string]model.StudentIdentityLink
	Sessions    []model.StudySession
	Assignments map[uint]map[string]model.DateAssignment
	Settings    map[uint]map[uint]model.WeeklyGoalSetting
	Points      []model.Point
	Outcomes    []model.WeeklyPointOutcome
	Notes       []model.Notification

	// FailOn makes the named operation return this error, for failure-path tests.
	FailOn map[string]error
}

var (
	_ repository.AttendanceRepository     = (*Store)(nil)
	_ repository.SyncLogRepository        = (*Store)(nil)
	_ repository.LeaseRepository          = (*Store)(nil)
	_ repository.StudentRepository        = (*Store)(nil)
	_ repository.IdentityRepository       = (*Store)(nil)
	_ repository.SessionRepository        = (*Store)(nil)
	_ repository.DateAssignmentRepository = (*Store)(nil)
	_ repository.GoalSettingRepository    = (*Store)(nil)
	_ repository.PointRepository          = (*Store)(nil)
)

func New() *Store {
	return &Store{
		Leases:      make(map[string]model.SyncLease),
		Students:    make(map[uint]model.Student),
		Branches:    make(map[uint]model.Branch),
		Types:       make(map[uint]model.StudentType),
		Links:       make(map[string]model.StudentIdentityLink),
		Assignments: make(map[uint]map[string]model.DateAssignment),
		Settings:    make(map[uint]map[uint]model.WeeklyGoalSetting),
		FailOn:      make(map[string]error),
	}
}

func (s *Store) id() uint {
	s.nextID++
	return s.nextID
}

func (s *Store) fail(op string) error {
	return s.FailOn[op]
}

// ---- seeding helpers

func (s *Store) AddBranch(name string) model.Branch {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := model.Branch{Name: name}
	b.ID = s.id()
	s.Branches[b.ID] = b
	return b
}

func (s *Store) AddStudentType(name string, defaultGoalHours float64) model.StudentType {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := model.StudentType{Name: name, DefaultGoalHours: defaultGoalHours}
	t.ID = s.id()
	s.Types[t.ID] = t
	return t
}

func (s *Store) AddStudent(st model.Student) model.Student {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st.ID == 0 {
		st.ID = s.id()
	}
	s.Students[st.ID] = st
	return st
}

func (s *Store) AddLink(studentID uint, externalID string, approvedAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := model.StudentIdentityLink{StudentID: studentID, ExternalUserID: externalID, ApprovedAt: approvedAt}
	l.ID = s.id()
	s.Links[externalID] = l
}

func (s *Store) AddSetting(set model.WeeklyGoalSetting) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set.ID = s.id()
	if s.Settings[set.StudentTypeID] == nil {
		s.Settings[set.StudentTypeID] = make(map[uint]model.WeeklyGoalSetting)
	}
	s.Settings[set.StudentTypeID][set.DateTypeID] = set
}

func (s *Store) AddSession(studentID uint, subject string, startedAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Sessions = append(s.Sessions, model.StudySession{ID: s.id(), StudentID: studentID, Subject: subject, StartedAt: startedAt})
}

// ---- AttendanceRepository

func (s *Store) Create(ctx context.Context, event *model.AttendanceEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("attendance.create"); err != nil {
		return err
	}
	if event.ExternalKey != nil && s.hasExternalKey(*event.ExternalKey) {
		return ErrDuplicate
	}
	event.ID = s.id()
	event.CreatedAt = time.Now().UTC()
	s.Events = append(s.Events, *event)
	return nil
}

func (s *Store) hasExternalKey(key string) bool {
	for _, ev := range s.Events {
		if ev.ExternalKey != nil && *ev.ExternalKey == key {
			return true
		}
	}
	return false
}

func (s *Store) CreateBatch(ctx context.Context, events []model.AttendanceEvent) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("attendance.create_batch"); err != nil {
		return 0, err
	}
	var n int64
	for _, ev := range events {
		if ev.ExternalKey != nil && s.hasExternalKey(*ev.ExternalKey) {
			continue
		}
		ev.ID = s.id()
		ev.CreatedAt = time.Now().UTC()
		s.Events = append(s.Events, ev)
		n++
	}
	return n, nil
}

func (s *Store) ListByStudentBetween(ctx context.Context, studentID uint, from, to time.Time) ([]model.AttendanceEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.fail("attendance.list"); err != nil {
		return nil, err
	}
	var out []model.AttendanceEvent
	for _, ev := range s.Events {
		if ev.StudentID == studentID && !ev.OccurredAt.Before(from) && ev.OccurredAt.Before(to) {
			out = append(out, ev)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].OccurredAt.Equal(out[j].OccurredAt) {
			return out[i].OccurredAt.Before(out[j].OccurredAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) ListExternalBetween(ctx context.Context, studentIDs []uint, from, to time.Time) ([]model.AttendanceEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	want := make(map[uint]bool, len(studentIDs))
	for _, id := range studentIDs {
		want[id] = true
	}
	var out []model.AttendanceEvent
	for _, ev := range s.Events {
		if want[ev.StudentID] && ev.Source == model.SourceExternalAccess &&
			!ev.OccurredAt.Before(from) && !ev.OccurredAt.After(to) {
			out = append(out, ev)
		}
	}
	return out, nil
}

// ---- SyncLogRepository

func (s *Store) Append(ctx context.Context, log *model.SyncLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("sync.append"); err != nil {
		return err
	}
	log.ID = s.id()
	s.SyncLogs = append(s.SyncLogs, *log)
	return nil
}

func (s *Store) LatestWatermark(ctx context.Context) (*string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := len(s.SyncLogs) - 1; i >= 0; i-- {
		l := s.SyncLogs[i]
		if l.Status == model.SyncSuccess && l.LastProcessedStamp != nil {
			stamp := *l.LastProcessedStamp
			return &stamp, nil
		}
	}
	return nil, nil
}

func (s *Store) Recent(ctx context.Context, limit int) ([]model.SyncLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.SyncLog
	for i := len(s.SyncLogs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.SyncLogs[i])
	}
	return out, nil
}

// ---- LeaseRepository

func (s *Store) Acquire(ctx context.Context, name, holder string, ttl time.Duration, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok := s.Leases[name]; ok && l.Holder != holder && !l.ExpiresAt.Before(now) {
		return false, nil
	}
	s.Leases[name] = model.SyncLease{Name: name, Holder: holder, ExpiresAt: now.Add(ttl)}
	return true, nil
}

func (s *Store) Release(ctx context.Context, name, holder string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok := s.Leases[name]; ok && l.Holder == holder {
		l.ExpiresAt = time.Unix(0, 0).UTC()
		s.Leases[name] = l
	}
	return nil
}

func (s *Store) Get(ctx context.Context, name string) (*model.SyncLease, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.Leases[name]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &l, nil
}

// ---- StudentRepository / IdentityRepository

func (s *Store) GetByID(ctx context.Context, id uint) (*model.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.Students[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	s.attach(&st)
	return &st, nil
}

func (s *Store) attach(st *model.Student) {
	if st.BranchID != nil {
		if b, ok := s.Branches[*st.BranchID]; ok {
			st.Branch = &b
		}
	}
	if st.StudentTypeID != nil {
		if t, ok := s.Types[*st.StudentTypeID]; ok {
			st.StudentType = &t
		}
	}
}

func (s *Store) ListEligible(ctx context.Context) ([]model.Student, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.fail("student.list"); err != nil {
		return nil, err
	}
	var out []model.Student
	for _, st := range s.Students {
		if !st.IsActive {
			continue
		}
		s.attach(&st)
		if st.Branch == nil || st.StudentType == nil {
			continue
		}
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) FindByExternalUserIDs(ctx context.Context, externalIDs []string) (map[string]model.StudentIdentityLink, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.fail("identity.find"); err != nil {
		return nil, err
	}
	out := make(map[string]model.StudentIdentityLink)
	for _, id := range externalIDs {
		if l, ok := s.Links[id]; ok {
			out[id] = l
		}
	}
	return out, nil
}

// ---- SessionRepository

func (s *Store) CloseOpen(ctx context.Context, studentID uint, endedAt time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("session.close"); err != nil {
		return 0, err
	}
	var n int64
	for i := range s.Sessions {
		sess := &s.Sessions[i]
		if sess.StudentID == studentID && sess.EndedAt == nil && !sess.StartedAt.After(endedAt) {
			end := endedAt
			sess.EndedAt = &end
			n++
		}
	}
	return n, nil
}

// ---- DateAssignmentRepository / GoalSettingRepository

func (s *Store) GetByBranchAndDates(ctx context.Context, branchID uint, dates []string) (map[string]model.DateAssignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.fail("assignment.get"); err != nil {
		return nil, err
	}
	out := make(map[string]model.DateAssignment)
	for _, d := range dates {
		if a, ok := s.Assignments[branchID][d]; ok {
			out[d] = a
		}
	}
	return out, nil
}

func (s *Store) Upsert(ctx context.Context, a *model.DateAssignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Assignments[a.BranchID] == nil {
		s.Assignments[a.BranchID] = make(map[string]model.DateAssignment)
	}
	if prev, ok := s.Assignments[a.BranchID][a.Date]; ok {
		a.ID = prev.ID
	} else {
		a.ID = s.id()
	}
	s.Assignments[a.BranchID][a.Date] = *a
	return nil
}

func (s *Store) GetByStudentType(ctx context.Context, studentTypeID uint) (map[uint]model.WeeklyGoalSetting, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[uint]model.WeeklyGoalSetting)
	for k, v := range s.Settings[studentTypeID] {
		out[k] = v
	}
	return out, nil
}

// ---- PointRepository / NotificationRepository

func (s *Store) OutcomeExists(ctx context.Context, studentID uint, weekStart string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.fail("outcome.exists"); err != nil {
		return false, err
	}
	for _, o := range s.Outcomes {
		if o.StudentID == studentID && o.WeekStart == weekStart {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) RecordWeekly(ctx context.Context, point *model.Point, outcome *model.WeeklyPointOutcome) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("outcome.record"); err != nil {
		return err
	}
	for _, o := range s.Outcomes {
		if o.StudentID == outcome.StudentID && o.WeekStart == outcome.WeekStart {
			return ErrDuplicate
		}
	}
	point.ID = s.id()
	s.Points = append(s.Points, *point)
	outcome.ID = s.id()
	outcome.PointRecordID = point.ID
	s.Outcomes = append(s.Outcomes, *outcome)
	return nil
}

// Notifications exposes the notification table; Create is already taken by attendance events.
func (s *Store) Notifications() repository.NotificationRepository {
	return notificationStore{s}
}

type notificationStore struct{ s *Store }

func (n notificationStore) Create(ctx context.Context, note *model.Notification) error {
	n.s.mu.Lock()
	defer n.s.mu.Unlock()
	if err := n.s.fail("notification.create"); err != nil {
		return err
	}
	note.ID = n.s.id()
	note.CreatedAt = time.Now().UTC()
	n.s.Notes = append(n.s.Notes, *note)
	return nil
}

// Snapshot helpers, safe to call while jobs run.

func (s *Store) EventCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.Events)
}

func (s *Store) NotificationsFor(studentID uint) []model.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Notification
	for _, n := range s.Notes {
		if n.StudentID == studentID {
			out = append(out, n)
		}
	}
	return out
}

func (s *Store) SetFail(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.FailOn, op)
		return
	}
	s.FailOn[op] = err
}
