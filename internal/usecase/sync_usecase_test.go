package usecase

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"studyroom-backend/internal/accessdb"
	"studyroom-backend/internal/model"
	"studyroom-backend/internal/repository/inmem"
	"studyroom-backend/internal/studyday"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	kst   = time.FixedZone("KST", 9*3600)
	quiet = slog.New(slog.NewTextHandler(io.Discard, nil))
)

type fakeSource struct {
	mu         sync.Mutex
	gates      []model.Gate
	records    []model.ExternalAccessRecord
	err        error
	ignoreMark bool
	watermarks []*string
	closed     int
}

func (f *fakeSource) ListGates(ctx context.Context) ([]model.Gate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.gates, nil
}

func (f *fakeSource) ListAccessRecordsAfter(ctx context.Context, watermark *string) ([]model.ExternalAccessRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.watermarks = append(f.watermarks, watermark)
	var out []model.ExternalAccessRecord
	for _, r := range f.records {
		if f.ignoreMark || watermark == nil || r.Stamp() > *watermark {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Stamp() < out[j].Stamp() })
	return out, nil
}

func (f *fakeSource) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
	return nil
}

type fakeConnector struct{ src *fakeSource }

func (c fakeConnector) Connect() accessdb.Source { return c.src }

var testGates = []model.Gate{
	{ID: 1, Name: "정문 입실"},
	{ID: 2, Name: "Exit B"},
	{ID: 3, Name: "Lobby"},
}

func rec(date, tm string, gate, user int) model.ExternalAccessRecord {
	return model.ExternalAccessRecord{DateStamp: date, TimeStamp: tm, GateID: gate, ExternalUserID: user}
}

type syncFixture struct {
	store   *inmem.Store
	src     *fakeSource
	sync    *SyncUsecase
	student model.Student
	now     time.Time
}

func newSyncFixture(t *testing.T, policy UnmatchedGatePolicy, records ...model.ExternalAccessRecord) *syncFixture {
	t.Helper()
	store := inmem.New()
	student := store.AddStudent(model.Student{Name: "Kim", IsActive: true})
	store.AddLink(student.ID, "1001", time.Date(2026, 3, 1, 0, 0, 0, 0, kst))

	src := &fakeSource{gates: testGates, records: records}
	clock := studyday.NewClock(9*60, time.Sunday)
	classifier := NewGateClassifier([]string{"입실", "entry"}, []string{"퇴실", "exit"}, policy)
	u := NewSyncUsecase(fakeConnector{src}, store, store, store, store, store, classifier, clock, time.Minute, quiet)
	now := time.Date(2026, 3, 10, 20, 0, 0, 0, kst)
	u.now = func() time.Time { return now }

	return &syncFixture{store: store, src: src, sync: u, student: student, now: now}
}

func TestSync_InsertsAndAdvancesWatermark(t *testing.T) {
	f := newSyncFixture(t, UnmatchedAsCheckIn,
		rec("20260310", "090000", 1, 1001),
		rec("20260310", "180000", 2, 1001),
	)

	summary := f.sync.Run(context.Background())

	assert.Equal(t, StatusSuccess, summary.Status)
	assert.Equal(t, 2, summary.Processed)
	assert.Equal(t, 2, summary.Succeeded)
	assert.Equal(t, 0, summary.Skipped)
	assert.Empty(t, summary.Errors)

	require.Len(t, f.store.Events, 2)
	assert.Equal(t, model.EventCheckIn, f.store.Events[0].Type)
	assert.Equal(t, model.EventCheckOut, f.store.Events[1].Type)
	assert.Equal(t, model.SourceExternalAccess, f.store.Events[0].Source)
	assert.True(t, f.store.Events[0].OccurredAt.Equal(time.Date(2026, 3, 10, 9, 0, 0, 0, kst)))

	require.Len(t, f.store.SyncLogs, 1)
	log := f.store.SyncLogs[0]
	assert.Equal(t, model.SyncSuccess, log.Status)
	assert.Equal(t, 2, log.RecordsSynced)
	require.NotNil(t, log.LastProcessedStamp)
	assert.Equal(t, "20260310180000", *log.LastProcessedStamp)

	assert.Nil(t, f.src.watermarks[0], "first run reads without watermark")
	assert.Equal(t, 1, f.src.closed)
}

func TestSync_RerunWithUnchangedSourceInsertsNothing(t *testing.T) {
	f := newSyncFixture(t, UnmatchedAsCheckIn,
		rec("20260310", "090000", 1, 1001),
		rec("20260310", "180000", 2, 1001),
	)
	first := f.sync.Run(context.Background())
	require.Equal(t, 2, first.Succeeded)

	second := f.sync.Run(context.Background())
	assert.Equal(t, StatusSuccess, second.Status)
	assert.Equal(t, 0, second.Processed)
	assert.Len(t, f.store.Events, 2)

	// the empty run keeps the previous watermark
	require.Len(t, f.store.SyncLogs, 2)
	assert.Equal(t, 0, f.store.SyncLogs[1].RecordsSynced)
	require.NotNil(t, f.store.SyncLogs[1].LastProcessedStamp)
	assert.Equal(t, "20260310180000", *f.store.SyncLogs[1].LastProcessedStamp)
	require.NotNil(t, f.src.watermarks[1])
	assert.Equal(t, "20260310180000", *f.src.watermarks[1])
}

func TestSync_RefetchedRecordsAreDeduplicated(t *testing.T) {
	f := newSyncFixture(t, UnmatchedAsCheckIn,
		rec("20260310", "090000", 1, 1001),
		rec("20260310", "180000", 2, 1001),
	)
	f.src.ignoreMark = true

	f.sync.Run(context.Background())
	second := f.sync.Run(context.Background())

	assert.Equal(t, StatusSuccess, second.Status)
	assert.Equal(t, 2, second.Processed)
	assert.Equal(t, 0, second.Succeeded)
	assert.Equal(t, 2, second.Skipped)
	assert.Len(t, f.store.Events, 2)
}

func TestSync_ConcurrentRunsInsertOnce(t *testing.T) {
	f := newSyncFixture(t, UnmatchedAsCheckIn, rec("20260310", "090000", 1, 1001))
	f.src.ignoreMark = true

	// a second run with its own lease table, so only item-level dedup protects the store
	other := *f.sync
	other.leases = inmem.New()

	var wg sync.WaitGroup
	summaries := make([]Summary, 2)
	for i, u := range []*SyncUsecase{f.sync, &other} {
		wg.Add(1)
		go func(i int, u *SyncUsecase) {
			defer wg.Done()
			summaries[i] = u.Run(context.Background())
		}(i, u)
	}
	wg.Wait()

	assert.Equal(t, 1, f.store.EventCount())
	assert.Equal(t, 1, summaries[0].Succeeded+summaries[1].Succeeded)
	assert.Equal(t, 1, summaries[0].Skipped+summaries[1].Skipped)
}

func TestSync_LeaseHeld(t *testing.T) {
	f := newSyncFixture(t, UnmatchedAsCheckIn, rec("20260310", "090000", 1, 1001))
	_, err := f.store.Acquire(context.Background(), SyncLeaseName, "someone-else", time.Hour, f.now)
	require.NoError(t, err)

	summary := f.sync.Run(context.Background())

	assert.Equal(t, StatusLocked, summary.Status)
	assert.Empty(t, f.store.Events)
	assert.Empty(t, f.store.SyncLogs)
	assert.Empty(t, f.src.watermarks)
}

func TestSync_ReleasesLease(t *testing.T) {
	f := newSyncFixture(t, UnmatchedAsCheckIn)
	f.sync.Run(context.Background())

	ok, err := f.store.Acquire(context.Background(), SyncLeaseName, "next", time.Minute, f.now)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSync_SkipReasons(t *testing.T) {
	f := newSyncFixture(t, UnmatchedAsCheckIn,
		rec("20260228", "100000", 1, 1001), // before approval
		rec("20260310", "090000", 1, 4242), // unknown identity
		rec("20260310", "100000", 1, 1001),
		rec("20260310", "100000", 2, 1001), // same student and instant
	)

	summary := f.sync.Run(context.Background())

	assert.Equal(t, StatusSuccess, summary.Status)
	assert.Equal(t, 4, summary.Processed)
	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, 3, summary.Skipped)
	require.Len(t, f.store.Events, 1)
	assert.Equal(t, model.EventCheckIn, f.store.Events[0].Type)

	// skipped records still advance the watermark
	assert.Equal(t, "20260310100000", *f.store.SyncLogs[0].LastProcessedStamp)
}

func TestSync_UnmatchedGatePolicy(t *testing.T) {
	t.Run("check_in", func(t *testing.T) {
		f := newSyncFixture(t, UnmatchedAsCheckIn, rec("20260310", "090000", 3, 1001))
		summary := f.sync.Run(context.Background())
		assert.Equal(t, 1, summary.Succeeded)
		require.Len(t, f.store.Events, 1)
		assert.Equal(t, model.EventCheckIn, f.store.Events[0].Type)
	})
	t.Run("skip", func(t *testing.T) {
		f := newSyncFixture(t, UnmatchedSkip, rec("20260310", "090000", 3, 1001))
		summary := f.sync.Run(context.Background())
		assert.Equal(t, 0, summary.Succeeded)
		assert.Equal(t, 1, summary.Skipped)
		assert.Empty(t, f.store.Events)
	})
}

func TestSync_MalformedStampIsReported(t *testing.T) {
	f := newSyncFixture(t, UnmatchedAsCheckIn,
		rec("20260310", "0900", 1, 1001),
		rec("20260310", "100000", 1, 1001),
	)

	summary := f.sync.Run(context.Background())

	assert.Equal(t, StatusPartial, summary.Status)
	assert.Equal(t, 1, summary.Succeeded)
	assert.Len(t, summary.Errors, 1)
}

func TestSync_ExternalFailureWritesErrorRow(t *testing.T) {
	f := newSyncFixture(t, UnmatchedAsCheckIn, rec("20260310", "090000", 1, 1001))
	require.NoError(t, f.store.Append(context.Background(), &model.SyncLog{
		LastProcessedStamp: strPtr("20260310080000"), Status: model.SyncSuccess, SyncedAt: f.now,
	}))
	f.src.err = errors.Wrap(ErrExternalSystemUnavailable, "dial tcp: refused")

	summary := f.sync.Run(context.Background())

	assert.Equal(t, StatusError, summary.Status)
	require.NotEmpty(t, summary.Errors)
	assert.Contains(t, summary.Errors[0], "unavailable")

	require.Len(t, f.store.SyncLogs, 2)
	failed := f.store.SyncLogs[1]
	assert.Equal(t, model.SyncError, failed.Status)
	assert.Nil(t, failed.LastProcessedStamp)
	assert.Equal(t, 0, failed.RecordsSynced)
	require.NotNil(t, failed.ErrorMessage)

	mark, err := f.store.LatestWatermark(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "20260310080000", *mark)
}

func TestSync_PersistenceFailureRetriesFromSameWatermark(t *testing.T) {
	f := newSyncFixture(t, UnmatchedAsCheckIn,
		rec("20260310", "090000", 1, 1001),
		rec("20260310", "180000", 2, 1001),
	)
	f.store.SetFail("attendance.create_batch", errors.New("deadlock"))

	summary := f.sync.Run(context.Background())
	assert.Equal(t, StatusError, summary.Status)
	assert.Equal(t, 0, summary.Succeeded)
	assert.Empty(t, f.store.Events)
	require.Len(t, f.store.SyncLogs, 1)
	assert.Equal(t, model.SyncError, f.store.SyncLogs[0].Status)

	f.store.SetFail("attendance.create_batch", nil)
	summary = f.sync.Run(context.Background())
	assert.Equal(t, StatusSuccess, summary.Status)
	assert.Equal(t, 2, summary.Succeeded)
	assert.Nil(t, f.src.watermarks[1], "retry starts from the same point")
}

func TestSync_ClosesOpenSessionsAtLatestCheckOut(t *testing.T) {
	f := newSyncFixture(t, UnmatchedAsCheckIn,
		rec("20260310", "090000", 1, 1001),
		rec("20260310", "120000", 2, 1001),
		rec("20260310", "130000", 1, 1001),
		rec("20260310", "180000", 2, 1001),
	)
	f.store.AddSession(f.student.ID, "math", time.Date(2026, 3, 10, 13, 5, 0, 0, kst))

	summary := f.sync.Run(context.Background())
	require.Equal(t, StatusSuccess, summary.Status)

	require.Len(t, f.store.Sessions, 1)
	require.NotNil(t, f.store.Sessions[0].EndedAt)
	assert.True(t, f.store.Sessions[0].EndedAt.Equal(time.Date(2026, 3, 10, 18, 0, 0, 0, kst)))
}

func TestGateClassifier(t *testing.T) {
	c := NewGateClassifier([]string{"입실", "Entry"}, []string{"퇴실", "exit"}, UnmatchedAsCheckIn)

	tests := []struct {
		gate    string
		want    model.EventType
		matched bool
	}{
		{gate: "1층 입실", want: model.EventCheckIn, matched: true},
		{gate: "1층 퇴실", want: model.EventCheckOut, matched: true},
		{gate: "MAIN ENTRY", want: model.EventCheckIn, matched: true},
		{gate: "Side EXIT", want: model.EventCheckOut, matched: true},
		{gate: "Lobby", want: model.EventCheckIn, matched: false},
		{gate: "", want: model.EventCheckIn, matched: false},
	}
	for _, tt := range tests {
		t.Run(tt.gate, func(t *testing.T) {
			typ, matched, keep := c.Classify(tt.gate)
			assert.Equal(t, tt.want, typ)
			assert.Equal(t, tt.matched, matched)
			assert.True(t, keep)
		})
	}

	assert.Equal(t, UnmatchedSkip, ParseUnmatchedGatePolicy(" SKIP "))
	assert.Equal(t, UnmatchedAsCheckIn, ParseUnmatchedGatePolicy("whatever"))
}

func strPtr(s string) *string { return &s }
