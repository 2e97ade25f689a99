package memory

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"eq-coach-be/internal/entity"
	"eq-coach-be/internal/model"
	"eq-coach-be/internal/pkg/logger"
	"eq-coach-be/internal/repository/specification"
	"eq-coach-be/internal/testutil"
	"eq-coach-be/pkg/notify"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeBackend struct {
	mu         sync.Mutex
	memories   []entity.Memory
	stats      entity.MemoryStats
	fetchErr   error
	deleteErr  error
	restoreErr error
	statsErr   error
	calls      []string
	onDelete   func()
	restored   []entity.ArchivedMemory
}

func (f *fakeBackend) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeBackend) FetchMemories(context.Context, uuid.UUID) ([]entity.Memory, error) {
	f.record("fetch")
	return f.memories, f.fetchErr
}

func (f *fakeBackend) DeleteMemories(context.Context, uuid.UUID) (int, error) {
	f.record("delete")
	if f.onDelete != nil {
		f.onDelete()
	}
	if f.deleteErr != nil {
		return 0, f.deleteErr
	}
	return len(f.memories), nil
}

func (f *fakeBackend) RestoreMemory(_ context.Context, userId uuid.UUID, archived entity.ArchivedMemory) (*entity.Memory, error) {
	f.record("restore")
	if f.restoreErr != nil {
		return nil, f.restoreErr
	}
	f.restored = append(f.restored, archived)
	return &entity.Memory{Id: uuid.New(), UserId: userId, Content: archived.Content}, nil
}

func (f *fakeBackend) MemoryStats(context.Context, uuid.UUID) (*entity.MemoryStats, error) {
	f.record("stats")
	if f.statsErr != nil {
		return nil, f.statsErr
	}
	s := f.stats
	return &s, nil
}

type harness struct {
	db       *testutil.TestDB
	backend  *fakeBackend
	recorder *notify.Recorder
	manager  *Manager
	updates  *int32
}

func newHarness(t *testing.T) *harness {
	db := testutil.NewTestDB(t)
	var updates int32
	require.NoError(t, db.DB.Callback().Update().After("gorm:update").Register("test:count_updates", func(*gorm.DB) {
		atomic.AddInt32(&updates, 1)
	}))

	backend := &fakeBackend{}
	recorder := notify.NewRecorder()
	return &harness{
		db:       db,
		backend:  backend,
		recorder: recorder,
		manager:  NewManager(db.Factory, backend, recorder, nil, logger.NewNopLogger()),
		updates:  &updates,
	}
}

func (h *harness) profile(t *testing.T, id uuid.UUID) *entity.Profile {
	p, err := h.db.Factory.NewUnitOfWork(context.Background()).ProfileRepository().FindOne(context.Background(), specification.ByID{ID: id})
	require.NoError(t, err)
	require.NotNil(t, p)
	return p
}

func (h *harness) archivedCount(t *testing.T, userId uuid.UUID) int {
	rows, err := h.db.Factory.NewUnitOfWork(context.Background()).ArchivedMemoryRepository().
		FindAll(context.Background(), specification.UserOwnedBy{UserID: userId})
	require.NoError(t, err)
	return len(rows)
}

func TestToggleMemoryRejectedOnFreeTier(t *testing.T) {
	h := newHarness(t)
	p := h.db.SeedProfile(t, "free")

	outcome := h.manager.ToggleMemory(context.Background(), p.Id, true)

	assert.False(t, outcome.OK())
	assert.Equal(t, StatusRejected, outcome.Status)
	assert.Equal(t, int32(0), atomic.LoadInt32(h.updates))
	assert.False(t, h.profile(t, p.Id).MemoryEnabled)

	toast, ok := h.recorder.Last(p.Id)
	require.True(t, ok)
	assert.Equal(t, notify.SeverityWarning, toast.Severity)
}

func TestToggleMemoryAllowedTiers(t *testing.T) {
	for _, tr := range []string{"basic", "trial", "premium"} {
		t.Run(tr, func(t *testing.T) {
			h := newHarness(t)
			p := h.db.SeedProfile(t, tr)

			outcome := h.manager.ToggleMemory(context.Background(), p.Id, true)

			require.True(t, outcome.OK())
			assert.True(t, h.profile(t, p.Id).MemoryEnabled)

			state, stateOutcome := h.manager.State(context.Background(), p.Id)
			require.True(t, stateOutcome.OK())
			assert.True(t, state.MemoryEnabled)
		})
	}
}

func TestToggleMemoryOffAlwaysAllowed(t *testing.T) {
	h := newHarness(t)
	p := h.db.SeedProfile(t, "free")

	assert.True(t, h.manager.ToggleMemory(context.Background(), p.Id, false).OK())
}

func TestToggleSmartInsightsPremiumOnly(t *testing.T) {
	tests := []struct {
		tier    string
		allowed bool
	}{
		{"free", false},
		{"basic", false},
		{"trial", false},
		{"premium", true},
	}

	for _, tt := range tests {
		t.Run(tt.tier, func(t *testing.T) {
			h := newHarness(t)
			p := h.db.SeedProfile(t, tt.tier)

			outcome := h.manager.ToggleSmartInsights(context.Background(), p.Id, true)

			assert.Equal(t, tt.allowed, outcome.OK())
			assert.Equal(t, tt.allowed, h.profile(t, p.Id).SmartInsightsEnabled)
		})
	}
}

func TestToggleUnknownProfileFails(t *testing.T) {
	h := newHarness(t)

	outcome := h.manager.ToggleMemory(context.Background(), uuid.New(), true)
	assert.Equal(t, StatusFailed, outcome.Status)
	assert.ErrorIs(t, outcome.Err, ErrProfileNotFound)
}

func TestClearAllMemoriesArchivesBeforeDelete(t *testing.T) {
	h := newHarness(t)
	userId := h.db.SeedProfile(t, "basic").Id
	for i := 0; i < 4; i++ {
		h.backend.memories = append(h.backend.memories, entity.Memory{
			Id: uuid.New(), UserId: userId, Content: "remembered", MemoryType: "insight",
			Metadata: map[string]interface{}{"source": "chat"},
		})
	}
	archivedAtDelete := -1
	h.backend.onDelete = func() { archivedAtDelete = h.archivedCount(t, userId) }

	report, outcome := h.manager.ClearAllMemories(context.Background(), userId, true)

	require.True(t, outcome.OK())
	assert.Equal(t, 4, archivedAtDelete)
	assert.Equal(t, ClearReport{Archived: 4, Deleted: 4}, report)
	assert.Equal(t, []string{"fetch", "delete"}, h.backend.calls)

	state, _ := h.manager.State(context.Background(), userId)
	assert.Equal(t, entity.MemoryStats{}, state.Stats)

	archived := h.manager.GetArchivedMemories(context.Background(), userId)
	require.Len(t, archived, 4)
	assert.Equal(t, "insight", archived[0].MemoryType)
	assert.Equal(t, "chat", archived[0].Metadata["source"])
}

func TestClearAllMemoriesContinuesPastArchiveFailure(t *testing.T) {
	h := newHarness(t)
	userId := h.db.SeedProfile(t, "premium").Id
	require.NoError(t, h.db.DB.Callback().Create().Before("gorm:create").Register("test:reject_boom", func(tx *gorm.DB) {
		if a, ok := tx.Statement.Dest.(*model.ArchivedMemory); ok && a.Content == "boom" {
			_ = tx.AddError(errors.New("insert rejected"))
		}
	}))
	h.backend.memories = []entity.Memory{
		{Id: uuid.New(), Content: "first"},
		{Id: uuid.New(), Content: "boom"},
		{Id: uuid.New(), Content: "third"},
	}

	report, outcome := h.manager.ClearAllMemories(context.Background(), userId, true)

	require.True(t, outcome.OK())
	assert.Equal(t, 2, report.Archived)
	assert.Equal(t, 1, report.ArchiveFailures)
	assert.Equal(t, 2, h.archivedCount(t, userId))
	assert.Contains(t, h.backend.calls, "delete")
}

func TestClearAllMemoriesFetchFailureDeletesNothing(t *testing.T) {
	h := newHarness(t)
	userId := h.db.SeedProfile(t, "basic").Id
	h.backend.fetchErr = errors.New("function timeout")

	_, outcome := h.manager.ClearAllMemories(context.Background(), userId, true)

	assert.Equal(t, StatusFailed, outcome.Status)
	assert.NotContains(t, h.backend.calls, "delete")
	toast, _ := h.recorder.Last(userId)
	assert.Equal(t, notify.SeverityError, toast.Severity)
}

func TestClearAllMemoriesWithoutArchive(t *testing.T) {
	h := newHarness(t)
	userId := h.db.SeedProfile(t, "basic").Id
	h.backend.memories = []entity.Memory{{Id: uuid.New(), Content: "x"}}

	report, outcome := h.manager.ClearAllMemories(context.Background(), userId, false)

	require.True(t, outcome.OK())
	assert.Equal(t, []string{"delete"}, h.backend.calls)
	assert.Equal(t, 0, report.Archived)
	assert.Equal(t, 0, h.archivedCount(t, userId))
}

func TestClearAllMemoriesDeleteFailureKeepsStats(t *testing.T) {
	h := newHarness(t)
	userId := h.db.SeedProfile(t, "basic").Id
	h.backend.stats = entity.MemoryStats{TotalMemories: 7}
	h.manager.RefreshStats(context.Background(), userId)
	h.backend.deleteErr = errors.New("delete failed")

	_, outcome := h.manager.ClearAllMemories(context.Background(), userId, false)

	assert.Equal(t, StatusFailed, outcome.Status)
	h.backend.statsErr = errors.New("still down")
	assert.Equal(t, 7, h.manager.RefreshStats(context.Background(), userId).TotalMemories)
}

func TestArchiveMemoryKeepsOriginalId(t *testing.T) {
	h := newHarness(t)
	userId := h.db.SeedProfile(t, "basic").Id
	memoryId := uuid.New()

	outcome := h.manager.ArchiveMemory(context.Background(), userId, ArchiveInput{
		MemoryId: memoryId,
		Content:  "Prefers morning check-ins",
	})

	require.True(t, outcome.OK())
	archived := h.manager.GetArchivedMemories(context.Background(), userId)
	require.Len(t, archived, 1)
	assert.Equal(t, memoryId, archived[0].OriginalMemoryId)
	assert.Equal(t, "message", archived[0].MemoryType)
	assert.Equal(t, map[string]interface{}{}, archived[0].Metadata)
}

func TestRestoreKeepsArchiveEntry(t *testing.T) {
	h := newHarness(t)
	userId := h.db.SeedProfile(t, "premium").Id
	require.True(t, h.manager.ArchiveMemory(context.Background(), userId, ArchiveInput{MemoryId: uuid.New(), Content: "x"}).OK())
	archived := h.manager.GetArchivedMemories(context.Background(), userId)[0]
	h.backend.stats = entity.MemoryStats{TotalMemories: 1, MessageMemories: 1}

	outcome := h.manager.RestoreArchived(context.Background(), userId, archived.Id)

	require.True(t, outcome.OK())
	require.Len(t, h.backend.restored, 1)
	assert.Equal(t, archived.Id, h.backend.restored[0].Id)
	assert.Equal(t, []string{"restore", "stats"}, h.backend.calls)

	after := h.manager.GetArchivedMemories(context.Background(), userId)
	require.Len(t, after, 1)
	assert.Equal(t, archived.Id, after[0].Id)

	state, _ := h.manager.State(context.Background(), userId)
	assert.Equal(t, 1, state.Stats.TotalMemories)
}

func TestRestoreFailure(t *testing.T) {
	h := newHarness(t)
	userId := h.db.SeedProfile(t, "premium").Id
	h.backend.restoreErr = errors.New("function error")

	outcome := h.manager.RestoreMemory(context.Background(), userId, entity.ArchivedMemory{Id: uuid.New()})

	assert.Equal(t, StatusFailed, outcome.Status)
	assert.NotContains(t, h.backend.calls, "stats")
}

func TestArchivedMemoriesAreScopedToOwner(t *testing.T) {
	h := newHarness(t)
	owner := h.db.SeedProfile(t, "basic").Id
	other := h.db.SeedProfile(t, "basic").Id
	require.True(t, h.manager.ArchiveMemory(context.Background(), owner, ArchiveInput{MemoryId: uuid.New(), Content: "mine"}).OK())
	archived := h.manager.GetArchivedMemories(context.Background(), owner)[0]

	outcome := h.manager.DeleteArchivedMemory(context.Background(), other, archived.Id)
	assert.ErrorIs(t, outcome.Err, ErrNotFound)
	assert.Len(t, h.manager.GetArchivedMemories(context.Background(), owner), 1)

	assert.True(t, h.manager.DeleteArchivedMemory(context.Background(), owner, archived.Id).OK())
	assert.Empty(t, h.manager.GetArchivedMemories(context.Background(), owner))
}

func TestGetArchivedMemoriesNewestFirst(t *testing.T) {
	h := newHarness(t)
	userId := h.db.SeedProfile(t, "basic").Id
	repo := h.db.Factory.NewUnitOfWork(context.Background()).ArchivedMemoryRepository()
	base := time.Now().Add(-time.Hour)
	for i, content := range []string{"oldest", "middle", "newest"} {
		require.NoError(t, repo.Create(context.Background(), &entity.ArchivedMemory{
			UserId: userId, OriginalMemoryId: uuid.New(), Content: content, MemoryType: "message",
			ArchivedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	archived := h.manager.GetArchivedMemories(context.Background(), userId)
	require.Len(t, archived, 3)
	assert.Equal(t, "newest", archived[0].Content)
	assert.Equal(t, "oldest", archived[2].Content)
}

func TestGetArchivedMemoriesFailureIsEmpty(t *testing.T) {
	h := newHarness(t)
	userId := uuid.New()
	h.db.Break()

	assert.Empty(t, h.manager.GetArchivedMemories(context.Background(), userId))
	toast, ok := h.recorder.Last(userId)
	require.True(t, ok)
	assert.Equal(t, notify.SeverityError, toast.Severity)
}

func TestRefreshStatsSilentOnFailure(t *testing.T) {
	h := newHarness(t)
	userId := uuid.New()
	h.backend.statsErr = errors.New("stats down")

	stats := h.manager.RefreshStats(context.Background(), userId)
	assert.Equal(t, entity.MemoryStats{}, stats)
	assert.Empty(t, h.recorder.For(userId))
}
