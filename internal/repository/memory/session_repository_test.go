package memory

import (
	"context"
	"testing"
	"time"

	"eq-coach-be/internal/constant"
	"eq-coach-be/internal/entity"
	"eq-coach-be/internal/pkg/logger"
	"eq-coach-be/internal/testutil"
	"eq-coach-be/pkg/chat/session"
	"eq-coach-be/pkg/store"
	"eq-coach-be/pkg/tier"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type emptyHistory struct{}

func (emptyHistory) Load(context.Context, uuid.UUID, tier.Tier, string) []entity.ChatMessage {
	return nil
}

func buildSession(t *testing.T, userId uuid.UUID, local store.KeyValue) func() *session.Session {
	db := testutil.NewTestDB(t)
	return func() *session.Session {
		return session.New(userId, tier.Free, "session_repo", session.Deps{
			History:         emptyHistory{},
			Local:           local,
			UowFactory:      db.Factory,
			Logger:          logger.NewNopLogger(),
			PersistInterval: time.Hour,
		})
	}
}

func TestGetOrCreateBuildsOnce(t *testing.T) {
	repo := NewSessionRepository(time.Minute, logger.NewNopLogger())
	userId := uuid.New()
	build := buildSession(t, userId, store.NewCacheStore(time.Minute))

	first, created := repo.GetOrCreate(userId, build)
	require.True(t, created)

	second, created := repo.GetOrCreate(userId, build)
	assert.False(t, created)
	assert.Same(t, first, second)
	assert.Equal(t, 1, repo.Count())
}

func TestDeleteFlushesPendingWrite(t *testing.T) {
	repo := NewSessionRepository(time.Minute, logger.NewNopLogger())
	userId := uuid.New()
	local := store.NewCacheStore(time.Minute)

	s, _ := repo.GetOrCreate(userId, buildSession(t, userId, local))
	s.Load(context.Background())
	s.Append(constant.ChatMessageRoleUser, "I snapped at my sister today")
	require.True(t, s.PendingWrite())

	repo.Delete(userId)

	_, found := repo.Get(userId)
	assert.False(t, found)
	assert.False(t, s.PendingWrite())

	_, stored, err := local.Get(context.Background(), constant.ChatSnapshotKey(userId.String(), "session_repo"))
	require.NoError(t, err)
	assert.True(t, stored)
}

func TestGetOrCreateClosesExpiredSession(t *testing.T) {
	repo := NewSessionRepository(20*time.Millisecond, logger.NewNopLogger())
	userId := uuid.New()
	local := store.NewCacheStore(time.Minute)
	build := buildSession(t, userId, local)

	stale, _ := repo.GetOrCreate(userId, build)
	stale.Load(context.Background())
	stale.Append(constant.ChatMessageRoleUser, "Work has been overwhelming lately")
	require.True(t, stale.PendingWrite())

	// expired, but the janitor runs every ten minutes
	time.Sleep(40 * time.Millisecond)

	fresh, created := repo.GetOrCreate(userId, build)
	require.True(t, created)
	assert.NotSame(t, stale, fresh)
	assert.False(t, stale.PendingWrite())

	_, stored, err := local.Get(context.Background(), constant.ChatSnapshotKey(userId.String(), "session_repo"))
	require.NoError(t, err)
	assert.True(t, stored)

	stale.Append(constant.ChatMessageRoleUser, "late write")
	assert.False(t, stale.PendingWrite())
}
