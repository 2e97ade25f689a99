package history

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"eq-coach-be/internal/constant"
	"eq-coach-be/internal/entity"
	"eq-coach-be/internal/pkg/logger"
	"eq-coach-be/internal/testutil"
	"eq-coach-be/pkg/store"
	"eq-coach-be/pkg/tier"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type brokenKV struct{}

func (brokenKV) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("storage disabled")
}
func (brokenKV) Set(context.Context, string, string, time.Duration) error {
	return errors.New("storage disabled")
}
func (brokenKV) Delete(context.Context, string) error { return errors.New("storage disabled") }

func writeSnapshot(t *testing.T, kv store.KeyValue, key string, messages []entity.ChatMessage) {
	raw, err := json.Marshal(messages)
	require.NoError(t, err)
	require.NoError(t, kv.Set(context.Background(), key, string(raw), 0))
}

func TestLoadReturnsMostRecentWithinTierLimit(t *testing.T) {
	tests := []struct {
		tier  tier.Tier
		seed  int
		limit int
	}{
		{tier.Free, 45, 30},
		{tier.Basic, 60, 50},
		{tier.Premium, 120, 100},
		{tier.Trial, 10, 10},
	}

	for _, tt := range tests {
		t.Run(string(tt.tier), func(t *testing.T) {
			db := testutil.NewTestDB(t)
			userId := uuid.New()
			seeded := db.SeedMessages(t, userId, tt.seed, time.Now().Add(-24*time.Hour))
			loader := NewLoader(db.Factory, store.NewCacheStore(time.Minute), logger.NewNopLogger())

			got := loader.Load(context.Background(), userId, tt.tier, "session_x")

			require.Len(t, got, tt.limit)
			expected := seeded[len(seeded)-tt.limit:]
			for i := range got {
				assert.Equal(t, expected[i].Id, got[i].Id)
				assert.True(t, got[i].Persisted)
			}
			for i := 1; i < len(got); i++ {
				assert.False(t, got[i].CreatedAt.Before(got[i-1].CreatedAt))
			}
		})
	}
}

func TestLoadOnlyReturnsOwnMessages(t *testing.T) {
	db := testutil.NewTestDB(t)
	userId := uuid.New()
	db.SeedMessages(t, userId, 3, time.Now())
	db.SeedMessages(t, uuid.New(), 5, time.Now())
	loader := NewLoader(db.Factory, store.NewCacheStore(time.Minute), logger.NewNopLogger())

	assert.Len(t, loader.Load(context.Background(), userId, tier.Basic, "s"), 3)
}

func TestLoadFallsBackToSnapshotWhenRemoteFails(t *testing.T) {
	db := testutil.NewTestDB(t)
	userId := uuid.New()
	local := store.NewCacheStore(time.Minute)
	snapshot := []entity.ChatMessage{
		{Id: "m1", Role: "user", Content: "first"},
		{Id: "m2", Role: "assistant", Content: "second"},
		{Id: "m3", Role: "user", Content: "third"},
	}
	writeSnapshot(t, local, constant.ChatSnapshotKey(userId.String(), "session_abc"), snapshot)
	db.Break()

	got := NewLoader(db.Factory, local, logger.NewNopLogger()).Load(context.Background(), userId, tier.Basic, "session_abc")

	require.Len(t, got, 3)
	assert.Equal(t, "m1", got[0].Id)
	assert.Equal(t, "m2", got[1].Id)
	assert.Equal(t, "m3", got[2].Id)
}

func TestLoadFallsBackToSnapshotWhenRemoteEmpty(t *testing.T) {
	db := testutil.NewTestDB(t)
	userId := uuid.New()
	local := store.NewCacheStore(time.Minute)
	writeSnapshot(t, local, constant.ChatSnapshotKey(userId.String(), ""), []entity.ChatMessage{{Id: "only", Role: "user"}})

	got := NewLoader(db.Factory, local, logger.NewNopLogger()).Load(context.Background(), userId, tier.Premium, "")

	require.Len(t, got, 1)
	assert.Equal(t, "only", got[0].Id)
}

func TestLoadWrongSessionKeyFindsNothing(t *testing.T) {
	db := testutil.NewTestDB(t)
	userId := uuid.New()
	local := store.NewCacheStore(time.Minute)
	writeSnapshot(t, local, constant.ChatSnapshotKey(userId.String(), "session_old"), []entity.ChatMessage{{Id: "x"}})

	got := NewLoader(db.Factory, local, logger.NewNopLogger()).Load(context.Background(), userId, tier.Free, "session_new")
	assert.Empty(t, got)
	assert.NotNil(t, got)
}

func TestLoadCorruptSnapshotIsEmpty(t *testing.T) {
	db := testutil.NewTestDB(t)
	userId := uuid.New()
	local := store.NewCacheStore(time.Minute)
	require.NoError(t, local.Set(context.Background(), constant.ChatSnapshotKey(userId.String(), "s"), "{not json", 0))
	db.Break()

	got := NewLoader(db.Factory, local, logger.NewNopLogger()).Load(context.Background(), userId, tier.Free, "s")
	assert.Empty(t, got)
}

func TestLoadEverythingBrokenIsEmpty(t *testing.T) {
	db := testutil.NewTestDB(t)
	db.Break()

	got := NewLoader(db.Factory, brokenKV{}, logger.NewNopLogger()).Load(context.Background(), uuid.New(), tier.Free, "s")
	assert.Empty(t, got)
}
