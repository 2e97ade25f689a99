package session

import (
	"context"
	"encoding/json"
	"sync"
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

// scriptedHistory answers the n-th Load from the n-th channel, so a test
// decides when each load completes.
type scriptedHistory struct {
	mu      sync.Mutex
	calls   []chan []entity.ChatMessage
	started int
}

func newScripted(n int) *scriptedHistory {
	h := &scriptedHistory{}
	for i := 0; i < n; i++ {
		h.calls = append(h.calls, make(chan []entity.ChatMessage, 1))
	}
	return h
}

// ready pre-answers every call.
func ready(results ...[]entity.ChatMessage) *scriptedHistory {
	h := newScripted(len(results))
	for i, r := range results {
		h.calls[i] <- r
	}
	return h
}

func (h *scriptedHistory) Load(context.Context, uuid.UUID, tier.Tier, string) []entity.ChatMessage {
	h.mu.Lock()
	ch := h.calls[h.started]
	h.started++
	h.mu.Unlock()
	return <-ch
}

func (h *scriptedHistory) inFlight() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.started
}

func newTestSession(t *testing.T, history HistorySource, tr tier.Tier, sessionId string) (*Session, store.KeyValue) {
	db := testutil.NewTestDB(t)
	local := store.NewCacheStore(time.Minute)
	s := New(uuid.New(), tr, sessionId, Deps{
		History:         history,
		Local:           local,
		UowFactory:      db.Factory,
		Logger:          logger.NewNopLogger(),
		PersistInterval: 20 * time.Millisecond,
	})
	t.Cleanup(s.Close)
	return s, local
}

func TestStaleLoadIsDiscarded(t *testing.T) {
	history := newScripted(2)
	s, _ := newTestSession(t, history, tier.Basic, "session_1")

	type result struct {
		msgs []entity.ChatMessage
		ok   bool
	}
	first := make(chan result, 1)
	go func() {
		msgs, ok := s.Load(context.Background())
		first <- result{msgs, ok}
	}()
	assert.Eventually(t, func() bool { return history.inFlight() == 1 }, time.Second, time.Millisecond)

	second := make(chan result, 1)
	go func() {
		msgs, ok := s.Load(context.Background())
		second <- result{msgs, ok}
	}()
	assert.Eventually(t, func() bool { return history.inFlight() == 2 }, time.Second, time.Millisecond)

	// the first load completes after the second one started
	history.calls[0] <- []entity.ChatMessage{{Id: "stale"}}
	r1 := <-first
	assert.False(t, r1.ok)
	assert.Empty(t, s.Messages())
	assert.True(t, s.Loading())

	history.calls[1] <- []entity.ChatMessage{{Id: "fresh-1"}, {Id: "fresh-2"}}
	r2 := <-second
	require.True(t, r2.ok)
	assert.Len(t, r2.msgs, 2)
	assert.Equal(t, "fresh-1", s.Messages()[0].Id)
	assert.False(t, s.Loading())
}

func TestLoadDoesNotTriggerWrite(t *testing.T) {
	s, _ := newTestSession(t, ready([]entity.ChatMessage{{Id: "a", Role: "user"}}), tier.Basic, "session_1")

	_, ok := s.Load(context.Background())
	require.True(t, ok)
	assert.False(t, s.PendingWrite())
}

func TestMutationsFlushSnapshotAfterQuietPeriod(t *testing.T) {
	s, local := newTestSession(t, ready(nil), tier.Free, "session_q")
	s.Load(context.Background())

	s.Append(constant.ChatMessageRoleUser, "How do I handle conflict at work?")
	id := s.Append(constant.ChatMessageRoleAssistant, "")
	s.UpdateContent(id, "Start by naming the feeling.")

	key := constant.ChatSnapshotKey(s.UserId().String(), "session_q")
	assert.Equal(t, key, s.StorageKey())
	assert.Eventually(t, func() bool {
		raw, found, _ := local.Get(context.Background(), key)
		if !found {
			return false
		}
		var msgs []entity.ChatMessage
		if json.Unmarshal([]byte(raw), &msgs) != nil || len(msgs) != 2 {
			return false
		}
		return msgs[1].Content == "Start by naming the feeling."
	}, time.Second, 5*time.Millisecond)
}

func TestPremiumSnapshotKeyedByUser(t *testing.T) {
	s, _ := newTestSession(t, newScripted(0), tier.Premium, "")
	assert.Equal(t, "chat_messages_"+s.UserId().String(), s.StorageKey())
}

func TestRetierSwitchesKeyAndReloads(t *testing.T) {
	s, _ := newTestSession(t, ready([]entity.ChatMessage{{Id: "premium-history"}}), tier.Basic, "session_b")

	msgs := s.Retier(context.Background(), tier.Premium, "")

	assert.Equal(t, tier.Premium, s.Tier())
	assert.Equal(t, "chat_messages_"+s.UserId().String(), s.StorageKey())
	require.Len(t, msgs, 1)
	assert.Equal(t, "premium-history", msgs[0].Id)
}

func TestCloseStopsWrites(t *testing.T) {
	s, local := newTestSession(t, ready(nil), tier.Free, "session_c")
	s.Load(context.Background())

	s.Append(constant.ChatMessageRoleUser, "bye")
	s.Close()
	time.Sleep(60 * time.Millisecond)

	_, found, _ := local.Get(context.Background(), s.StorageKey())
	assert.False(t, found)
}
