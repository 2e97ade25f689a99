package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"eq-coach-be/internal/constant"
	"eq-coach-be/internal/entity"
	"eq-coach-be/internal/pkg/logger"
	"eq-coach-be/internal/repository/unitofwork"
	"eq-coach-be/pkg/chat/buffer"
	"eq-coach-be/pkg/chat/persist"
	"eq-coach-be/pkg/store"
	"eq-coach-be/pkg/tier"

	"github.com/google/uuid"
)

// HistorySource is satisfied by *history.Loader.
type HistorySource interface {
	Load(ctx context.Context, userId uuid.UUID, t tier.Tier, sessionId string) []entity.ChatMessage
}

type Deps struct {
	History         HistorySource
	Local           store.KeyValue
	UowFactory      unitofwork.RepositoryFactory
	Logger          logger.ILogger
	PersistInterval time.Duration
	SnapshotTTL     time.Duration
}

// Session is the chat state of one authenticated user: tier, session id,
// buffer and the writer that flushes it. Close it on logout.
type Session struct {
	userId uuid.UUID

	mu        sync.RWMutex
	tier      tier.Tier
	sessionId string

	buffer  *buffer.Buffer
	writer  *persist.Writer
	history HistorySource

	loadMu  sync.Mutex
	loadSeq uint64
	loading atomic.Bool
}

func New(userId uuid.UUID, t tier.Tier, sessionId string, deps Deps) *Session {
	s := &Session{
		userId:    userId,
		tier:      t,
		sessionId: sessionId,
		buffer:    buffer.New(),
		history:   deps.History,
	}
	s.writer = persist.NewWriter(persist.Config{
		UserId:      userId,
		Interval:    deps.PersistInterval,
		SnapshotTTL: deps.SnapshotTTL,
		Source:      s.buffer.Snapshot,
		Key:         s.StorageKey,
	}, deps.Local, deps.UowFactory, deps.Logger)
	s.buffer.OnChange(s.changed)
	return s
}

func (s *Session) changed() {
	if s.loading.Load() {
		return
	}
	s.writer.Touch()
}

func (s *Session) UserId() uuid.UUID {
	return s.userId
}

func (s *Session) Tier() tier.Tier {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tier
}

func (s *Session) SessionId() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessionId
}

// StorageKey is the local snapshot key for the current tier and session.
func (s *Session) StorageKey() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return constant.ChatSnapshotKey(s.userId.String(), s.sessionId)
}

// Load replaces the buffer with the restored history. When a newer Load
// started in the meantime the result is dropped and ok is false.
func (s *Session) Load(ctx context.Context) (messages []entity.ChatMessage, ok bool) {
	s.loadMu.Lock()
	s.loadSeq++
	seq := s.loadSeq
	s.loading.Store(true)
	s.loadMu.Unlock()

	loaded := s.history.Load(ctx, s.userId, s.Tier(), s.SessionId())

	s.loadMu.Lock()
	defer s.loadMu.Unlock()
	if seq != s.loadSeq {
		return nil, false
	}
	s.buffer.Replace(loaded)
	s.loading.Store(false)
	return s.buffer.Snapshot(), true
}

// Loading reports whether a history load is in flight.
func (s *Session) Loading() bool {
	return s.loading.Load()
}

// Retier switches the session to a new tier and session id and reloads.
func (s *Session) Retier(ctx context.Context, t tier.Tier, sessionId string) []entity.ChatMessage {
	s.mu.Lock()
	s.tier = t
	s.sessionId = sessionId
	s.mu.Unlock()

	messages, _ := s.Load(ctx)
	return messages
}

func (s *Session) Append(role, content string) string {
	return s.buffer.Append(role, content)
}

func (s *Session) Push(msg entity.ChatMessage) {
	s.buffer.Push(msg)
}

func (s *Session) UpdateContent(id, content string) bool {
	return s.buffer.UpdateContent(id, content)
}

func (s *Session) Clear() {
	s.buffer.Clear()
}

func (s *Session) Messages() []entity.ChatMessage {
	return s.buffer.Snapshot()
}

func (s *Session) Last() (entity.ChatMessage, bool) {
	return s.buffer.Last()
}

// Flush persists immediately instead of waiting for the quiet period.
func (s *Session) Flush(ctx context.Context) error {
	return s.writer.Flush(ctx)
}

func (s *Session) PendingWrite() bool {
	return s.writer.Pending()
}

// Close cancels any pending write. The buffer stays readable.
func (s *Session) Close() {
	s.buffer.OnChange(nil)
	s.writer.Close()
}
