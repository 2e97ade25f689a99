package persist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"eq-coach-be/internal/entity"
	"eq-coach-be/internal/pkg/logger"
	"eq-coach-be/internal/repository/unitofwork"
	"eq-coach-be/pkg/store"

	"github.com/google/uuid"
)

const (
	writerModule    = "PERSIST_WRITER"
	DefaultInterval = time.Second
	flushTimeout    = 10 * time.Second
)

// ShouldPersistRemotely decides whether the newest buffer entry is upserted
// to the remote store. Only entries that already exist remotely qualify.
func ShouldPersistRemotely(msg entity.ChatMessage) bool {
	return msg.Persisted
}

type Config struct {
	UserId      uuid.UUID
	Interval    time.Duration
	SnapshotTTL time.Duration
	// Source returns the buffer contents at flush time.
	Source func() []entity.ChatMessage
	// Key returns the local snapshot key at flush time.
	Key func() string
	// Predicate defaults to ShouldPersistRemotely.
	Predicate func(entity.ChatMessage) bool
}

// Writer coalesces buffer mutations into one flush after a quiet period.
// Scheduling is trailing edge only; a burst that never pauses never flushes.
type Writer struct {
	cfg        Config
	local      store.KeyValue
	uowFactory unitofwork.RepositoryFactory
	logger     logger.ILogger

	mu     sync.Mutex
	timer  *time.Timer
	gen    uint64
	closed bool

	flushMu sync.Mutex
}

func NewWriter(cfg Config, local store.KeyValue, uowFactory unitofwork.RepositoryFactory, log logger.ILogger) *Writer {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Predicate == nil {
		cfg.Predicate = ShouldPersistRemotely
	}
	return &Writer{
		cfg:        cfg,
		local:      local,
		uowFactory: uowFactory,
		logger:     log,
	}
}

// Touch (re)starts the quiet-period timer.
func (w *Writer) Touch() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}
	w.gen++
	gen := w.gen
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.cfg.Interval, func() { w.fire(gen) })
}

// Pending reports whether a flush is scheduled.
func (w *Writer) Pending() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.timer != nil
}

// Close cancels the scheduled flush. Later Touch calls do nothing.
func (w *Writer) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.closed = true
	w.gen++
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}

func (w *Writer) fire(gen uint64) {
	w.mu.Lock()
	if w.closed || gen != w.gen {
		// superseded by a newer Touch, or closed after the timer already fired
		w.mu.Unlock()
		return
	}
	w.timer = nil
	w.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), flushTimeout)
	defer cancel()
	_ = w.Flush(ctx)
}

// Flush writes the full snapshot locally, then upserts the newest entry when
// the predicate accepts it. A remote failure never undoes the local write.
// Failures are logged and returned joined.
func (w *Writer) Flush(ctx context.Context) error {
	w.flushMu.Lock()
	defer w.flushMu.Unlock()

	snapshot := w.cfg.Source()
	key := w.cfg.Key()

	var localErr, remoteErr error

	payload, err := json.Marshal(snapshot)
	if err != nil {
		localErr = fmt.Errorf("encode snapshot: %w", err)
	} else if err := w.local.Set(ctx, key, string(payload), w.cfg.SnapshotTTL); err != nil {
		localErr = fmt.Errorf("write snapshot: %w", err)
	}
	if localErr != nil {
		w.logger.Warn(writerModule, "Local snapshot write failed", map[string]interface{}{
			"key":   key,
			"error": localErr.Error(),
		})
	}

	if len(snapshot) == 0 {
		return localErr
	}

	newest := snapshot[len(snapshot)-1]
	if !w.cfg.Predicate(newest) {
		return localErr
	}

	uow := w.uowFactory.NewUnitOfWork(ctx)
	if err := uow.ChatMessageRepository().Upsert(ctx, w.cfg.UserId, &newest); err != nil {
		remoteErr = fmt.Errorf("upsert message %s: %w", newest.Id, err)
		w.logger.Warn(writerModule, "Remote upsert failed", map[string]interface{}{
			"user_id":    w.cfg.UserId.String(),
			"message_id": newest.Id,
			"error":      err.Error(),
		})
	}

	return errors.Join(localErr, remoteErr)
}
