package buffer

import (
	"sync"
	"time"

	"eq-coach-be/internal/entity"

	"github.com/oklog/ulid/v2"
)

// Buffer is the ordered, in-memory conversation of one session.
// All operations are serialized; OnChange runs after every mutation,
// outside the lock.
type Buffer struct {
	mu       sync.Mutex
	messages []entity.ChatMessage
	now      func() time.Time
	onChange func()
}

func New() *Buffer {
	return &Buffer{
		messages: []entity.ChatMessage{},
		now:      time.Now,
	}
}

// OnChange registers the mutation hook. Passing nil removes it.
func (b *Buffer) OnChange(fn func()) {
	b.mu.Lock()
	b.onChange = fn
	b.mu.Unlock()
}

// Append creates a client-side message that does not exist remotely yet.
func (b *Buffer) Append(role, content string) string {
	now := b.now()
	msg := entity.ChatMessage{
		Id:        ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy()).String(),
		Role:      role,
		Content:   content,
		CreatedAt: now,
	}
	b.mutate(func() {
		b.messages = append(b.messages, msg)
	})
	return msg.Id
}

// Push appends a message that already carries its identity.
func (b *Buffer) Push(msg entity.ChatMessage) {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = b.now()
	}
	b.mutate(func() {
		b.messages = append(b.messages, msg)
	})
}

// UpdateContent replaces the content of the entry with id, keeping its position.
// It reports false, and changes nothing, when no entry matches.
func (b *Buffer) UpdateContent(id, content string) bool {
	b.mu.Lock()
	idx := -1
	for i := range b.messages {
		if b.messages[i].Id == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		b.mu.Unlock()
		return false
	}
	b.messages[idx].Content = content
	hook := b.onChange
	b.mu.Unlock()

	if hook != nil {
		hook()
	}
	return true
}

func (b *Buffer) Clear() {
	b.mutate(func() {
		b.messages = []entity.ChatMessage{}
	})
}

// Replace swaps the whole sequence, e.g. after a history load.
func (b *Buffer) Replace(messages []entity.ChatMessage) {
	cp := make([]entity.ChatMessage, len(messages))
	copy(cp, messages)
	b.mutate(func() {
		b.messages = cp
	})
}

func (b *Buffer) Snapshot() []entity.ChatMessage {
	b.mu.Lock()
	defer b.mu.Unlock()
	cp := make([]entity.ChatMessage, len(b.messages))
	copy(cp, b.messages)
	return cp
}

func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.messages)
}

// Last returns the newest entry.
func (b *Buffer) Last() (entity.ChatMessage, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.messages) == 0 {
		return entity.ChatMessage{}, false
	}
	return b.messages[len(b.messages)-1], true
}

func (b *Buffer) mutate(fn func()) {
	b.mu.Lock()
	fn()
	hook := b.onChange
	b.mu.Unlock()

	if hook != nil {
		hook()
	}
}
