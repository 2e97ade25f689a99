package notify

import (
	"sync"

	"github.com/google/uuid"
)

type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Toast is a short user-facing notification.
type Toast struct {
	Severity Severity `json:"severity"`
	Title    string   `json:"title"`
	Message  string   `json:"message"`
}

// Notifier delivers toasts to a user. Delivery is best effort.
type Notifier interface {
	Notify(userId uuid.UUID, toast Toast)
}

type Nop struct{}

func (Nop) Notify(uuid.UUID, Toast) {}

// Recorder keeps every toast in memory. Used by tests.
type Recorder struct {
	mu     sync.Mutex
	Toasts map[uuid.UUID][]Toast
}

func NewRecorder() *Recorder {
	return &Recorder{Toasts: make(map[uuid.UUID][]Toast)}
}

func (r *Recorder) Notify(userId uuid.UUID, toast Toast) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Toasts[userId] = append(r.Toasts[userId], toast)
}

func (r *Recorder) For(userId uuid.UUID) []Toast {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Toast(nil), r.Toasts[userId]...)
}

func (r *Recorder) Last(userId uuid.UUID) (Toast, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := r.Toasts[userId]
	if len(list) == 0 {
		return Toast{}, false
	}
	return list[len(list)-1], true
}
