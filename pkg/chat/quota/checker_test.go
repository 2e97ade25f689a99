package quota

import (
	"testing"
	"time"

	"eq-coach-be/internal/entity"
	"eq-coach-be/pkg/notify"
	"eq-coach-be/pkg/tier"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func userMessages(n int, at time.Time) []entity.ChatMessage {
	msgs := make([]entity.ChatMessage, 0, n*2)
	for i := 0; i < n; i++ {
		msgs = append(msgs,
			entity.ChatMessage{Id: uuid.NewString(), Role: "user", Content: "q", CreatedAt: at},
			entity.ChatMessage{Id: uuid.NewString(), Role: "assistant", Content: "a", CreatedAt: at},
		)
	}
	return msgs
}

func TestCheckLimitBoundaries(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.Local)

	tests := []struct {
		tier     tier.Tier
		count    int
		exceeded bool
	}{
		{tier.Free, 19, false},
		{tier.Free, 20, true},
		{tier.Basic, 49, false},
		{tier.Basic, 50, true},
		{tier.Premium, 199, false},
		{tier.Premium, 200, true},
		{tier.Trial, 29, false},
		{tier.Trial, 30, true},
		{tier.Tier("unknown"), 19, false},
		{tier.Tier("unknown"), 20, true},
	}

	for _, tt := range tests {
		checker := NewChecker(nil).WithClock(func() time.Time { return now })
		got := checker.CheckLimit(uuid.New(), userMessages(tt.count, now.Add(-time.Hour)), tt.tier)
		if got != tt.exceeded {
			t.Errorf("tier %s with %d messages: exceeded = %v, want %v", tt.tier, tt.count, got, tt.exceeded)
		}
	}
}

func TestCheckLimitNotifiesWithCapAndTier(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local)
	recorder := notify.NewRecorder()
	checker := NewChecker(recorder).WithClock(func() time.Time { return now })
	userId := uuid.New()

	assert.True(t, checker.CheckLimit(userId, userMessages(50, now), tier.Basic))

	toast, ok := recorder.Last(userId)
	require.True(t, ok)
	assert.Equal(t, notify.SeverityWarning, toast.Severity)
	assert.Contains(t, toast.Message, "50")
	assert.Contains(t, toast.Message, "basic")
}

func TestCheckLimitUnderCapDoesNotNotify(t *testing.T) {
	now := time.Now()
	recorder := notify.NewRecorder()
	userId := uuid.New()

	assert.False(t, NewChecker(recorder).CheckLimit(userId, userMessages(3, now), tier.Free))
	assert.Empty(t, recorder.For(userId))
}

func TestCountTodayUsesCalendarDay(t *testing.T) {
	now := time.Date(2026, 3, 10, 0, 30, 0, 0, time.Local)
	lateYesterday := time.Date(2026, 3, 9, 23, 45, 0, 0, time.Local)

	msgs := append(userMessages(5, lateYesterday), userMessages(2, now)...)
	assert.Equal(t, 2, CountToday(msgs, now))
}

func TestCountTodayIgnoresAssistantMessages(t *testing.T) {
	now := time.Now()
	msgs := []entity.ChatMessage{
		{Role: "assistant", CreatedAt: now},
		{Role: "assistant", CreatedAt: now},
		{Role: "user", CreatedAt: now},
	}
	assert.Equal(t, 1, CountToday(msgs, now))
}

func TestStatus(t *testing.T) {
	now := time.Date(2026, 3, 10, 18, 0, 0, 0, time.Local)
	checker := NewChecker(nil).WithClock(func() time.Time { return now })

	status := checker.Status(userMessages(12, now), tier.Free)
	assert.Equal(t, 12, status.Used)
	assert.Equal(t, 20, status.Limit)
	assert.Equal(t, 8, status.Remaining)
	assert.False(t, status.Exceeded)
	assert.Equal(t, time.Date(2026, 3, 11, 0, 0, 0, 0, time.Local), status.ResetsAt)
}
