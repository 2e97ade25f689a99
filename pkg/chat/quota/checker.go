package quota

import (
	"fmt"
	"time"

	"eq-coach-be/internal/constant"
	"eq-coach-be/internal/entity"
	"eq-coach-be/pkg/notify"
	"eq-coach-be/pkg/tier"

	"github.com/google/uuid"
)

// Status is the quota view of a user's buffer for the current day.
type Status struct {
	Used      int       `json:"used"`
	Limit     int       `json:"limit"`
	Remaining int       `json:"remaining"`
	Exceeded  bool      `json:"exceeded"`
	ResetsAt  time.Time `json:"resets_at"`
}

// Checker gates sends on the daily cap of the user's tier.
// It only reads the messages it is given.
type Checker struct {
	notifier notify.Notifier
	now      func() time.Time
}

func NewChecker(notifier notify.Notifier) *Checker {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &Checker{
		notifier: notifier,
		now:      time.Now,
	}
}

// WithClock overrides the time source.
func (c *Checker) WithClock(now func() time.Time) *Checker {
	c.now = now
	return c
}

// CheckLimit reports whether the user already used today's cap, and tells
// them so when they did.
func (c *Checker) CheckLimit(userId uuid.UUID, messages []entity.ChatMessage, t tier.Tier) bool {
	status := c.Status(messages, t)
	if !status.Exceeded {
		return false
	}

	c.notifier.Notify(userId, notify.Toast{
		Severity: notify.SeverityWarning,
		Title:    "Daily limit reached",
		Message: fmt.Sprintf("You've reached your daily limit of %d messages on the %s plan. Come back tomorrow or upgrade for more.",
			status.Limit, planName(t)),
	})
	return true
}

func (c *Checker) Status(messages []entity.ChatMessage, t tier.Tier) Status {
	now := c.now()
	limit := tier.Of(t).DailyQuota
	used := CountToday(messages, now)

	remaining := limit - used
	if remaining < 0 {
		remaining = 0
	}

	return Status{
		Used:      used,
		Limit:     limit,
		Remaining: remaining,
		Exceeded:  used >= limit,
		ResetsAt:  time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, now.Location()),
	}
}

// CountToday counts user-authored messages created on now's calendar date,
// in now's location.
func CountToday(messages []entity.ChatMessage, now time.Time) int {
	count := 0
	for _, m := range messages {
		if m.Role != constant.ChatMessageRoleUser {
			continue
		}
		if SameDay(m.CreatedAt.In(now.Location()), now) {
			count++
		}
	}
	return count
}

// SameDay compares calendar dates, not a rolling 24 hour window.
func SameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

func planName(t tier.Tier) string {
	if !t.Known() {
		return string(tier.Free)
	}
	return string(t)
}
