package entity

import (
	"time"

	"github.com/google/uuid"
)

type Profile struct {
	Id                   uuid.UUID
	Email                string
	FullName             string
	SubscriptionTier     string
	MemoryEnabled        bool
	SmartInsightsEnabled bool
	RemindersOptIn       bool
	LastActiveAt         *time.Time
	LastReminderAt       *time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
}
