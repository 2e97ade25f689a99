package model

import (
	"time"

	"github.com/google/uuid"
)

type Profile struct {
	Id                   uuid.UUID `gorm:"type:uuid;primaryKey"`
	Email                string    `gorm:"type:varchar(255);index"`
	FullName             string    `gorm:"type:varchar(255)"`
	SubscriptionTier     string    `gorm:"type:varchar(20);not null;default:'free'"`
	MemoryEnabled        bool      `gorm:"not null;default:false"`
	SmartInsightsEnabled bool      `gorm:"not null;default:false"`
	RemindersOptIn       bool      `gorm:"not null;default:false"`
	LastActiveAt         *time.Time
	LastReminderAt       *time.Time
	CreatedAt            time.Time `gorm:"autoCreateTime"`
	UpdatedAt            time.Time `gorm:"autoUpdateTime"`
}

func (Profile) TableName() string {
	return "profiles"
}
