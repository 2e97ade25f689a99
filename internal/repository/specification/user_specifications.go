package specification

import (
	"gorm.io/gorm"

	"github.com/google/uuid"
)

type UserOwnedBy struct {
	UserID uuid.UUID
}

func (s UserOwnedBy) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("user_id = ?", s.UserID)
}

// ReminderCandidates selects opted-in profiles with an email address.
type ReminderCandidates struct{}

func (s ReminderCandidates) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("reminders_opt_in = ? AND email <> ?", true, "")
}
