package specification

import (
	"time"

	"gorm.io/gorm"
)

type ByRole struct {
	Role string
}

func (s ByRole) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("role = ?", s.Role)
}

// CreatedBetween is inclusive of From and exclusive of To.
type CreatedBetween struct {
	From time.Time
	To   time.Time
}

func (s CreatedBetween) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("created_at >= ? AND created_at < ?", s.From, s.To)
}

type ByMemoryType struct {
	MemoryType string
}

func (s ByMemoryType) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("memory_type = ?", s.MemoryType)
}
