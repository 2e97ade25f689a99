package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

type Memory struct {
	Id         uuid.UUID        `gorm:"type:uuid;primaryKey"`
	UserId     uuid.UUID        `gorm:"type:uuid;not null;index"`
	Content    string           `gorm:"type:text;not null"`
	MemoryType string           `gorm:"type:varchar(20);not null;default:'message'"`
	Metadata   datatypes.JSON   `gorm:"type:jsonb"`
	Embedding  *pgvector.Vector `gorm:"type:vector(768)"` // nomic-embed-text dimensions
	CreatedAt  time.Time        `gorm:"autoCreateTime"`
}

func (Memory) TableName() string {
	return "memories"
}

type ArchivedMemory struct {
	Id               uuid.UUID      `gorm:"type:uuid;primaryKey"`
	UserId           uuid.UUID      `gorm:"type:uuid;not null;index"`
	OriginalMemoryId uuid.UUID      `gorm:"type:uuid;not null;index"`
	Content          string         `gorm:"type:text;not null"`
	MemoryType       string         `gorm:"type:varchar(20);not null;default:'message'"`
	Metadata         datatypes.JSON `gorm:"type:jsonb"`
	ArchivedAt       time.Time      `gorm:"not null"`
}

func (ArchivedMemory) TableName() string {
	return "archived_memories"
}
