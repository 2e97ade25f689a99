// Package testutil holds helpers shared by repository-backed tests.
package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"eq-coach-be/internal/entity"
	"eq-coach-be/internal/model"
	"eq-coach-be/internal/repository/unitofwork"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type TestDB struct {
	DB      *gorm.DB
	SqlDB   *sql.DB
	Factory unitofwork.RepositoryFactory
}

// NewTestDB opens a private in-memory SQLite database with every model migrated.
// The pool is pinned to one connection so the in-memory database is shared.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&model.Profile{},
		&model.ChatMessage{},
		&model.Memory{},
		&model.ArchivedMemory{},
	))

	t.Cleanup(func() { _ = sqlDB.Close() })

	return &TestDB{
		DB:      db,
		SqlDB:   sqlDB,
		Factory: unitofwork.NewRepositoryFactory(db),
	}
}

// Break closes the underlying connection so every later query fails.
func (d *TestDB) Break() {
	_ = d.SqlDB.Close()
}

func (d *TestDB) SeedProfile(t *testing.T, tier string) *entity.Profile {
	t.Helper()

	p := &entity.Profile{
		Id:               uuid.New(),
		Email:            uuid.NewString()[:8] + "@example.com",
		FullName:         "Test User",
		SubscriptionTier: tier,
		RemindersOptIn:   true,
	}
	require.NoError(t, d.Factory.NewUnitOfWork(context.Background()).ProfileRepository().Create(context.Background(), p))
	return p
}

// SeedMessages writes count alternating user/assistant messages one second apart, oldest first.
func (d *TestDB) SeedMessages(t *testing.T, userId uuid.UUID, count int, start time.Time) []*entity.ChatMessage {
	t.Helper()

	repo := d.Factory.NewUnitOfWork(context.Background()).ChatMessageRepository()
	result := make([]*entity.ChatMessage, 0, count)
	for i := 0; i < count; i++ {
		role := "user"
		if i%2 == 1 {
			role = "assistant"
		}
		msg := &entity.ChatMessage{
			Id:        uuid.NewString(),
			Role:      role,
			Content:   fmt.Sprintf("message %d", i),
			CreatedAt: start.Add(time.Duration(i) * time.Second),
			Persisted: true,
		}
		require.NoError(t, repo.Create(context.Background(), userId, msg))
		result = append(result, msg)
	}
	return result
}
