package implementation

import (
	"context"
	"errors"
	"time"

	"eq-coach-be/internal/entity"
	"eq-coach-be/internal/mapper"
	"eq-coach-be/internal/model"
	"eq-coach-be/internal/repository/contract"
	"eq-coach-be/internal/repository/specification"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type MemoryRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.MemoryMapper
}

func NewMemoryRepository(db *gorm.DB) contract.MemoryRepository {
	return &MemoryRepositoryImpl{
		db:     db,
		mapper: mapper.NewMemoryMapper(),
	}
}

func (r *MemoryRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *MemoryRepositoryImpl) Create(ctx context.Context, memory *entity.Memory) error {
	if memory.Id == uuid.Nil {
		memory.Id = uuid.New()
	}
	if memory.CreatedAt.IsZero() {
		memory.CreatedAt = time.Now()
	}
	m := r.mapper.MemoryToModel(memory)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*memory = *r.mapper.MemoryToEntity(m)
	return nil
}

func (r *MemoryRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Memory, error) {
	var m model.Memory
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.MemoryToEntity(&m), nil
}

func (r *MemoryRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Memory, error) {
	var models []*model.Memory
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.Memory, len(models))
	for i, m := range models {
		entities[i] = r.mapper.MemoryToEntity(m)
	}
	return entities, nil
}

func (r *MemoryRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	query := r.applySpecifications(r.db.WithContext(ctx).Model(&model.Memory{}), specs...)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *MemoryRepositoryImpl) DeleteAllByUserId(ctx context.Context, userId uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).Where("user_id = ?", userId).Delete(&model.Memory{})
	return result.RowsAffected, result.Error
}

func (r *MemoryRepositoryImpl) UpdateEmbedding(ctx context.Context, id uuid.UUID, embedding []float32) error {
	vec := pgvector.NewVector(embedding)
	return r.db.WithContext(ctx).Model(&model.Memory{}).Where("id = ?", id).Update("embedding", &vec).Error
}

type ArchivedMemoryRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.MemoryMapper
}

func NewArchivedMemoryRepository(db *gorm.DB) contract.ArchivedMemoryRepository {
	return &ArchivedMemoryRepositoryImpl{
		db:     db,
		mapper: mapper.NewMemoryMapper(),
	}
}

func (r *ArchivedMemoryRepositoryImpl) applySpecifications(db *gorm.DB, specs ...specification.Specification) *gorm.DB {
	for _, spec := range specs {
		db = spec.Apply(db)
	}
	return db
}

func (r *ArchivedMemoryRepositoryImpl) Create(ctx context.Context, archived *entity.ArchivedMemory) error {
	if archived.Id == uuid.Nil {
		archived.Id = uuid.New()
	}
	if archived.ArchivedAt.IsZero() {
		archived.ArchivedAt = time.Now()
	}
	m := r.mapper.ArchivedToModel(archived)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*archived = *r.mapper.ArchivedToEntity(m)
	return nil
}

func (r *ArchivedMemoryRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ArchivedMemory, error) {
	var m model.ArchivedMemory
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ArchivedToEntity(&m), nil
}

func (r *ArchivedMemoryRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ArchivedMemory, error) {
	var models []*model.ArchivedMemory
	query := r.applySpecifications(r.db.WithContext(ctx), specs...)
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}
	entities := make([]*entity.ArchivedMemory, len(models))
	for i, m := range models {
		entities[i] = r.mapper.ArchivedToEntity(m)
	}
	return entities, nil
}

func (r *ArchivedMemoryRepositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.ArchivedMemory{}, "id = ?", id).Error
}
