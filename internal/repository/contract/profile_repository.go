package contract

import (
	"context"
	"time"

	"eq-coach-be/internal/entity"
	"eq-coach-be/internal/repository/specification"

	"github.com/google/uuid"
)

type ProfileRepository interface {
	Create(ctx context.Context, profile *entity.Profile) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Profile, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Profile, error)
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error
	TouchLastActive(ctx context.Context, id uuid.UUID, at time.Time) error
}
