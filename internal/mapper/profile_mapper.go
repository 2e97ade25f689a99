package mapper

import (
	"eq-coach-be/internal/entity"
	"eq-coach-be/internal/model"
)

type ProfileMapper struct{}

func NewProfileMapper() *ProfileMapper {
	return &ProfileMapper{}
}

func (m *ProfileMapper) ToEntity(p *model.Profile) *entity.Profile {
	if p == nil {
		return nil
	}

	return &entity.Profile{
		Id:                   p.Id,
		Email:                p.Email,
		FullName:             p.FullName,
		SubscriptionTier:     p.SubscriptionTier,
		MemoryEnabled:        p.MemoryEnabled,
		SmartInsightsEnabled: p.SmartInsightsEnabled,
		RemindersOptIn:       p.RemindersOptIn,
		LastActiveAt:         p.LastActiveAt,
		LastReminderAt:       p.LastReminderAt,
		CreatedAt:            p.CreatedAt,
		UpdatedAt:            p.UpdatedAt,
	}
}

func (m *ProfileMapper) ToModel(p *entity.Profile) *model.Profile {
	if p == nil {
		return nil
	}

	return &model.Profile{
		Id:                   p.Id,
		Email:                p.Email,
		FullName:             p.FullName,
		SubscriptionTier:     p.SubscriptionTier,
		MemoryEnabled:        p.MemoryEnabled,
		SmartInsightsEnabled: p.SmartInsightsEnabled,
		RemindersOptIn:       p.RemindersOptIn,
		LastActiveAt:         p.LastActiveAt,
		LastReminderAt:       p.LastReminderAt,
		CreatedAt:            p.CreatedAt,
		UpdatedAt:            p.UpdatedAt,
	}
}
