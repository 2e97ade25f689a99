package service

import (
	"context"
	"time"

	"eq-coach-be/internal/config"
	"eq-coach-be/internal/entity"
	"eq-coach-be/internal/pkg/logger"
	"eq-coach-be/internal/pkg/mailer"
	"eq-coach-be/internal/repository/specification"
	"eq-coach-be/internal/repository/unitofwork"
	"eq-coach-be/pkg/tier"
)

type ReminderReport struct {
	Scanned int `json:"scanned"`
	Sent    int `json:"sent"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

type IReminderService interface {
	RunBatch(ctx context.Context, now time.Time) (ReminderReport, error)
}

type reminderService struct {
	uowFactory unitofwork.RepositoryFactory
	mailer     mailer.IEmailService
	cfg        config.ReminderConfig
	logger     logger.ILogger
}

func NewReminderService(
	uowFactory unitofwork.RepositoryFactory,
	mailer mailer.IEmailService,
	cfg config.ReminderConfig,
	log logger.ILogger,
) IReminderService {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 200
	}
	return &reminderService{
		uowFactory: uowFactory,
		mailer:     mailer,
		cfg:        cfg,
		logger:     log,
	}
}

// RunBatch pages through opted-in profiles and emails the inactive ones.
// Only a failed page read aborts; per-profile failures are counted.
func (s *reminderService) RunBatch(ctx context.Context, now time.Time) (ReminderReport, error) {
	report := ReminderReport{}
	repo := s.uowFactory.NewUnitOfWork(ctx).ProfileRepository()

	for offset := 0; ; offset += s.cfg.BatchSize {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		profiles, err := repo.FindAll(ctx,
			specification.ReminderCandidates{},
			specification.OrderBy{Field: "created_at"},
			specification.OrderBy{Field: "id"},
			specification.Pagination{Limit: s.cfg.BatchSize, Offset: offset},
		)
		if err != nil {
			s.logger.Error("REMINDER", "Failed to load reminder candidates", map[string]interface{}{
				"offset": offset,
				"error":  err.Error(),
			})
			return report, err
		}

		for _, p := range profiles {
			report.Scanned++
			if !s.due(p, now) {
				report.Skipped++
				continue
			}
			if err := s.remind(ctx, p, now); err != nil {
				report.Failed++
				s.logger.Warn("REMINDER", "Reminder failed", map[string]interface{}{
					"user_id": p.Id.String(),
					"error":   err.Error(),
				})
				continue
			}
			report.Sent++
		}

		if len(profiles) < s.cfg.BatchSize {
			break
		}
	}

	s.logger.Info("REMINDER", "Reminder batch finished", map[string]interface{}{
		"scanned": report.Scanned,
		"sent":    report.Sent,
		"skipped": report.Skipped,
		"failed":  report.Failed,
	})
	return report, nil
}

func (s *reminderService) due(p *entity.Profile, now time.Time) bool {
	if p.LastActiveAt != nil && now.Sub(*p.LastActiveAt) < s.cfg.InactiveAfter {
		return false
	}
	if p.LastReminderAt != nil && now.Sub(*p.LastReminderAt) < s.cfg.Cooldown {
		return false
	}
	return true
}

func (s *reminderService) remind(ctx context.Context, p *entity.Profile, now time.Time) error {
	since := p.CreatedAt
	if p.LastActiveAt != nil {
		since = *p.LastActiveAt
	}

	err := s.mailer.SendReminder(mailer.ReminderEmail{
		ToEmail:  p.Email,
		FullName: p.FullName,
		DaysAway: int(now.Sub(since).Hours() / 24),
		Upsell:   tier.Parse(p.SubscriptionTier) == tier.Free,
	})
	if err != nil {
		return err
	}

	return s.uowFactory.NewUnitOfWork(ctx).ProfileRepository().UpdateFields(ctx, p.Id, map[string]interface{}{
		"last_reminder_at": now,
	})
}
