package memory

import (
	"context"
	"fmt"
	"time"

	"eq-coach-be/internal/entity"
	"eq-coach-be/internal/pkg/logger"
	"eq-coach-be/internal/repository/specification"
	"eq-coach-be/internal/repository/unitofwork"
	"eq-coach-be/pkg/events"
	"eq-coach-be/pkg/notify"
	"eq-coach-be/pkg/tier"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

const managerModule = "MEMORY_MANAGER"

// State is the per-user view the settings screen renders.
type State struct {
	Tier                 tier.Tier          `json:"tier"`
	MemoryEnabled        bool               `json:"memory_enabled"`
	SmartInsightsEnabled bool               `json:"smart_insights_enabled"`
	Stats                entity.MemoryStats `json:"stats"`
}

type ArchiveInput struct {
	MemoryId   uuid.UUID
	Content    string
	MemoryType string
	Metadata   map[string]interface{}
}

// ClearReport counts what ClearAllMemories did before the bulk delete.
type ClearReport struct {
	Archived        int `json:"archived"`
	ArchiveFailures int `json:"archive_failures"`
	Deleted         int `json:"deleted"`
}

// Manager owns the memory toggles and the archive/clear/restore flows.
// No method returns an error or panics; results are Outcomes plus a toast.
type Manager struct {
	uowFactory unitofwork.RepositoryFactory
	backend    Backend
	notifier   notify.Notifier
	events     *events.Publisher
	logger     logger.ILogger
	states     *cache.Cache
}

func NewManager(
	uowFactory unitofwork.RepositoryFactory,
	backend Backend,
	notifier notify.Notifier,
	publisher *events.Publisher,
	log logger.ILogger,
) *Manager {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &Manager{
		uowFactory: uowFactory,
		backend:    backend,
		notifier:   notifier,
		events:     publisher,
		logger:     log,
		states:     cache.New(30*time.Minute, 10*time.Minute),
	}
}

func (m *Manager) loadProfile(ctx context.Context, userId uuid.UUID) (*entity.Profile, error) {
	uow := m.uowFactory.NewUnitOfWork(ctx)
	profile, err := uow.ProfileRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, ErrProfileNotFound
	}
	return profile, nil
}

func (m *Manager) cached(userId uuid.UUID) (State, bool) {
	if x, found := m.states.Get(userId.String()); found {
		return x.(State), true
	}
	return State{}, false
}

func (m *Manager) store(userId uuid.UUID, s State) {
	m.states.Set(userId.String(), s, cache.DefaultExpiration)
}

// State returns the flags from the profile and the cached stats, fetching
// stats on first use.
func (m *Manager) State(ctx context.Context, userId uuid.UUID) (State, Outcome) {
	profile, err := m.loadProfile(ctx, userId)
	if err != nil {
		m.logger.Error(managerModule, "Failed to load memory settings", map[string]interface{}{
			"user_id": userId.String(),
			"error":   err.Error(),
		})
		s, _ := m.cached(userId)
		return s, failed("could not load memory settings", err)
	}

	s, found := m.cached(userId)
	s.Tier = tier.Parse(profile.SubscriptionTier)
	s.MemoryEnabled = profile.MemoryEnabled
	s.SmartInsightsEnabled = profile.SmartInsightsEnabled
	m.store(userId, s)

	if !found {
		s.Stats = m.RefreshStats(ctx, userId)
	}
	return s, succeeded()
}

func (m *Manager) ToggleMemory(ctx context.Context, userId uuid.UUID, enabled bool) Outcome {
	return m.toggle(ctx, userId, enabled, toggleSpec{
		column:  "memory_enabled",
		label:   "Memory",
		allowed: func(c tier.Capabilities) bool { return c.MemoryAllowed },
		upsell:  "Memory is available on Basic, Trial and Premium plans.",
		apply:   func(s *State) { s.MemoryEnabled = enabled },
	})
}

func (m *Manager) ToggleSmartInsights(ctx context.Context, userId uuid.UUID, enabled bool) Outcome {
	return m.toggle(ctx, userId, enabled, toggleSpec{
		column:  "smart_insights_enabled",
		label:   "Smart insights",
		allowed: func(c tier.Capabilities) bool { return c.SmartInsightsAllowed },
		upsell:  "Smart insights are available on the Premium plan.",
		apply:   func(s *State) { s.SmartInsightsEnabled = enabled },
	})
}

type toggleSpec struct {
	column  string
	label   string
	allowed func(tier.Capabilities) bool
	upsell  string
	apply   func(*State)
}

func (m *Manager) toggle(ctx context.Context, userId uuid.UUID, enabled bool, spec toggleSpec) Outcome {
	profile, err := m.loadProfile(ctx, userId)
	if err != nil {
		m.notifier.Notify(userId, notify.Toast{
			Severity: notify.SeverityError,
			Title:    spec.label,
			Message:  "We couldn't update your settings. Please try again.",
		})
		return failed("could not load profile", err)
	}

	t := tier.Parse(profile.SubscriptionTier)
	// disabling is always allowed
	if enabled && !spec.allowed(tier.Of(t)) {
		m.notifier.Notify(userId, notify.Toast{
			Severity: notify.SeverityWarning,
			Title:    "Upgrade required",
			Message:  spec.upsell,
		})
		return rejected(fmt.Sprintf("%s is not available on the %s plan", spec.label, t))
	}

	uow := m.uowFactory.NewUnitOfWork(ctx)
	if err := uow.ProfileRepository().UpdateFields(ctx, userId, map[string]interface{}{spec.column: enabled}); err != nil {
		m.logger.Error(managerModule, "Failed to persist memory toggle", map[string]interface{}{
			"user_id": userId.String(),
			"column":  spec.column,
			"error":   err.Error(),
		})
		m.notifier.Notify(userId, notify.Toast{
			Severity: notify.SeverityError,
			Title:    spec.label,
			Message:  "We couldn't update your settings. Please try again.",
		})
		return failed("could not save setting", err)
	}

	s, _ := m.cached(userId)
	s.Tier = t
	s.MemoryEnabled = profile.MemoryEnabled
	s.SmartInsightsEnabled = profile.SmartInsightsEnabled
	spec.apply(&s)
	m.store(userId, s)

	state := "disabled"
	if enabled {
		state = "enabled"
	}
	m.notifier.Notify(userId, notify.Toast{
		Severity: notify.SeveritySuccess,
		Title:    spec.label,
		Message:  fmt.Sprintf("%s %s.", spec.label, state),
	})
	return succeeded()
}

// ArchiveMemory copies a memory into the archive. The active memory stays.
func (m *Manager) ArchiveMemory(ctx context.Context, userId uuid.UUID, input ArchiveInput) Outcome {
	if err := m.archive(ctx, userId, input); err != nil {
		m.logger.Error(managerModule, "Failed to archive memory", map[string]interface{}{
			"user_id":   userId.String(),
			"memory_id": input.MemoryId.String(),
			"error":     err.Error(),
		})
		m.notifier.Notify(userId, notify.Toast{
			Severity: notify.SeverityError,
			Title:    "Archive failed",
			Message:  "We couldn't archive that memory.",
		})
		return failed("could not archive memory", err)
	}

	m.notifier.Notify(userId, notify.Toast{
		Severity: notify.SeveritySuccess,
		Title:    "Memory archived",
		Message:  "You can restore it any time from your archive.",
	})
	return succeeded()
}

func (m *Manager) archive(ctx context.Context, userId uuid.UUID, input ArchiveInput) error {
	memoryType := input.MemoryType
	if memoryType == "" {
		memoryType = "message"
	}
	metadata := input.Metadata
	if metadata == nil {
		metadata = map[string]interface{}{}
	}

	uow := m.uowFactory.NewUnitOfWork(ctx)
	return uow.ArchivedMemoryRepository().Create(ctx, &entity.ArchivedMemory{
		Id:               uuid.New(),
		UserId:           userId,
		OriginalMemoryId: input.MemoryId,
		Content:          input.Content,
		MemoryType:       memoryType,
		Metadata:         metadata,
		ArchivedAt:       time.Now(),
	})
}

// ClearAllMemories optionally archives every active memory one by one, then
// bulk-deletes them. A failed archive is skipped; a failed fetch aborts
// before anything is deleted.
func (m *Manager) ClearAllMemories(ctx context.Context, userId uuid.UUID, archiveFirst bool) (ClearReport, Outcome) {
	report := ClearReport{}

	if archiveFirst {
		memories, err := m.backend.FetchMemories(ctx, userId)
		if err != nil {
			m.logger.Error(managerModule, "Failed to fetch memories for archiving", map[string]interface{}{
				"user_id": userId.String(),
				"error":   err.Error(),
			})
			m.notifier.Notify(userId, notify.Toast{
				Severity: notify.SeverityError,
				Title:    "Clear failed",
				Message:  "We couldn't archive your memories, so nothing was deleted.",
			})
			return report, failed("could not fetch memories", err)
		}

		for _, mem := range memories {
			err := m.archive(ctx, userId, ArchiveInput{
				MemoryId:   mem.Id,
				Content:    mem.Content,
				MemoryType: mem.MemoryType,
				Metadata:   mem.Metadata,
			})
			if err != nil {
				report.ArchiveFailures++
				m.logger.Warn(managerModule, "Skipping memory that failed to archive", map[string]interface{}{
					"user_id":   userId.String(),
					"memory_id": mem.Id.String(),
					"error":     err.Error(),
				})
				continue
			}
			report.Archived++
		}
	}

	deleted, err := m.backend.DeleteMemories(ctx, userId)
	if err != nil {
		m.logger.Error(managerModule, "Failed to delete memories", map[string]interface{}{
			"user_id": userId.String(),
			"error":   err.Error(),
		})
		m.notifier.Notify(userId, notify.Toast{
			Severity: notify.SeverityError,
			Title:    "Clear failed",
			Message:  "We couldn't clear your memories. Please try again.",
		})
		return report, failed("could not delete memories", err)
	}
	report.Deleted = deleted

	s, _ := m.cached(userId)
	s.Stats = entity.MemoryStats{}
	m.store(userId, s)

	m.events.PublishMemoryCleared(ctx, userId, report.Archived, report.ArchiveFailures)

	message := "All memories cleared."
	if archiveFirst {
		message = fmt.Sprintf("All memories cleared. %d archived.", report.Archived)
	}
	m.notifier.Notify(userId, notify.Toast{
		Severity: notify.SeveritySuccess,
		Title:    "Memories cleared",
		Message:  message,
	})
	return report, succeeded()
}

// RestoreArchived looks up an archive entry owned by the user and restores it.
func (m *Manager) RestoreArchived(ctx context.Context, userId, archivedId uuid.UUID) Outcome {
	archived, err := m.findArchived(ctx, userId, archivedId)
	if err != nil {
		return failed("archived memory unavailable", err)
	}
	return m.RestoreMemory(ctx, userId, *archived)
}

func (m *Manager) RestoreMemory(ctx context.Context, userId uuid.UUID, archived entity.ArchivedMemory) Outcome {
	if _, err := m.backend.RestoreMemory(ctx, userId, archived); err != nil {
		m.logger.Error(managerModule, "Failed to restore memory", map[string]interface{}{
			"user_id":     userId.String(),
			"archived_id": archived.Id.String(),
			"error":       err.Error(),
		})
		m.notifier.Notify(userId, notify.Toast{
			Severity: notify.SeverityError,
			Title:    "Restore failed",
			Message:  "We couldn't restore that memory.",
		})
		return failed("could not restore memory", err)
	}

	m.RefreshStats(ctx, userId)
	m.events.PublishMemoryRestored(ctx, userId, archived.Id)

	m.notifier.Notify(userId, notify.Toast{
		Severity: notify.SeveritySuccess,
		Title:    "Memory restored",
		Message:  "Your coach will remember this again.",
	})
	return succeeded()
}

// GetArchivedMemories lists the archive newest first. Failures yield an
// empty list.
func (m *Manager) GetArchivedMemories(ctx context.Context, userId uuid.UUID) []entity.ArchivedMemory {
	uow := m.uowFactory.NewUnitOfWork(ctx)
	rows, err := uow.ArchivedMemoryRepository().FindAll(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.OrderBy{Field: "archived_at", Desc: true},
	)
	if err != nil {
		m.logger.Error(managerModule, "Failed to list archived memories", map[string]interface{}{
			"user_id": userId.String(),
			"error":   err.Error(),
		})
		m.notifier.Notify(userId, notify.Toast{
			Severity: notify.SeverityError,
			Title:    "Archive unavailable",
			Message:  "We couldn't load your archived memories.",
		})
		return []entity.ArchivedMemory{}
	}

	result := make([]entity.ArchivedMemory, 0, len(rows))
	for _, r := range rows {
		result = append(result, *r)
	}
	return result
}

func (m *Manager) DeleteArchivedMemory(ctx context.Context, userId, archivedId uuid.UUID) Outcome {
	if _, err := m.findArchived(ctx, userId, archivedId); err != nil {
		return failed("archived memory unavailable", err)
	}

	uow := m.uowFactory.NewUnitOfWork(ctx)
	if err := uow.ArchivedMemoryRepository().Delete(ctx, archivedId); err != nil {
		m.logger.Error(managerModule, "Failed to delete archived memory", map[string]interface{}{
			"user_id":     userId.String(),
			"archived_id": archivedId.String(),
			"error":       err.Error(),
		})
		m.notifier.Notify(userId, notify.Toast{
			Severity: notify.SeverityError,
			Title:    "Delete failed",
			Message:  "We couldn't delete that archived memory.",
		})
		return failed("could not delete archived memory", err)
	}

	m.notifier.Notify(userId, notify.Toast{
		Severity: notify.SeverityInfo,
		Title:    "Archive updated",
		Message:  "The archived memory was permanently deleted.",
	})
	return succeeded()
}

func (m *Manager) findArchived(ctx context.Context, userId, archivedId uuid.UUID) (*entity.ArchivedMemory, error) {
	uow := m.uowFactory.NewUnitOfWork(ctx)
	archived, err := uow.ArchivedMemoryRepository().FindOne(ctx,
		specification.ByID{ID: archivedId},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		m.logger.Error(managerModule, "Failed to look up archived memory", map[string]interface{}{
			"user_id":     userId.String(),
			"archived_id": archivedId.String(),
			"error":       err.Error(),
		})
		return nil, err
	}
	if archived == nil {
		m.notifier.Notify(userId, notify.Toast{
			Severity: notify.SeverityWarning,
			Title:    "Not found",
			Message:  "That archived memory no longer exists.",
		})
		return nil, ErrNotFound
	}
	return archived, nil
}

// RefreshStats fetches fresh stats. On failure the previous stats are kept
// and returned without telling the user.
func (m *Manager) RefreshStats(ctx context.Context, userId uuid.UUID) entity.MemoryStats {
	s, _ := m.cached(userId)

	stats, err := m.backend.MemoryStats(ctx, userId)
	if err != nil || stats == nil {
		details := map[string]interface{}{"user_id": userId.String()}
		if err != nil {
			details["error"] = err.Error()
		}
		m.logger.Warn(managerModule, "Memory stats unavailable", details)
		return s.Stats
	}

	s.Stats = *stats
	m.store(userId, s)
	return s.Stats
}
