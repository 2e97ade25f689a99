package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"eq-coach-be/internal/constant"
	"eq-coach-be/internal/dto"
	"eq-coach-be/internal/entity"
	"eq-coach-be/internal/pkg/logger"
	"eq-coach-be/internal/repository/memory"
	"eq-coach-be/internal/repository/specification"
	"eq-coach-be/internal/repository/unitofwork"
	"eq-coach-be/pkg/chat/quota"
	"eq-coach-be/pkg/chat/session"
	"eq-coach-be/pkg/events"
	"eq-coach-be/pkg/llm"
	"eq-coach-be/pkg/tier"

	"github.com/google/uuid"
)

var (
	ErrMessageNotFound = errors.New("message not found")
	ErrEmptyMessage    = errors.New("message content is empty")
)

// ChunkPusher streams partial replies to the user's open connections.
type ChunkPusher interface {
	PushChunk(userId uuid.UUID, frame dto.ChatChunkFrame)
}

type IChatService interface {
	LoadHistory(ctx context.Context, userId uuid.UUID) (*dto.ChatHistoryResponse, error)
	SendMessage(ctx context.Context, userId uuid.UUID, req *dto.SendMessageRequest) (*dto.SendMessageResponse, error)
	UpdateMessage(ctx context.Context, userId uuid.UUID, messageId string, req *dto.UpdateMessageRequest) error
	ClearMessages(ctx context.Context, userId uuid.UUID) error
	EndSession(ctx context.Context, userId uuid.UUID) error
	CheckMessageLimits(ctx context.Context, userId uuid.UUID) (*dto.ChatLimitResponse, error)
	GetUsageOverview(ctx context.Context, userId uuid.UUID) (*dto.UsageOverviewResponse, error)
}

type ChatServiceDeps struct {
	UowFactory   unitofwork.RepositoryFactory
	Sessions     *memory.SessionRepository
	SessionDeps  session.Deps
	Resolver     *session.Resolver
	Quota        *quota.Checker
	LLM          llm.LLMProvider
	Pusher       ChunkPusher
	Events       *events.Publisher
	Logger       logger.ILogger
	SystemPrompt string
}

type chatService struct {
	deps ChatServiceDeps
	now  func() time.Time
}

func NewChatService(deps ChatServiceDeps) IChatService {
	return &chatService{deps: deps, now: time.Now}
}

func (s *chatService) resolveTier(ctx context.Context, userId uuid.UUID) tier.Tier {
	uow := s.deps.UowFactory.NewUnitOfWork(ctx)
	profile, err := uow.ProfileRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		s.deps.Logger.Warn("CHAT_SERVICE", "Failed to load profile, treating as free tier", map[string]interface{}{
			"user_id": userId.String(),
			"error":   err.Error(),
		})
		return tier.Free
	}
	if profile == nil {
		return tier.Free
	}
	return tier.Parse(profile.SubscriptionTier)
}

// session returns the user's live session, loading history when it was just
// created or when the tier or session id changed underneath it. loaded
// reports whether that load happened in this call.
func (s *chatService) session(ctx context.Context, userId uuid.UUID) (sess *session.Session, loaded bool) {
	t := s.resolveTier(ctx, userId)
	sessionId, _ := s.deps.Resolver.Resolve(ctx, userId, t)

	sess, created := s.deps.Sessions.GetOrCreate(userId, func() *session.Session {
		return session.New(userId, t, sessionId, s.deps.SessionDeps)
	})
	switch {
	case created:
		sess.Load(ctx)
		return sess, true
	case sess.Tier() != t || sess.SessionId() != sessionId:
		s.deps.Logger.Info("CHAT_SERVICE", "Session keys changed, reloading", map[string]interface{}{
			"user_id":  userId.String(),
			"old_tier": sess.Tier().String(),
			"new_tier": t.String(),
		})
		sess.Retier(ctx, t, sessionId)
		return sess, true
	}
	return sess, false
}

func (s *chatService) LoadHistory(ctx context.Context, userId uuid.UUID) (*dto.ChatHistoryResponse, error) {
	sess, loaded := s.session(ctx, userId)
	var messages []entity.ChatMessage
	if loaded {
		messages = sess.Messages()
	} else {
		var ok bool
		if messages, ok = sess.Load(ctx); !ok {
			// a newer load owns the buffer; report what it produced
			messages = sess.Messages()
		}
	}

	return &dto.ChatHistoryResponse{
		SessionId: sess.SessionId(),
		Tier:      sess.Tier().String(),
		Messages:  messages,
	}, nil
}

func (s *chatService) SendMessage(ctx context.Context, userId uuid.UUID, req *dto.SendMessageRequest) (*dto.SendMessageResponse, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, ErrEmptyMessage
	}

	sess, _ := s.session(ctx, userId)
	t := sess.Tier()

	if s.deps.Quota.CheckLimit(userId, sess.Messages(), t) {
		status := s.deps.Quota.Status(sess.Messages(), t)
		s.deps.Events.PublishChatLimitReached(ctx, userId, t.String(), status.Limit, status.Used)
		return nil, &dto.LimitExceededError{
			Limit:      status.Limit,
			Used:       status.Used,
			Tier:       t.String(),
			ResetAfter: status.ResetsAt,
		}
	}

	sent := s.insert(ctx, sess, constant.ChatMessageRoleUser, content)
	prompt := s.buildPrompt(sess.Messages())
	reply := s.insert(ctx, sess, constant.ChatMessageRoleAssistant, "")

	var streamed strings.Builder
	full, err := s.deps.LLM.ChatStream(ctx, prompt, func(delta string) {
		streamed.WriteString(delta)
		sess.UpdateContent(reply.Id, streamed.String())
		if s.deps.Pusher != nil {
			s.deps.Pusher.PushChunk(userId, dto.ChatChunkFrame{MessageId: reply.Id, Content: delta})
		}
	})
	if err != nil || strings.TrimSpace(full) == "" {
		details := map[string]interface{}{"user_id": userId.String()}
		if err != nil {
			details["error"] = err.Error()
		}
		s.deps.Logger.Error("CHAT_SERVICE", "Completion failed, using fallback reply", details)
		full = constant.ChatCompletionFallback
	}
	sess.UpdateContent(reply.Id, full)
	reply.Content = full

	if s.deps.Pusher != nil {
		s.deps.Pusher.PushChunk(userId, dto.ChatChunkFrame{MessageId: reply.Id, Content: full, Done: true})
	}

	uow := s.deps.UowFactory.NewUnitOfWork(ctx)
	if err := uow.ProfileRepository().TouchLastActive(ctx, userId, s.now()); err != nil {
		s.deps.Logger.Warn("CHAT_SERVICE", "Failed to update last activity", map[string]interface{}{
			"user_id": userId.String(),
			"error":   err.Error(),
		})
	}

	return &dto.SendMessageResponse{Sent: sent, Reply: reply}, nil
}

// insert writes the message remotely and pushes it with its server identity.
// When the write fails the message stays client-side only.
func (s *chatService) insert(ctx context.Context, sess *session.Session, role, content string) entity.ChatMessage {
	msg := entity.ChatMessage{
		Id:        uuid.NewString(),
		Role:      role,
		Content:   content,
		CreatedAt: s.now(),
		Persisted: true,
	}

	uow := s.deps.UowFactory.NewUnitOfWork(ctx)
	if err := uow.ChatMessageRepository().Create(ctx, sess.UserId(), &msg); err != nil {
		s.deps.Logger.Warn("CHAT_SERVICE", "Failed to persist message, keeping it locally", map[string]interface{}{
			"user_id": sess.UserId().String(),
			"role":    role,
			"error":   err.Error(),
		})
		id := sess.Append(role, content)
		last, _ := sess.Last()
		if last.Id == id {
			return last
		}
		return entity.ChatMessage{Id: id, Role: role, Content: content, CreatedAt: s.now()}
	}

	sess.Push(msg)
	return msg
}

func (s *chatService) buildPrompt(messages []entity.ChatMessage) []llm.Message {
	if window := tier.Of(tier.Premium).HistoryLimit; len(messages) > window {
		messages = messages[len(messages)-window:]
	}

	prompt := make([]llm.Message, 0, len(messages)+1)
	if s.deps.SystemPrompt != "" {
		prompt = append(prompt, llm.Message{Role: constant.ChatMessageRoleSystem, Content: s.deps.SystemPrompt})
	}
	for _, m := range messages {
		if m.Content == "" {
			continue
		}
		prompt = append(prompt, llm.Message{Role: m.Role, Content: m.Content})
	}
	return prompt
}

func (s *chatService) UpdateMessage(ctx context.Context, userId uuid.UUID, messageId string, req *dto.UpdateMessageRequest) error {
	sess, _ := s.session(ctx, userId)
	if !sess.UpdateContent(messageId, req.Content) {
		return ErrMessageNotFound
	}
	return nil
}

func (s *chatService) ClearMessages(ctx context.Context, userId uuid.UUID) error {
	sess, _ := s.session(ctx, userId)
	sess.Clear()
	return nil
}

// EndSession drops the live session. Non-premium users also lose the
// session-scoped snapshot and identifier; premium snapshots are flushed and kept.
func (s *chatService) EndSession(ctx context.Context, userId uuid.UUID) error {
	t := s.resolveTier(ctx, userId)
	persistent := tier.Of(t).PersistentSession

	if sess, ok := s.deps.Sessions.Get(userId); ok {
		if persistent && sess.PendingWrite() {
			if err := sess.Flush(ctx); err != nil {
				s.deps.Logger.Warn("CHAT_SERVICE", "Flush on logout failed", map[string]interface{}{
					"user_id": userId.String(),
					"error":   err.Error(),
				})
			}
		}
		sess.Close()
		s.deps.Sessions.Delete(userId)
	}

	if persistent {
		return nil
	}

	sessionId, _ := s.deps.Resolver.Resolve(ctx, userId, t)
	if err := s.deps.SessionDeps.Local.Delete(ctx, constant.ChatSnapshotKey(userId.String(), sessionId)); err != nil {
		s.deps.Logger.Warn("CHAT_SERVICE", "Failed to delete session snapshot", map[string]interface{}{
			"user_id": userId.String(),
			"error":   err.Error(),
		})
	}
	s.deps.Resolver.Forget(ctx, userId)
	return nil
}

func (s *chatService) CheckMessageLimits(ctx context.Context, userId uuid.UUID) (*dto.ChatLimitResponse, error) {
	sess, _ := s.session(ctx, userId)
	status := s.deps.Quota.Status(sess.Messages(), sess.Tier())
	return &dto.ChatLimitResponse{
		Tier:      sess.Tier().String(),
		Used:      status.Used,
		Limit:     status.Limit,
		Remaining: status.Remaining,
		Exceeded:  status.Exceeded,
		ResetsAt:  status.ResetsAt,
	}, nil
}

// GetUsageOverview issues its three reads concurrently. A failed read leaves
// its field empty instead of failing the request.
func (s *chatService) GetUsageOverview(ctx context.Context, userId uuid.UUID) (*dto.UsageOverviewResponse, error) {
	now := s.now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	endOfDay := startOfDay.AddDate(0, 0, 1)
	weekStart := startOfDay.AddDate(0, 0, -6)

	res := &dto.UsageOverviewResponse{}
	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		uow := s.deps.UowFactory.NewUnitOfWork(ctx)
		count, err := uow.ChatMessageRepository().Count(ctx,
			specification.UserOwnedBy{UserID: userId},
			specification.ByRole{Role: constant.ChatMessageRoleUser},
			specification.CreatedBetween{From: startOfDay, To: endOfDay},
		)
		if err != nil {
			s.logUsageFailure(userId, "messages_today", err)
			return
		}
		c := int(count)
		res.MessagesToday = &c
	}()

	go func() {
		defer wg.Done()
		uow := s.deps.UowFactory.NewUnitOfWork(ctx)
		profile, err := uow.ProfileRepository().FindOne(ctx, specification.ByID{ID: userId})
		if err != nil {
			s.logUsageFailure(userId, "last_active_at", err)
			return
		}
		if profile != nil {
			res.LastActiveAt = profile.LastActiveAt
		}
	}()

	go func() {
		defer wg.Done()
		uow := s.deps.UowFactory.NewUnitOfWork(ctx)
		messages, err := uow.ChatMessageRepository().FindAll(ctx,
			specification.UserOwnedBy{UserID: userId},
			specification.ByRole{Role: constant.ChatMessageRoleUser},
			specification.CreatedBetween{From: weekStart, To: endOfDay},
		)
		if err != nil {
			s.logUsageFailure(userId, "activity", err)
			return
		}
		res.Activity = activityByDay(messages, weekStart, now.Location())
	}()

	wg.Wait()
	return res, nil
}

func (s *chatService) logUsageFailure(userId uuid.UUID, field string, err error) {
	s.deps.Logger.Warn("CHAT_SERVICE", "Usage read failed", map[string]interface{}{
		"user_id": userId.String(),
		"field":   field,
		"error":   err.Error(),
	})
}

func activityByDay(messages []*entity.ChatMessage, start time.Time, loc *time.Location) []entity.ChatActivityDay {
	days := make([]entity.ChatActivityDay, 7)
	index := make(map[string]int, 7)
	for i := range days {
		date := start.AddDate(0, 0, i).Format("2006-01-02")
		days[i] = entity.ChatActivityDay{Date: date}
		index[date] = i
	}
	for _, m := range messages {
		if i, ok := index[m.CreatedAt.In(loc).Format("2006-01-02")]; ok {
			days[i].MessageCount++
		}
	}
	return days
}
