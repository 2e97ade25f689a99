package dto

import (
	"time"

	"eq-coach-be/internal/entity"
)

type ChatHistoryResponse struct {
	SessionId string               `json:"session_id,omitempty"`
	Tier      string               `json:"tier"`
	Messages  []entity.ChatMessage `json:"messages"`
}

type SendMessageRequest struct {
	Content string `json:"content" validate:"required,max=4000"`
}

type SendMessageResponse struct {
	Sent  entity.ChatMessage `json:"sent"`
	Reply entity.ChatMessage `json:"reply"`
}

type UpdateMessageRequest struct {
	Content string `json:"content" validate:"required,max=4000"`
}

type ChatLimitResponse struct {
	Tier      string    `json:"tier"`
	Used      int       `json:"used"`
	Limit     int       `json:"limit"`
	Remaining int       `json:"remaining"`
	Exceeded  bool      `json:"exceeded"`
	ResetsAt  time.Time `json:"resets_at"`
}

// UsageOverviewResponse fields are nil when their read failed.
type UsageOverviewResponse struct {
	MessagesToday *int                     `json:"messages_today"`
	LastActiveAt  *time.Time               `json:"last_active_at"`
	Activity      []entity.ChatActivityDay `json:"activity"`
}

// ChatChunkFrame is pushed over the websocket while a reply streams in.
type ChatChunkFrame struct {
	MessageId string `json:"message_id"`
	Content   string `json:"content"`
	Done      bool   `json:"done"`
}

// LimitExceededError carries usage details for the 429 response.
type LimitExceededError struct {
	Limit      int       `json:"limit"`
	Used       int       `json:"used"`
	Tier       string    `json:"tier"`
	ResetAfter time.Time `json:"reset_after"`
}

func (e *LimitExceededError) Error() string {
	return "daily chat message limit reached"
}

type LimitExceededData struct {
	Limit            int       `json:"limit"`
	Used             int       `json:"used"`
	Tier             string    `json:"tier"`
	ResetAfter       time.Time `json:"reset_after"`
	ShowModalPricing bool      `json:"show_modal_pricing"`
}

type LimitExceededResponse struct {
	Success   bool              `json:"success"`
	Code      int               `json:"code"`
	Message   string            `json:"message"`
	ErrorType string            `json:"error_type"`
	Data      LimitExceededData `json:"data"`
}
