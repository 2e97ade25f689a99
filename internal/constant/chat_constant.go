package constant

import "fmt"

const (
	ChatMessageRoleUser      = "user"
	ChatMessageRoleAssistant = "assistant"
	ChatMessageRoleSystem    = "system"

	MemoryTypeMessage = "message"
	MemoryTypeInsight = "insight"

	ChatCompletionFallback = "I'm having trouble responding right now. Please try again in a moment."
)

// Remote function names exposed under /api/functions/v1.
const (
	FunctionFetchMemories  = "fetch-memories"
	FunctionDeleteMemories = "delete-memories"
	FunctionRestoreMemory  = "restore-memory"
	FunctionMemoryStats    = "memory-stats"
)

// Domain event types published to NATS.
const (
	EventChatLimitReached = "CHAT_LIMIT_REACHED"
	EventMemoryCleared    = "MEMORY_CLEARED"
	EventMemoryRestored   = "MEMORY_RESTORED"
)

func SessionIdKey(userId string) string {
	return fmt.Sprintf("chat_session_id_%s", userId)
}

// ChatSnapshotKey is keyed by user only when sessionId is empty (persistent tiers).
func ChatSnapshotKey(userId, sessionId string) string {
	if sessionId == "" {
		return fmt.Sprintf("chat_messages_%s", userId)
	}
	return fmt.Sprintf("chat_messages_%s_%s", userId, sessionId)
}
