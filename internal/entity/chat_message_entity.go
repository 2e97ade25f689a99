package entity

import (
	"time"
)

// ChatMessage is one entry of a user's conversation buffer.
// Id is a UUID for messages that exist in the remote store and a ULID for
// client-side messages that were never written remotely.
type ChatMessage struct {
	Id        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	Persisted bool      `json:"persisted"`
}

type ChatActivityDay struct {
	Date         string `json:"date"`
	MessageCount int    `json:"message_count"`
}
