package application

import (
	"context"
	"time"
)

// Realtime event names.
const (
	EventReceiveMessage        = "receiveMessage"
	EventReceivePrivateMessage = "receivePrivateMessage"
	EventUserTyping            = "userTyping"
	EventTyping                = "typing"
)

// UserRoom is the room every session of a user joins to get direct messages.
func UserRoom(userID string) string { return "user:" + userID }

// CommunityRoom is the room of a community's live conversation.
func CommunityRoom(communityID string) string { return "community:" + communityID }

// Broadcaster delivers an event to every session subscribed to room.
// Delivery is best-effort.
type Broadcaster interface {
	Publish(ctx context.Context, room, event string, payload any) error
}

// MailPublisher queues a mail job; *helpers.RabbitPublisher satisfies it.
type MailPublisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// PrivateMessagePayload is what the receiver of a direct message gets live.
type PrivateMessagePayload struct {
	Sender    string    `json:"sender"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// TypingPayload is sent to a direct-chat peer; the client clears the
// indicator after ExpiresInMs.
type TypingPayload struct {
	UserID      string `json:"userId"`
	ExpiresInMs int64  `json:"expiresInMs"`
}
