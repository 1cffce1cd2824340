package models

// Event type discriminators for the broadcast wire protocol.
const (
	EventMessageNew    = "message:new"
	EventMessageEdit   = "message:edit"
	EventMessageDelete = "message:delete"
	EventTypingStart   = "typing:start"
	EventTypingStop    = "typing:stop"
	EventUserOnline    = "user:online"
	EventUserOffline   = "user:offline"
	EventChatCleared   = "chat:cleared"
	EventChatToggled   = "chat:toggled"
)

// ChatEvent is broadcast to every subscriber of the chat channel. Each variant
// carries only what clients need to apply the matching local mutation.
type ChatEvent struct {
	Type    string       `json:"type"`
	Payload EventPayload `json:"payload"`
}

// EventPayload is the union of per-variant payload fields.
type EventPayload struct {
	Message    *MessageWithUser `json:"message,omitempty"`
	ID         string           `json:"id,omitempty"`
	Content    string           `json:"content,omitempty"`
	User       *UserSummary     `json:"user,omitempty"`
	OnlineUser *OnlineUser      `json:"onlineUser,omitempty"`
	UserID     string           `json:"userId,omitempty"`
	IsEnabled  *bool            `json:"isEnabled,omitempty"`
}

// NewMessageEvent wraps a freshly persisted message.
func NewMessageEvent(msg MessageWithUser) ChatEvent {
	return ChatEvent{Type: EventMessageNew, Payload: EventPayload{Message: &msg}}
}

// EditEvent carries only the id and new content; clients patch by id.
func EditEvent(id, content string) ChatEvent {
	return ChatEvent{Type: EventMessageEdit, Payload: EventPayload{ID: id, Content: content}}
}

// DeleteEvent carries only the id; applying it is idempotent.
func DeleteEvent(id string) ChatEvent {
	return ChatEvent{Type: EventMessageDelete, Payload: EventPayload{ID: id}}
}

// TypingStartEvent announces that a user started typing.
func TypingStartEvent(user UserSummary) ChatEvent {
	return ChatEvent{Type: EventTypingStart, Payload: EventPayload{User: &user}}
}

// TypingStopEvent announces that a user stopped typing.
func TypingStopEvent(userID string) ChatEvent {
	return ChatEvent{Type: EventTypingStop, Payload: EventPayload{UserID: userID}}
}

// UserOnlineEvent announces presence.
func UserOnlineEvent(user OnlineUser) ChatEvent {
	return ChatEvent{Type: EventUserOnline, Payload: EventPayload{OnlineUser: &user}}
}

// UserOfflineEvent announces departure.
func UserOfflineEvent(userID string) ChatEvent {
	return ChatEvent{Type: EventUserOffline, Payload: EventPayload{UserID: userID}}
}

// ChatClearedEvent signals an administrative bulk clear. It carries a synthetic
// system message so clients can render a notice without a re-fetch.
func ChatClearedEvent(system MessageWithUser) ChatEvent {
	return ChatEvent{Type: EventChatCleared, Payload: EventPayload{Message: &system}}
}

// ChatToggledEvent signals the enabled flag flipping.
func ChatToggledEvent(system MessageWithUser, isEnabled bool) ChatEvent {
	return ChatEvent{Type: EventChatToggled, Payload: EventPayload{Message: &system, IsEnabled: &isEnabled}}
}
