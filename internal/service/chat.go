package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"arcade-chat/internal/models"
	"arcade-chat/internal/presence"
	"arcade-chat/internal/repositories"
	"arcade-chat/internal/views"
	"arcade-chat/pkg/apperrors"
)

// Broadcaster fans events out to every chat subscriber. Publishing is
// best-effort: a persisted write is committed even if the broadcast is lost,
// and clients heal through the periodic reconcile fetch.
type Broadcaster interface {
	Broadcast(event models.ChatEvent)
}

// ChatService is the single writer of chat state. Every mutation persists
// first, then broadcasts, then invalidates rendered views.
type ChatService interface {
	ListRecentMessages(ctx context.Context, user models.User) ([]models.MessageWithUser, error)
	Send(ctx context.Context, user models.User, content string, replyToID *string) (models.MessageWithUser, error)
	Edit(ctx context.Context, user models.User, messageID, newContent string) (models.MessageWithUser, error)
	Delete(ctx context.Context, user models.User, messageID string) error
	SetTyping(ctx context.Context, user models.User, isTyping bool) error
	ListTypingUsers(ctx context.Context, user models.User) ([]models.UserSummary, error)
	ListOnlineUsers(ctx context.Context) ([]models.OnlineUser, error)
	SetOnline(ctx context.Context, user models.User) error
	SetOffline(ctx context.Context, user models.User) error
	CleanupOld(ctx context.Context) (int64, error)
	GetSettings(ctx context.Context) (models.ChatSettings, error)
}

// Options carries the tunable windows of the chat core.
type Options struct {
	RecentLimit  int
	OnlineWindow time.Duration
	RetainFor    time.Duration
}

type chatService struct {
	messages    repositories.MessageRepository
	users       repositories.UserRepository
	sessions    repositories.SessionRepository
	settings    repositories.SettingsRepository
	typing      presence.Store
	broadcaster Broadcaster
	invalidator views.Invalidator
	opts        Options
}

// NewChatService constructs the chat core.
func NewChatService(
	messages repositories.MessageRepository,
	users repositories.UserRepository,
	sessions repositories.SessionRepository,
	settings repositories.SettingsRepository,
	typing presence.Store,
	broadcaster Broadcaster,
	invalidator views.Invalidator,
	opts Options,
) ChatService {
	if opts.RecentLimit <= 0 {
		opts.RecentLimit = 100
	}
	if opts.OnlineWindow <= 0 {
		opts.OnlineWindow = 5 * time.Minute
	}
	if opts.RetainFor <= 0 {
		opts.RetainFor = 24 * time.Hour
	}
	return &chatService{
		messages:    messages,
		users:       users,
		sessions:    sessions,
		settings:    settings,
		typing:      typing,
		broadcaster: broadcaster,
		invalidator: invalidator,
		opts:        opts,
	}
}

// ListRecentMessages returns the last N messages, oldest first.
func (s *chatService) ListRecentMessages(ctx context.Context, user models.User) ([]models.MessageWithUser, error) {
	if user.ID == "" {
		return nil, apperrors.ErrUnauthorized
	}

	msgs, err := s.messages.ListRecent(ctx, s.opts.RecentLimit)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	authorIDs := make([]string, 0, len(msgs))
	seen := map[string]struct{}{}
	for _, m := range msgs {
		if _, ok := seen[m.UserID]; !ok {
			seen[m.UserID] = struct{}{}
			authorIDs = append(authorIDs, m.UserID)
		}
	}

	authors, err := s.users.BulkUsers(ctx, authorIDs)
	if err != nil {
		return nil, fmt.Errorf("load authors: %w", err)
	}
	summaryByID := make(map[string]models.UserSummary, len(authors))
	for _, a := range authors {
		summaryByID[a.ID] = a.Summary()
	}

	// Reverse into display order.
	out := make([]models.MessageWithUser, 0, len(msgs))
	for i := len(msgs) - 1; i >= 0; i-- {
		out = append(out, msgs[i].WithUser(summaryByID[msgs[i].UserID]))
	}
	return out, nil
}

// Send persists a message and broadcasts message:new.
func (s *chatService) Send(ctx context.Context, user models.User, content string, replyToID *string) (models.MessageWithUser, error) {
	if user.ID == "" {
		return models.MessageWithUser{}, apperrors.ErrUnauthorized
	}
	content, err := validateContent(content)
	if err != nil {
		return models.MessageWithUser{}, err
	}
	if err := s.requireChatEnabled(ctx, user); err != nil {
		return models.MessageWithUser{}, err
	}

	if replyToID != nil {
		if _, err := s.messages.GetMessage(ctx, *replyToID); err != nil {
			if errors.Is(err, repositories.ErrMessageNotFound) {
				return models.MessageWithUser{}, fmt.Errorf("%w: reply target", apperrors.ErrNotFound)
			}
			return models.MessageWithUser{}, err
		}
	}

	msg, err := s.messages.CreateMessage(ctx, uuid.NewString(), user.ID, content, replyToID)
	if err != nil {
		return models.MessageWithUser{}, fmt.Errorf("store message: %w", err)
	}

	withUser := msg.WithUser(user.Summary())
	s.publish(models.NewMessageEvent(withUser))
	s.invalidator.Invalidate("/chat")
	return withUser, nil
}

// Edit updates a message's content and broadcasts message:edit with only the
// id and new content.
func (s *chatService) Edit(ctx context.Context, user models.User, messageID, newContent string) (models.MessageWithUser, error) {
	if user.ID == "" {
		return models.MessageWithUser{}, apperrors.ErrUnauthorized
	}
	newContent, err := validateContent(newContent)
	if err != nil {
		return models.MessageWithUser{}, err
	}

	existing, err := s.messages.GetMessage(ctx, messageID)
	if err != nil {
		if errors.Is(err, repositories.ErrMessageNotFound) {
			return models.MessageWithUser{}, apperrors.ErrNotFound
		}
		return models.MessageWithUser{}, err
	}
	if existing.UserID != user.ID {
		return models.MessageWithUser{}, fmt.Errorf("%w: you can only edit your own messages", apperrors.ErrForbidden)
	}
	if existing.IsDeleted {
		return models.MessageWithUser{}, apperrors.ErrMessageDeleted
	}

	updated, err := s.messages.UpdateContent(ctx, messageID, newContent)
	if err != nil {
		return models.MessageWithUser{}, fmt.Errorf("update message: %w", err)
	}

	s.publish(models.EditEvent(updated.ID, updated.Content))
	s.invalidator.Invalidate("/chat")
	return updated.WithUser(user.Summary()), nil
}

// Delete soft-deletes a message and broadcasts message:delete. Deleting an
// already deleted message is an idempotent no-op.
func (s *chatService) Delete(ctx context.Context, user models.User, messageID string) error {
	if user.ID == "" {
		return apperrors.ErrUnauthorized
	}

	existing, err := s.messages.GetMessage(ctx, messageID)
	if err != nil {
		if errors.Is(err, repositories.ErrMessageNotFound) {
			return apperrors.ErrNotFound
		}
		return err
	}
	if existing.UserID != user.ID {
		return fmt.Errorf("%w: you can only delete your own messages", apperrors.ErrForbidden)
	}
	if existing.IsDeleted {
		return nil
	}

	if err := s.messages.SoftDelete(ctx, messageID); err != nil {
		return fmt.Errorf("delete message: %w", err)
	}

	s.publish(models.DeleteEvent(messageID))
	s.invalidator.Invalidate("/chat")
	return nil
}

// SetTyping upserts the caller's typing record and broadcasts the matching
// typing event.
func (s *chatService) SetTyping(ctx context.Context, user models.User, isTyping bool) error {
	if user.ID == "" {
		return apperrors.ErrUnauthorized
	}

	if err := s.typing.SetTyping(ctx, user.Summary(), isTyping); err != nil {
		return fmt.Errorf("store typing status: %w", err)
	}

	if isTyping {
		s.publish(models.TypingStartEvent(user.Summary()))
	} else {
		s.publish(models.TypingStopEvent(user.ID))
	}
	return nil
}

// ListTypingUsers returns users typing within the freshness window, excluding
// the caller.
func (s *chatService) ListTypingUsers(ctx context.Context, user models.User) ([]models.UserSummary, error) {
	if user.ID == "" {
		return nil, apperrors.ErrUnauthorized
	}
	return s.typing.ListTyping(ctx, user.ID)
}

// ListOnlineUsers projects online users from session recency.
func (s *chatService) ListOnlineUsers(ctx context.Context) ([]models.OnlineUser, error) {
	return s.sessions.ListOnlineUsers(ctx, time.Now().Add(-s.opts.OnlineWindow))
}

// SetOnline refreshes the user's heartbeat marker and announces presence.
// Session recency stays authoritative; the event only lets connected clients
// update without waiting for a reconcile.
func (s *chatService) SetOnline(ctx context.Context, user models.User) error {
	if user.ID == "" {
		return apperrors.ErrUnauthorized
	}
	if err := s.typing.Heartbeat(ctx, user.Summary()); err != nil {
		return fmt.Errorf("store heartbeat: %w", err)
	}
	s.publish(models.UserOnlineEvent(models.OnlineUser{UserSummary: user.Summary(), UpdatedAt: time.Now()}))
	return nil
}

// SetOffline clears the heartbeat marker and announces departure.
func (s *chatService) SetOffline(ctx context.Context, user models.User) error {
	if user.ID == "" {
		return apperrors.ErrUnauthorized
	}
	if err := s.typing.ClearHeartbeat(ctx, user.ID); err != nil {
		return fmt.Errorf("clear heartbeat: %w", err)
	}
	s.publish(models.UserOfflineEvent(user.ID))
	return nil
}

// CleanupOld removes messages past the retention window.
func (s *chatService) CleanupOld(ctx context.Context) (int64, error) {
	return s.messages.DeleteOlderThan(ctx, time.Now().Add(-s.opts.RetainFor))
}

// GetSettings returns the chat-enabled singleton.
func (s *chatService) GetSettings(ctx context.Context) (models.ChatSettings, error) {
	return s.settings.GetSettings(ctx)
}

func (s *chatService) requireChatEnabled(ctx context.Context, user models.User) error {
	if user.IsAdmin {
		return nil
	}
	settings, err := s.settings.GetSettings(ctx)
	if err != nil {
		return fmt.Errorf("load chat settings: %w", err)
	}
	if !settings.IsEnabled {
		return apperrors.ErrChatDisabled
	}
	return nil
}

// publish is best-effort: the write is already committed, so broadcast
// problems are logged and left to the reconcile loop to heal.
func (s *chatService) publish(event models.ChatEvent) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("broadcast publish failed: %v: %v", apperrors.ErrTransport, r)
		}
	}()
	s.broadcaster.Broadcast(event)
}

func validateContent(content string) (string, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return "", fmt.Errorf("%w: message content cannot be empty", apperrors.ErrValidation)
	}
	if utf8.RuneCountInString(trimmed) > models.MaxMessageLength {
		return "", fmt.Errorf("%w: message cannot exceed %d characters", apperrors.ErrValidation, models.MaxMessageLength)
	}
	return trimmed, nil
}
