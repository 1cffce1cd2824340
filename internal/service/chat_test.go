package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"arcade-chat/internal/mocks"
	"arcade-chat/internal/models"
	"arcade-chat/internal/repositories"
	"arcade-chat/pkg/apperrors"
)

func newChatServiceForTest(
	messages *mocks.MessageRepositoryMock,
	users *mocks.UserRepositoryMock,
	sessions *mocks.SessionRepositoryMock,
	settings *mocks.SettingsRepositoryMock,
	typing *mocks.PresenceStoreMock,
	broadcaster *mocks.BroadcasterMock,
	invalidator *mocks.InvalidatorMock,
) ChatService {
	return NewChatService(messages, users, sessions, settings, typing, broadcaster, invalidator, Options{})
}

func eventOfType(eventType string) interface{} {
	return mock.MatchedBy(func(e models.ChatEvent) bool { return e.Type == eventType })
}

func TestSendPersistsAndBroadcasts(t *testing.T) {
	messages := new(mocks.MessageRepositoryMock)
	settings := new(mocks.SettingsRepositoryMock)
	broadcaster := new(mocks.BroadcasterMock)
	invalidator := new(mocks.InvalidatorMock)
	svc := newChatServiceForTest(messages, new(mocks.UserRepositoryMock), new(mocks.SessionRepositoryMock), settings, new(mocks.PresenceStoreMock), broadcaster, invalidator)

	user := models.User{ID: "u1", Name: "alice"}

	settings.On("GetSettings", mock.Anything).Return(models.ChatSettings{ID: 1, IsEnabled: true}, nil).Once()
	messages.On("CreateMessage", mock.Anything, mock.AnythingOfType("string"), "u1", "hello", (*string)(nil)).
		Return(models.Message{ID: "m1", UserID: "u1", Content: "hello"}, nil).Once()
	broadcaster.On("Broadcast", eventOfType(models.EventMessageNew)).Once()
	invalidator.On("Invalidate", "/chat").Once()

	got, err := svc.Send(context.Background(), user, "  hello  ", nil)
	require.NoError(t, err)
	assert.Equal(t, "m1", got.ID)
	assert.Equal(t, "hello", got.Content)
	assert.Equal(t, "alice", got.User.Name)

	messages.AssertExpectations(t)
	settings.AssertExpectations(t)
	broadcaster.AssertExpectations(t)
	invalidator.AssertExpectations(t)
}

func TestSendRejectsEmptyContent(t *testing.T) {
	svc := newChatServiceForTest(new(mocks.MessageRepositoryMock), new(mocks.UserRepositoryMock), new(mocks.SessionRepositoryMock), new(mocks.SettingsRepositoryMock), new(mocks.PresenceStoreMock), new(mocks.BroadcasterMock), new(mocks.InvalidatorMock))

	_, err := svc.Send(context.Background(), models.User{ID: "u1"}, "   ", nil)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestSendRejectsOverlongContent(t *testing.T) {
	svc := newChatServiceForTest(new(mocks.MessageRepositoryMock), new(mocks.UserRepositoryMock), new(mocks.SessionRepositoryMock), new(mocks.SettingsRepositoryMock), new(mocks.PresenceStoreMock), new(mocks.BroadcasterMock), new(mocks.InvalidatorMock))

	_, err := svc.Send(context.Background(), models.User{ID: "u1"}, strings.Repeat("a", models.MaxMessageLength+1), nil)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestSendWhenChatDisabled(t *testing.T) {
	settings := new(mocks.SettingsRepositoryMock)
	svc := newChatServiceForTest(new(mocks.MessageRepositoryMock), new(mocks.UserRepositoryMock), new(mocks.SessionRepositoryMock), settings, new(mocks.PresenceStoreMock), new(mocks.BroadcasterMock), new(mocks.InvalidatorMock))

	settings.On("GetSettings", mock.Anything).Return(models.ChatSettings{ID: 1, IsEnabled: false}, nil).Once()

	_, err := svc.Send(context.Background(), models.User{ID: "u1"}, "hi", nil)
	assert.ErrorIs(t, err, apperrors.ErrChatDisabled)
	settings.AssertExpectations(t)
}

func TestSendAdminBypassesDisabledChat(t *testing.T) {
	messages := new(mocks.MessageRepositoryMock)
	broadcaster := new(mocks.BroadcasterMock)
	invalidator := new(mocks.InvalidatorMock)
	svc := newChatServiceForTest(messages, new(mocks.UserRepositoryMock), new(mocks.SessionRepositoryMock), new(mocks.SettingsRepositoryMock), new(mocks.PresenceStoreMock), broadcaster, invalidator)

	messages.On("CreateMessage", mock.Anything, mock.AnythingOfType("string"), "a1", "hi", (*string)(nil)).
		Return(models.Message{ID: "m1", UserID: "a1", Content: "hi"}, nil).Once()
	broadcaster.On("Broadcast", eventOfType(models.EventMessageNew)).Once()
	invalidator.On("Invalidate", "/chat").Once()

	_, err := svc.Send(context.Background(), models.User{ID: "a1", IsAdmin: true}, "hi", nil)
	require.NoError(t, err)
	messages.AssertExpectations(t)
}

func TestSendUnknownReplyTarget(t *testing.T) {
	messages := new(mocks.MessageRepositoryMock)
	settings := new(mocks.SettingsRepositoryMock)
	svc := newChatServiceForTest(messages, new(mocks.UserRepositoryMock), new(mocks.SessionRepositoryMock), settings, new(mocks.PresenceStoreMock), new(mocks.BroadcasterMock), new(mocks.InvalidatorMock))

	settings.On("GetSettings", mock.Anything).Return(models.ChatSettings{ID: 1, IsEnabled: true}, nil).Once()
	messages.On("GetMessage", mock.Anything, "missing").Return(models.Message{}, repositories.ErrMessageNotFound).Once()

	replyTo := "missing"
	_, err := svc.Send(context.Background(), models.User{ID: "u1"}, "hi", &replyTo)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	messages.AssertExpectations(t)
}

func TestEditUpdatesContentAndBroadcasts(t *testing.T) {
	messages := new(mocks.MessageRepositoryMock)
	broadcaster := new(mocks.BroadcasterMock)
	invalidator := new(mocks.InvalidatorMock)
	svc := newChatServiceForTest(messages, new(mocks.UserRepositoryMock), new(mocks.SessionRepositoryMock), new(mocks.SettingsRepositoryMock), new(mocks.PresenceStoreMock), broadcaster, invalidator)

	messages.On("GetMessage", mock.Anything, "m1").
		Return(models.Message{ID: "m1", UserID: "u1", Content: "old"}, nil).Once()
	messages.On("UpdateContent", mock.Anything, "m1", "new").
		Return(models.Message{ID: "m1", UserID: "u1", Content: "new", IsEdited: true}, nil).Once()
	broadcaster.On("Broadcast", mock.MatchedBy(func(e models.ChatEvent) bool {
		return e.Type == models.EventMessageEdit && e.Payload.ID == "m1" && e.Payload.Content == "new"
	})).Once()
	invalidator.On("Invalidate", "/chat").Once()

	got, err := svc.Edit(context.Background(), models.User{ID: "u1"}, "m1", "new")
	require.NoError(t, err)
	assert.True(t, got.IsEdited)
	assert.Equal(t, "new", got.Content)
	messages.AssertExpectations(t)
	broadcaster.AssertExpectations(t)
}

func TestEditByNonAuthorForbidden(t *testing.T) {
	messages := new(mocks.MessageRepositoryMock)
	svc := newChatServiceForTest(messages, new(mocks.UserRepositoryMock), new(mocks.SessionRepositoryMock), new(mocks.SettingsRepositoryMock), new(mocks.PresenceStoreMock), new(mocks.BroadcasterMock), new(mocks.InvalidatorMock))

	messages.On("GetMessage", mock.Anything, "m1").
		Return(models.Message{ID: "m1", UserID: "someone-else"}, nil).Once()

	_, err := svc.Edit(context.Background(), models.User{ID: "u1"}, "m1", "new")
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	messages.AssertExpectations(t)
}

func TestEditDeletedMessageFails(t *testing.T) {
	messages := new(mocks.MessageRepositoryMock)
	svc := newChatServiceForTest(messages, new(mocks.UserRepositoryMock), new(mocks.SessionRepositoryMock), new(mocks.SettingsRepositoryMock), new(mocks.PresenceStoreMock), new(mocks.BroadcasterMock), new(mocks.InvalidatorMock))

	messages.On("GetMessage", mock.Anything, "m1").
		Return(models.Message{ID: "m1", UserID: "u1", IsDeleted: true}, nil).Once()

	_, err := svc.Edit(context.Background(), models.User{ID: "u1"}, "m1", "new")
	assert.ErrorIs(t, err, apperrors.ErrMessageDeleted)
	messages.AssertExpectations(t)
}

func TestEditRejectsOverlongContent(t *testing.T) {
	svc := newChatServiceForTest(new(mocks.MessageRepositoryMock), new(mocks.UserRepositoryMock), new(mocks.SessionRepositoryMock), new(mocks.SettingsRepositoryMock), new(mocks.PresenceStoreMock), new(mocks.BroadcasterMock), new(mocks.InvalidatorMock))

	_, err := svc.Edit(context.Background(), models.User{ID: "u1"}, "m1", strings.Repeat("x", models.MaxMessageLength+1))
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestDeleteSoftDeletesAndBroadcasts(t *testing.T) {
	messages := new(mocks.MessageRepositoryMock)
	broadcaster := new(mocks.BroadcasterMock)
	invalidator := new(mocks.InvalidatorMock)
	svc := newChatServiceForTest(messages, new(mocks.UserRepositoryMock), new(mocks.SessionRepositoryMock), new(mocks.SettingsRepositoryMock), new(mocks.PresenceStoreMock), broadcaster, invalidator)

	messages.On("GetMessage", mock.Anything, "m1").
		Return(models.Message{ID: "m1", UserID: "u1", Content: "hello"}, nil).Once()
	messages.On("SoftDelete", mock.Anything, "m1").Return(nil).Once()
	broadcaster.On("Broadcast", mock.MatchedBy(func(e models.ChatEvent) bool {
		return e.Type == models.EventMessageDelete && e.Payload.ID == "m1"
	})).Once()
	invalidator.On("Invalidate", "/chat").Once()

	require.NoError(t, svc.Delete(context.Background(), models.User{ID: "u1"}, "m1"))
	messages.AssertExpectations(t)
	broadcaster.AssertExpectations(t)
}

func TestDeleteAlreadyDeletedIsNoOp(t *testing.T) {
	messages := new(mocks.MessageRepositoryMock)
	broadcaster := new(mocks.BroadcasterMock)
	svc := newChatServiceForTest(messages, new(mocks.UserRepositoryMock), new(mocks.SessionRepositoryMock), new(mocks.SettingsRepositoryMock), new(mocks.PresenceStoreMock), broadcaster, new(mocks.InvalidatorMock))

	messages.On("GetMessage", mock.Anything, "m1").
		Return(models.Message{ID: "m1", UserID: "u1", IsDeleted: true}, nil).Once()

	require.NoError(t, svc.Delete(context.Background(), models.User{ID: "u1"}, "m1"))
	messages.AssertExpectations(t)
	broadcaster.AssertNotCalled(t, "Broadcast", mock.Anything)
}

func TestDeleteByNonAuthorForbidden(t *testing.T) {
	messages := new(mocks.MessageRepositoryMock)
	svc := newChatServiceForTest(messages, new(mocks.UserRepositoryMock), new(mocks.SessionRepositoryMock), new(mocks.SettingsRepositoryMock), new(mocks.PresenceStoreMock), new(mocks.BroadcasterMock), new(mocks.InvalidatorMock))

	messages.On("GetMessage", mock.Anything, "m1").
		Return(models.Message{ID: "m1", UserID: "someone-else"}, nil).Once()

	err := svc.Delete(context.Background(), models.User{ID: "u1"}, "m1")
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	messages.AssertExpectations(t)
}

func TestListRecentMessagesReversesIntoDisplayOrder(t *testing.T) {
	messages := new(mocks.MessageRepositoryMock)
	users := new(mocks.UserRepositoryMock)
	svc := newChatServiceForTest(messages, users, new(mocks.SessionRepositoryMock), new(mocks.SettingsRepositoryMock), new(mocks.PresenceStoreMock), new(mocks.BroadcasterMock), new(mocks.InvalidatorMock))

	// Repo returns newest first.
	messages.On("ListRecent", mock.Anything, 100).Return([]models.Message{
		{ID: "m2", UserID: "u1", Content: "second"},
		{ID: "m1", UserID: "u2", Content: "first"},
	}, nil).Once()
	users.On("BulkUsers", mock.Anything, []string{"u1", "u2"}).Return([]models.User{
		{ID: "u1", Name: "alice"},
		{ID: "u2", Name: "bob"},
	}, nil).Once()

	got, err := svc.ListRecentMessages(context.Background(), models.User{ID: "u1"})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "m1", got[0].ID)
	assert.Equal(t, "bob", got[0].User.Name)
	assert.Equal(t, "m2", got[1].ID)
	assert.Equal(t, "alice", got[1].User.Name)
	messages.AssertExpectations(t)
	users.AssertExpectations(t)
}

func TestSetTypingBroadcastsStartAndStop(t *testing.T) {
	typing := new(mocks.PresenceStoreMock)
	broadcaster := new(mocks.BroadcasterMock)
	svc := newChatServiceForTest(new(mocks.MessageRepositoryMock), new(mocks.UserRepositoryMock), new(mocks.SessionRepositoryMock), new(mocks.SettingsRepositoryMock), typing, broadcaster, new(mocks.InvalidatorMock))

	user := models.User{ID: "u1", Name: "alice"}

	typing.On("SetTyping", mock.Anything, user.Summary(), true).Return(nil).Once()
	typing.On("SetTyping", mock.Anything, user.Summary(), false).Return(nil).Once()
	broadcaster.On("Broadcast", eventOfType(models.EventTypingStart)).Once()
	broadcaster.On("Broadcast", mock.MatchedBy(func(e models.ChatEvent) bool {
		return e.Type == models.EventTypingStop && e.Payload.UserID == "u1"
	})).Once()

	require.NoError(t, svc.SetTyping(context.Background(), user, true))
	require.NoError(t, svc.SetTyping(context.Background(), user, false))
	typing.AssertExpectations(t)
	broadcaster.AssertExpectations(t)
}

func TestSetOnlineRefreshesHeartbeatAndAnnounces(t *testing.T) {
	typing := new(mocks.PresenceStoreMock)
	broadcaster := new(mocks.BroadcasterMock)
	svc := newChatServiceForTest(new(mocks.MessageRepositoryMock), new(mocks.UserRepositoryMock), new(mocks.SessionRepositoryMock), new(mocks.SettingsRepositoryMock), typing, broadcaster, new(mocks.InvalidatorMock))

	user := models.User{ID: "u1", Name: "alice"}

	typing.On("Heartbeat", mock.Anything, user.Summary()).Return(nil).Once()
	broadcaster.On("Broadcast", mock.MatchedBy(func(e models.ChatEvent) bool {
		return e.Type == models.EventUserOnline && e.Payload.OnlineUser != nil && e.Payload.OnlineUser.ID == "u1"
	})).Once()

	require.NoError(t, svc.SetOnline(context.Background(), user))
	typing.AssertExpectations(t)
	broadcaster.AssertExpectations(t)
}

func TestSetOfflineClearsHeartbeatAndAnnounces(t *testing.T) {
	typing := new(mocks.PresenceStoreMock)
	broadcaster := new(mocks.BroadcasterMock)
	svc := newChatServiceForTest(new(mocks.MessageRepositoryMock), new(mocks.UserRepositoryMock), new(mocks.SessionRepositoryMock), new(mocks.SettingsRepositoryMock), typing, broadcaster, new(mocks.InvalidatorMock))

	typing.On("ClearHeartbeat", mock.Anything, "u1").Return(nil).Once()
	broadcaster.On("Broadcast", mock.MatchedBy(func(e models.ChatEvent) bool {
		return e.Type == models.EventUserOffline && e.Payload.UserID == "u1"
	})).Once()

	require.NoError(t, svc.SetOffline(context.Background(), models.User{ID: "u1"}))
	typing.AssertExpectations(t)
	broadcaster.AssertExpectations(t)
}

func TestListOnlineUsersUsesRecencyWindow(t *testing.T) {
	sessions := new(mocks.SessionRepositoryMock)
	svc := NewChatService(new(mocks.MessageRepositoryMock), new(mocks.UserRepositoryMock), sessions, new(mocks.SettingsRepositoryMock), new(mocks.PresenceStoreMock), new(mocks.BroadcasterMock), new(mocks.InvalidatorMock), Options{OnlineWindow: 5 * time.Minute})

	sessions.On("ListOnlineUsers", mock.Anything, mock.MatchedBy(func(since time.Time) bool {
		return time.Since(since) > 4*time.Minute && time.Since(since) < 6*time.Minute
	})).Return([]models.OnlineUser{{UserSummary: models.UserSummary{ID: "u2"}}}, nil).Once()

	got, err := svc.ListOnlineUsers(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	sessions.AssertExpectations(t)
}

func TestCleanupOldUsesRetentionCutoff(t *testing.T) {
	messages := new(mocks.MessageRepositoryMock)
	svc := NewChatService(messages, new(mocks.UserRepositoryMock), new(mocks.SessionRepositoryMock), new(mocks.SettingsRepositoryMock), new(mocks.PresenceStoreMock), new(mocks.BroadcasterMock), new(mocks.InvalidatorMock), Options{RetainFor: 24 * time.Hour})

	messages.On("DeleteOlderThan", mock.Anything, mock.MatchedBy(func(cutoff time.Time) bool {
		return time.Since(cutoff) > 23*time.Hour && time.Since(cutoff) < 25*time.Hour
	})).Return(int64(7), nil).Once()

	removed, err := svc.CleanupOld(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(7), removed)
	messages.AssertExpectations(t)
}
