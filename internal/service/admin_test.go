package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"arcade-chat/internal/mocks"
	"arcade-chat/internal/models"
	"arcade-chat/pkg/apperrors"
)

var adminUser = models.User{ID: "a1", Name: "root", IsAdmin: true}

func newAdminServiceForTest(
	users *mocks.UserRepositoryMock,
	messages *mocks.MessageRepositoryMock,
	settings *mocks.SettingsRepositoryMock,
	broadcaster *mocks.BroadcasterMock,
	invalidator *mocks.InvalidatorMock,
) AdminService {
	return NewAdminService(users, messages, settings, broadcaster, invalidator)
}

func TestClearAllMessagesBroadcastsSystemMessage(t *testing.T) {
	messages := new(mocks.MessageRepositoryMock)
	broadcaster := new(mocks.BroadcasterMock)
	invalidator := new(mocks.InvalidatorMock)
	svc := newAdminServiceForTest(new(mocks.UserRepositoryMock), messages, new(mocks.SettingsRepositoryMock), broadcaster, invalidator)

	messages.On("DeleteAll", mock.Anything).Return(int64(42), nil).Once()
	broadcaster.On("Broadcast", mock.MatchedBy(func(e models.ChatEvent) bool {
		return e.Type == models.EventChatCleared &&
			e.Payload.Message != nil &&
			e.Payload.Message.Content == "Chat has been cleared by admin"
	})).Once()
	invalidator.On("Invalidate", "/chat").Once()

	count, err := svc.ClearAllMessages(context.Background(), adminUser)
	require.NoError(t, err)
	assert.Equal(t, int64(42), count)
	messages.AssertExpectations(t)
	broadcaster.AssertExpectations(t)
	invalidator.AssertExpectations(t)
}

func TestClearAllMessagesByNonAdminForbidden(t *testing.T) {
	messages := new(mocks.MessageRepositoryMock)
	broadcaster := new(mocks.BroadcasterMock)
	svc := newAdminServiceForTest(new(mocks.UserRepositoryMock), messages, new(mocks.SettingsRepositoryMock), broadcaster, new(mocks.InvalidatorMock))

	_, err := svc.ClearAllMessages(context.Background(), models.User{ID: "u1"})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	messages.AssertNotCalled(t, "DeleteAll", mock.Anything)
	broadcaster.AssertNotCalled(t, "Broadcast", mock.Anything)
}

func TestToggleChatEnabledFlipsAndAnnounces(t *testing.T) {
	settings := new(mocks.SettingsRepositoryMock)
	broadcaster := new(mocks.BroadcasterMock)
	invalidator := new(mocks.InvalidatorMock)
	svc := newAdminServiceForTest(new(mocks.UserRepositoryMock), new(mocks.MessageRepositoryMock), settings, broadcaster, invalidator)

	settings.On("GetSettings", mock.Anything).Return(models.ChatSettings{ID: 1, IsEnabled: true}, nil).Once()
	settings.On("UpsertSettings", mock.Anything, false, "a1").Return(models.ChatSettings{ID: 1, IsEnabled: false, UpdatedBy: "a1"}, nil).Once()
	broadcaster.On("Broadcast", mock.MatchedBy(func(e models.ChatEvent) bool {
		return e.Type == models.EventChatToggled &&
			e.Payload.IsEnabled != nil && !*e.Payload.IsEnabled &&
			e.Payload.Message != nil &&
			e.Payload.Message.Content == "Chat disabled by admin"
	})).Once()
	invalidator.On("Invalidate", "/chat").Once()
	invalidator.On("Invalidate", "/admin").Once()

	updated, err := svc.ToggleChatEnabled(context.Background(), adminUser)
	require.NoError(t, err)
	assert.False(t, updated.IsEnabled)
	settings.AssertExpectations(t)
	broadcaster.AssertExpectations(t)
	invalidator.AssertExpectations(t)
}

func TestToggleChatEnabledByNonAdminLeavesSettings(t *testing.T) {
	settings := new(mocks.SettingsRepositoryMock)
	svc := newAdminServiceForTest(new(mocks.UserRepositoryMock), new(mocks.MessageRepositoryMock), settings, new(mocks.BroadcasterMock), new(mocks.InvalidatorMock))

	_, err := svc.ToggleChatEnabled(context.Background(), models.User{ID: "u1"})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	settings.AssertNotCalled(t, "UpsertSettings", mock.Anything, mock.Anything, mock.Anything)
}

func TestToggleChatEnabledAnonymousUnauthorized(t *testing.T) {
	svc := newAdminServiceForTest(new(mocks.UserRepositoryMock), new(mocks.MessageRepositoryMock), new(mocks.SettingsRepositoryMock), new(mocks.BroadcasterMock), new(mocks.InvalidatorMock))

	_, err := svc.ToggleChatEnabled(context.Background(), models.User{})
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestDeleteUserSelfForbidden(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	svc := newAdminServiceForTest(users, new(mocks.MessageRepositoryMock), new(mocks.SettingsRepositoryMock), new(mocks.BroadcasterMock), new(mocks.InvalidatorMock))

	err := svc.DeleteUser(context.Background(), adminUser, adminUser.ID)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	users.AssertNotCalled(t, "DeleteUser", mock.Anything, mock.Anything)
}

func TestToggleAdminSelfForbidden(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	svc := newAdminServiceForTest(users, new(mocks.MessageRepositoryMock), new(mocks.SettingsRepositoryMock), new(mocks.BroadcasterMock), new(mocks.InvalidatorMock))

	_, err := svc.ToggleAdmin(context.Background(), adminUser, adminUser.ID)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	users.AssertNotCalled(t, "SetAdmin", mock.Anything, mock.Anything, mock.Anything)
}

func TestToggleAdminFlipsFlag(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	invalidator := new(mocks.InvalidatorMock)
	svc := newAdminServiceForTest(users, new(mocks.MessageRepositoryMock), new(mocks.SettingsRepositoryMock), new(mocks.BroadcasterMock), invalidator)

	users.On("GetUser", mock.Anything, "u2").Return(models.User{ID: "u2", IsAdmin: false}, nil).Once()
	users.On("SetAdmin", mock.Anything, "u2", true).Return(nil).Once()
	invalidator.On("Invalidate", "/admin").Once()

	isAdmin, err := svc.ToggleAdmin(context.Background(), adminUser, "u2")
	require.NoError(t, err)
	assert.True(t, isAdmin)
	users.AssertExpectations(t)
}

func TestCreateUserValidation(t *testing.T) {
	svc := newAdminServiceForTest(new(mocks.UserRepositoryMock), new(mocks.MessageRepositoryMock), new(mocks.SettingsRepositoryMock), new(mocks.BroadcasterMock), new(mocks.InvalidatorMock))

	_, err := svc.CreateUser(context.Background(), adminUser, "x", "bob@example.com", "password1", false)
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = svc.CreateUser(context.Background(), adminUser, "bob", "not-an-email", "password1", false)
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = svc.CreateUser(context.Background(), adminUser, "bob", "bob@example.com", "short", false)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestResetPasswordTooShort(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	svc := newAdminServiceForTest(users, new(mocks.MessageRepositoryMock), new(mocks.SettingsRepositoryMock), new(mocks.BroadcasterMock), new(mocks.InvalidatorMock))

	err := svc.ResetPassword(context.Background(), adminUser, "u2", "short")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	users.AssertNotCalled(t, "SetPasswordHash", mock.Anything, mock.Anything, mock.Anything)
}
