package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"arcade-chat/internal/models"
)

type ChatServiceMock struct {
	mock.Mock
}

func (m *ChatServiceMock) ListRecentMessages(ctx context.Context, user models.User) ([]models.MessageWithUser, error) {
	args := m.Called(ctx, user)
	var list []models.MessageWithUser
	if val := args.Get(0); val != nil {
		list = val.([]models.MessageWithUser)
	}
	return list, args.Error(1)
}

func (m *ChatServiceMock) Send(ctx context.Context, user models.User, content string, replyToID *string) (models.MessageWithUser, error) {
	args := m.Called(ctx, user, content, replyToID)
	var msg models.MessageWithUser
	if val := args.Get(0); val != nil {
		msg = val.(models.MessageWithUser)
	}
	return msg, args.Error(1)
}

func (m *ChatServiceMock) Edit(ctx context.Context, user models.User, messageID, newContent string) (models.MessageWithUser, error) {
	args := m.Called(ctx, user, messageID, newContent)
	var msg models.MessageWithUser
	if val := args.Get(0); val != nil {
		msg = val.(models.MessageWithUser)
	}
	return msg, args.Error(1)
}

func (m *ChatServiceMock) Delete(ctx context.Context, user models.User, messageID string) error {
	args := m.Called(ctx, user, messageID)
	return args.Error(0)
}

func (m *ChatServiceMock) SetTyping(ctx context.Context, user models.User, isTyping bool) error {
	args := m.Called(ctx, user, isTyping)
	return args.Error(0)
}

func (m *ChatServiceMock) ListTypingUsers(ctx context.Context, user models.User) ([]models.UserSummary, error) {
	args := m.Called(ctx, user)
	var list []models.UserSummary
	if val := args.Get(0); val != nil {
		list = val.([]models.UserSummary)
	}
	return list, args.Error(1)
}

func (m *ChatServiceMock) ListOnlineUsers(ctx context.Context) ([]models.OnlineUser, error) {
	args := m.Called(ctx)
	var list []models.OnlineUser
	if val := args.Get(0); val != nil {
		list = val.([]models.OnlineUser)
	}
	return list, args.Error(1)
}

func (m *ChatServiceMock) SetOnline(ctx context.Context, user models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *ChatServiceMock) SetOffline(ctx context.Context, user models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *ChatServiceMock) CleanupOld(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *ChatServiceMock) GetSettings(ctx context.Context) (models.ChatSettings, error) {
	args := m.Called(ctx)
	var settings models.ChatSettings
	if val := args.Get(0); val != nil {
		settings = val.(models.ChatSettings)
	}
	return settings, args.Error(1)
}

type AdminServiceMock struct {
	mock.Mock
}

func (m *AdminServiceMock) ListUsers(ctx context.Context, admin models.User) ([]models.AdminUser, error) {
	args := m.Called(ctx, admin)
	var list []models.AdminUser
	if val := args.Get(0); val != nil {
		list = val.([]models.AdminUser)
	}
	return list, args.Error(1)
}

func (m *AdminServiceMock) CreateUser(ctx context.Context, admin models.User, name, email, password string, isAdmin bool) (models.User, error) {
	args := m.Called(ctx, admin, name, email, password, isAdmin)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *AdminServiceMock) DeleteUser(ctx context.Context, admin models.User, userID string) error {
	args := m.Called(ctx, admin, userID)
	return args.Error(0)
}

func (m *AdminServiceMock) ToggleAdmin(ctx context.Context, admin models.User, userID string) (bool, error) {
	args := m.Called(ctx, admin, userID)
	return args.Bool(0), args.Error(1)
}

func (m *AdminServiceMock) ResetPassword(ctx context.Context, admin models.User, userID, newPassword string) error {
	args := m.Called(ctx, admin, userID, newPassword)
	return args.Error(0)
}

func (m *AdminServiceMock) ClearAllMessages(ctx context.Context, admin models.User) (int64, error) {
	args := m.Called(ctx, admin)
	return args.Get(0).(int64), args.Error(1)
}

func (m *AdminServiceMock) ToggleChatEnabled(ctx context.Context, admin models.User) (models.ChatSettings, error) {
	args := m.Called(ctx, admin)
	var settings models.ChatSettings
	if val := args.Get(0); val != nil {
		settings = val.(models.ChatSettings)
	}
	return settings, args.Error(1)
}
