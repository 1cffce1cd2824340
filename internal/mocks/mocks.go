package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"arcade-chat/internal/models"
	"arcade-chat/internal/presence"
	"arcade-chat/internal/repositories"
)

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) CreateMessage(ctx context.Context, id, userID, content string, replyToID *string) (models.Message, error) {
	args := m.Called(ctx, id, userID, content, replyToID)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) ListRecent(ctx context.Context, limit int) ([]models.Message, error) {
	args := m.Called(ctx, limit)
	var list []models.Message
	if val := args.Get(0); val != nil {
		list = val.([]models.Message)
	}
	return list, args.Error(1)
}

func (m *MessageRepositoryMock) GetMessage(ctx context.Context, messageID string) (models.Message, error) {
	args := m.Called(ctx, messageID)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) UpdateContent(ctx context.Context, messageID, content string) (models.Message, error) {
	args := m.Called(ctx, messageID, content)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) SoftDelete(ctx context.Context, messageID string) error {
	args := m.Called(ctx, messageID)
	return args.Error(0)
}

func (m *MessageRepositoryMock) DeleteAll(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MessageRepositoryMock) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

type UserRepositoryMock struct {
	mock.Mock
}

func (m *UserRepositoryMock) CreateUser(ctx context.Context, id, name, email, passwordHash string, isAdmin bool) (models.User, error) {
	args := m.Called(ctx, id, name, email, passwordHash, isAdmin)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) GetUser(ctx context.Context, userID string) (models.User, error) {
	args := m.Called(ctx, userID)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	args := m.Called(ctx, email)
	var user models.User
	if val := args.Get(0); val != nil {
		user = val.(models.User)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) ListUsersWithCounts(ctx context.Context) ([]models.AdminUser, error) {
	args := m.Called(ctx)
	var list []models.AdminUser
	if val := args.Get(0); val != nil {
		list = val.([]models.AdminUser)
	}
	return list, args.Error(1)
}

func (m *UserRepositoryMock) BulkUsers(ctx context.Context, ids []string) ([]models.User, error) {
	args := m.Called(ctx, ids)
	var list []models.User
	if val := args.Get(0); val != nil {
		list = val.([]models.User)
	}
	return list, args.Error(1)
}

func (m *UserRepositoryMock) DeleteUser(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *UserRepositoryMock) SetAdmin(ctx context.Context, userID string, isAdmin bool) error {
	args := m.Called(ctx, userID, isAdmin)
	return args.Error(0)
}

func (m *UserRepositoryMock) SetPasswordHash(ctx context.Context, userID, passwordHash string) error {
	args := m.Called(ctx, userID, passwordHash)
	return args.Error(0)
}

func (m *UserRepositoryMock) SetChessCompleted(ctx context.Context, userID string, completed bool) error {
	args := m.Called(ctx, userID, completed)
	return args.Error(0)
}

type SessionRepositoryMock struct {
	mock.Mock
}

func (m *SessionRepositoryMock) CreateSession(ctx context.Context, token, userID string, expiresAt time.Time) (models.Session, error) {
	args := m.Called(ctx, token, userID, expiresAt)
	var session models.Session
	if val := args.Get(0); val != nil {
		session = val.(models.Session)
	}
	return session, args.Error(1)
}

func (m *SessionRepositoryMock) GetSession(ctx context.Context, token string) (models.Session, error) {
	args := m.Called(ctx, token)
	var session models.Session
	if val := args.Get(0); val != nil {
		session = val.(models.Session)
	}
	return session, args.Error(1)
}

func (m *SessionRepositoryMock) TouchSession(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *SessionRepositoryMock) DeleteSession(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *SessionRepositoryMock) ListOnlineUsers(ctx context.Context, since time.Time) ([]models.OnlineUser, error) {
	args := m.Called(ctx, since)
	var list []models.OnlineUser
	if val := args.Get(0); val != nil {
		list = val.([]models.OnlineUser)
	}
	return list, args.Error(1)
}

type SettingsRepositoryMock struct {
	mock.Mock
}

func (m *SettingsRepositoryMock) GetSettings(ctx context.Context) (models.ChatSettings, error) {
	args := m.Called(ctx)
	var settings models.ChatSettings
	if val := args.Get(0); val != nil {
		settings = val.(models.ChatSettings)
	}
	return settings, args.Error(1)
}

func (m *SettingsRepositoryMock) UpsertSettings(ctx context.Context, isEnabled bool, updatedBy string) (models.ChatSettings, error) {
	args := m.Called(ctx, isEnabled, updatedBy)
	var settings models.ChatSettings
	if val := args.Get(0); val != nil {
		settings = val.(models.ChatSettings)
	}
	return settings, args.Error(1)
}

type PresenceStoreMock struct {
	mock.Mock
}

func (m *PresenceStoreMock) SetTyping(ctx context.Context, user models.UserSummary, isTyping bool) error {
	args := m.Called(ctx, user, isTyping)
	return args.Error(0)
}

func (m *PresenceStoreMock) ListTyping(ctx context.Context, excludeUserID string) ([]models.UserSummary, error) {
	args := m.Called(ctx, excludeUserID)
	var list []models.UserSummary
	if val := args.Get(0); val != nil {
		list = val.([]models.UserSummary)
	}
	return list, args.Error(1)
}

func (m *PresenceStoreMock) Heartbeat(ctx context.Context, user models.UserSummary) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *PresenceStoreMock) ClearHeartbeat(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

type BroadcasterMock struct {
	mock.Mock
}

func (m *BroadcasterMock) Broadcast(event models.ChatEvent) {
	m.Called(event)
}

type InvalidatorMock struct {
	mock.Mock
}

func (m *InvalidatorMock) Invalidate(routePath string) {
	m.Called(routePath)
}

var (
	_ repositories.MessageRepository  = (*MessageRepositoryMock)(nil)
	_ repositories.UserRepository     = (*UserRepositoryMock)(nil)
	_ repositories.SessionRepository  = (*SessionRepositoryMock)(nil)
	_ repositories.SettingsRepository = (*SettingsRepositoryMock)(nil)
	_ presence.Store                  = (*PresenceStoreMock)(nil)
)
