package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"arcade-chat/internal/models"
	"arcade-chat/internal/repositories"
	"arcade-chat/internal/views"
	"arcade-chat/pkg/apperrors"
)

// AdminService carries the admin-console operations. Every operation
// re-checks the caller's admin flag; the gin middleware is only the first
// line.
type AdminService interface {
	ListUsers(ctx context.Context, admin models.User) ([]models.AdminUser, error)
	CreateUser(ctx context.Context, admin models.User, name, email, password string, isAdmin bool) (models.User, error)
	DeleteUser(ctx context.Context, admin models.User, userID string) error
	ToggleAdmin(ctx context.Context, admin models.User, userID string) (bool, error)
	ResetPassword(ctx context.Context, admin models.User, userID, newPassword string) error
	ClearAllMessages(ctx context.Context, admin models.User) (int64, error)
	ToggleChatEnabled(ctx context.Context, admin models.User) (models.ChatSettings, error)
}

type adminService struct {
	users       repositories.UserRepository
	messages    repositories.MessageRepository
	settings    repositories.SettingsRepository
	broadcaster Broadcaster
	invalidator views.Invalidator
}

// NewAdminService constructs the admin core.
func NewAdminService(
	users repositories.UserRepository,
	messages repositories.MessageRepository,
	settings repositories.SettingsRepository,
	broadcaster Broadcaster,
	invalidator views.Invalidator,
) AdminService {
	return &adminService{
		users:       users,
		messages:    messages,
		settings:    settings,
		broadcaster: broadcaster,
		invalidator: invalidator,
	}
}

// ListUsers returns every account with message counts.
func (s *adminService) ListUsers(ctx context.Context, admin models.User) ([]models.AdminUser, error) {
	if err := requireAdmin(admin); err != nil {
		return nil, err
	}
	return s.users.ListUsersWithCounts(ctx)
}

// CreateUser registers an account on behalf of an admin.
func (s *adminService) CreateUser(ctx context.Context, admin models.User, name, email, password string, isAdmin bool) (models.User, error) {
	if err := requireAdmin(admin); err != nil {
		return models.User{}, err
	}

	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if len(name) < 2 {
		return models.User{}, fmt.Errorf("%w: name must be at least 2 characters", apperrors.ErrValidation)
	}
	if !strings.Contains(email, "@") {
		return models.User{}, fmt.Errorf("%w: invalid email address", apperrors.ErrValidation)
	}
	if len(password) < 8 {
		return models.User{}, fmt.Errorf("%w: password must be at least 8 characters", apperrors.ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.CreateUser(ctx, uuid.NewString(), name, email, string(hash), isAdmin)
	if err != nil {
		if errors.Is(err, repositories.ErrEmailTaken) {
			return models.User{}, fmt.Errorf("%w: user with this email already exists", apperrors.ErrValidation)
		}
		return models.User{}, err
	}

	s.invalidator.Invalidate("/admin")
	return user, nil
}

// DeleteUser removes an account. Admins cannot delete themselves.
func (s *adminService) DeleteUser(ctx context.Context, admin models.User, userID string) error {
	if err := requireAdmin(admin); err != nil {
		return err
	}
	if admin.ID == userID {
		return fmt.Errorf("%w: cannot delete your own account", apperrors.ErrForbidden)
	}

	if err := s.users.DeleteUser(ctx, userID); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return apperrors.ErrNotFound
		}
		return err
	}

	s.invalidator.Invalidate("/admin")
	return nil
}

// ToggleAdmin flips another user's admin flag. Admins cannot change their own.
func (s *adminService) ToggleAdmin(ctx context.Context, admin models.User, userID string) (bool, error) {
	if err := requireAdmin(admin); err != nil {
		return false, err
	}
	if admin.ID == userID {
		return false, fmt.Errorf("%w: cannot modify your own admin status", apperrors.ErrForbidden)
	}

	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return false, apperrors.ErrNotFound
		}
		return false, err
	}

	if err := s.users.SetAdmin(ctx, userID, !user.IsAdmin); err != nil {
		return false, err
	}

	s.invalidator.Invalidate("/admin")
	return !user.IsAdmin, nil
}

// ResetPassword replaces a user's credential hash.
func (s *adminService) ResetPassword(ctx context.Context, admin models.User, userID, newPassword string) error {
	if err := requireAdmin(admin); err != nil {
		return err
	}
	if len(newPassword) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", apperrors.ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.users.SetPasswordHash(ctx, userID, string(hash)); err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return apperrors.ErrNotFound
		}
		return err
	}
	return nil
}

// ClearAllMessages bulk-removes the message table and announces it with a
// synthetic system message.
func (s *adminService) ClearAllMessages(ctx context.Context, admin models.User) (int64, error) {
	if err := requireAdmin(admin); err != nil {
		return 0, err
	}

	count, err := s.messages.DeleteAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("clear messages: %w", err)
	}

	s.broadcaster.Broadcast(models.ChatClearedEvent(systemMessage(admin, "Chat has been cleared by admin")))
	s.invalidator.Invalidate("/chat")
	return count, nil
}

// ToggleChatEnabled flips the settings singleton, creating it disabled on
// first use, and announces the change.
func (s *adminService) ToggleChatEnabled(ctx context.Context, admin models.User) (models.ChatSettings, error) {
	if err := requireAdmin(admin); err != nil {
		return models.ChatSettings{}, err
	}

	current, err := s.settings.GetSettings(ctx)
	if err != nil {
		return models.ChatSettings{}, fmt.Errorf("load chat settings: %w", err)
	}

	updated, err := s.settings.UpsertSettings(ctx, !current.IsEnabled, admin.ID)
	if err != nil {
		return models.ChatSettings{}, fmt.Errorf("update chat settings: %w", err)
	}

	text := "Chat disabled by admin"
	if updated.IsEnabled {
		text = "Chat enabled by admin"
	}
	s.broadcaster.Broadcast(models.ChatToggledEvent(systemMessage(admin, text), updated.IsEnabled))
	s.invalidator.Invalidate("/chat")
	s.invalidator.Invalidate("/admin")
	return updated, nil
}

func requireAdmin(user models.User) error {
	if user.ID == "" {
		return apperrors.ErrUnauthorized
	}
	if !user.IsAdmin {
		return fmt.Errorf("%w: admin access required", apperrors.ErrForbidden)
	}
	return nil
}

func systemMessage(admin models.User, content string) models.MessageWithUser {
	now := time.Now()
	return models.MessageWithUser{
		Message: models.Message{
			ID:        "system",
			UserID:    admin.ID,
			Content:   content,
			CreatedAt: now,
			UpdatedAt: now,
		},
		User: models.UserSummary{ID: admin.ID, Name: admin.Name},
	}
}
