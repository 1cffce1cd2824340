package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"arcade-chat/internal/middleware"
	"arcade-chat/internal/mocks"
	"arcade-chat/internal/models"
	"arcade-chat/pkg/apperrors"
)

var testUser = models.User{ID: "u1", Name: "alice", ChessCompleted: true}

func setupChatRouter(handler *ChatHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		middleware.SetCurrentUser(c, testUser)
		c.Next()
	})
	r.GET("/chat/messages", handler.ListMessages)
	r.POST("/chat/messages", handler.PostMessage)
	r.PUT("/chat/messages/:message_id", handler.EditMessage)
	r.DELETE("/chat/messages/:message_id", handler.DeleteMessage)
	r.POST("/chat/typing", handler.SetTyping)
	r.GET("/chat/typing", handler.ListTypingUsers)
	r.GET("/chat/online", handler.ListOnlineUsers)
	r.GET("/chat/settings", handler.GetSettings)
	return r
}

func TestListMessagesSuccess(t *testing.T) {
	chat := new(mocks.ChatServiceMock)
	router := setupChatRouter(NewChatHandler(chat, nil))

	chat.On("ListRecentMessages", mock.Anything, testUser).Return([]models.MessageWithUser{
		{Message: models.Message{ID: "m1", UserID: "u1", Content: "hi"}, User: testUser.Summary()},
	}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/chat/messages", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Messages []models.MessageWithUser `json:"messages"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Messages, 1)
	assert.Equal(t, "m1", resp.Messages[0].ID)
	chat.AssertExpectations(t)
}

func TestPostMessageSuccess(t *testing.T) {
	chat := new(mocks.ChatServiceMock)
	router := setupChatRouter(NewChatHandler(chat, nil))

	chat.On("Send", mock.Anything, testUser, "hello", (*string)(nil)).
		Return(models.MessageWithUser{Message: models.Message{ID: "m1", Content: "hello"}, User: testUser.Summary()}, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/chat/messages", bytes.NewBufferString(`{"content":"hello"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	chat.AssertExpectations(t)
}

func TestPostMessageMissingContent(t *testing.T) {
	chat := new(mocks.ChatServiceMock)
	router := setupChatRouter(NewChatHandler(chat, nil))

	req := httptest.NewRequest(http.MethodPost, "/chat/messages", bytes.NewBufferString(`{}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	chat.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestPostMessageChatDisabled(t *testing.T) {
	chat := new(mocks.ChatServiceMock)
	router := setupChatRouter(NewChatHandler(chat, nil))

	chat.On("Send", mock.Anything, testUser, "hello", (*string)(nil)).
		Return(models.MessageWithUser{}, apperrors.ErrChatDisabled).Once()

	req := httptest.NewRequest(http.MethodPost, "/chat/messages", bytes.NewBufferString(`{"content":"hello"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	var resp map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, false, resp["success"])
	chat.AssertExpectations(t)
}

func TestEditMessageForbidden(t *testing.T) {
	chat := new(mocks.ChatServiceMock)
	router := setupChatRouter(NewChatHandler(chat, nil))

	chat.On("Edit", mock.Anything, testUser, "m1", "new").
		Return(models.MessageWithUser{}, apperrors.ErrForbidden).Once()

	req := httptest.NewRequest(http.MethodPut, "/chat/messages/m1", bytes.NewBufferString(`{"content":"new"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
	chat.AssertExpectations(t)
}

func TestEditDeletedMessageBadRequest(t *testing.T) {
	chat := new(mocks.ChatServiceMock)
	router := setupChatRouter(NewChatHandler(chat, nil))

	chat.On("Edit", mock.Anything, testUser, "m1", "new").
		Return(models.MessageWithUser{}, apperrors.ErrMessageDeleted).Once()

	req := httptest.NewRequest(http.MethodPut, "/chat/messages/m1", bytes.NewBufferString(`{"content":"new"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	chat.AssertExpectations(t)
}

func TestDeleteMessageSuccess(t *testing.T) {
	chat := new(mocks.ChatServiceMock)
	router := setupChatRouter(NewChatHandler(chat, nil))

	chat.On("Delete", mock.Anything, testUser, "m1").Return(nil).Once()

	req := httptest.NewRequest(http.MethodDelete, "/chat/messages/m1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	chat.AssertExpectations(t)
}

func TestDeleteMessageNotFound(t *testing.T) {
	chat := new(mocks.ChatServiceMock)
	router := setupChatRouter(NewChatHandler(chat, nil))

	chat.On("Delete", mock.Anything, testUser, "ghost").Return(apperrors.ErrNotFound).Once()

	req := httptest.NewRequest(http.MethodDelete, "/chat/messages/ghost", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	chat.AssertExpectations(t)
}

func TestSetTypingRequiresFlag(t *testing.T) {
	chat := new(mocks.ChatServiceMock)
	router := setupChatRouter(NewChatHandler(chat, nil))

	req := httptest.NewRequest(http.MethodPost, "/chat/typing", bytes.NewBufferString(`{}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	chat.AssertNotCalled(t, "SetTyping", mock.Anything, mock.Anything, mock.Anything)
}

func TestSetTypingFalseAccepted(t *testing.T) {
	chat := new(mocks.ChatServiceMock)
	router := setupChatRouter(NewChatHandler(chat, nil))

	chat.On("SetTyping", mock.Anything, testUser, false).Return(nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/chat/typing", bytes.NewBufferString(`{"isTyping":false}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	chat.AssertExpectations(t)
}

func TestListTypingUsersSuccess(t *testing.T) {
	chat := new(mocks.ChatServiceMock)
	router := setupChatRouter(NewChatHandler(chat, nil))

	chat.On("ListTypingUsers", mock.Anything, testUser).
		Return([]models.UserSummary{{ID: "u2", Name: "bob"}}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/chat/typing", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	chat.AssertExpectations(t)
}

func TestGetSettingsSuccess(t *testing.T) {
	chat := new(mocks.ChatServiceMock)
	router := setupChatRouter(NewChatHandler(chat, nil))

	chat.On("GetSettings", mock.Anything).Return(models.ChatSettings{ID: 1, IsEnabled: true}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/chat/settings", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, true, resp["isEnabled"])
	chat.AssertExpectations(t)
}
