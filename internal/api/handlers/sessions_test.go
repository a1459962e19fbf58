package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ryudhis/nuxt-chat-bot/internal/models"
)

// newSessionRouter wires the session routes with the auth middleware
// replaced by a stub that injects the given user.
func newSessionRouter(st *fakeStore, userID uuid.UUID) *gin.Engine {
	h := NewHandler(st, &fakeInvoker{defaultModel: "gemini-2.5-flash"}, nil, testConfig())
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", userID)
	})
	r.GET("/api/sessions", h.ListSessions)
	r.POST("/api/sessions", h.CreateSession)
	r.GET("/api/sessions/:id", h.GetSession)
	return r
}

func TestCreateSession(t *testing.T) {
	userID := uuid.New()
	st := newFakeStore()
	r := newSessionRouter(st, userID)

	req := httptest.NewRequest(http.MethodPost, "/api/sessions", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)

	var session models.ChatSession
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &session))
	assert.Equal(t, "New Chat", session.Title)
	assert.Equal(t, userID, session.UserID)
}

func TestListSessionsScopedToUser(t *testing.T) {
	userID := uuid.New()
	st := newFakeStore()

	mine, err := st.CreateSession(nil, userID)
	require.NoError(t, err)
	_, err = st.CreateSession(nil, uuid.New())
	require.NoError(t, err)

	r := newSessionRouter(st, userID)
	req := httptest.NewRequest(http.MethodGet, "/api/sessions", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Sessions []models.ChatSession `json:"sessions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Sessions, 1)
	assert.Equal(t, mine.ID, resp.Sessions[0].ID)
}

func TestGetSessionWithMessages(t *testing.T) {
	userID := uuid.New()
	st := newFakeStore()
	session, err := st.CreateSession(nil, userID)
	require.NoError(t, err)
	st.messages[session.ID] = []models.Message{
		{SessionID: session.ID, Role: "user", Content: "halo"},
		{SessionID: session.ID, Role: "assistant", Content: "halo juga"},
	}

	r := newSessionRouter(st, userID)
	req := httptest.NewRequest(http.MethodGet, "/api/sessions/"+session.ID.String(), nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Session  models.ChatSession `json:"session"`
		Messages []models.Message   `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, session.ID, resp.Session.ID)
	require.Len(t, resp.Messages, 2)
	assert.Equal(t, "user", resp.Messages[0].Role)
	assert.Equal(t, "assistant", resp.Messages[1].Role)
}

func TestGetSessionNotFound(t *testing.T) {
	r := newSessionRouter(newFakeStore(), uuid.New())

	req := httptest.NewRequest(http.MethodGet, "/api/sessions/"+uuid.New().String(), nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetSessionBadID(t *testing.T) {
	r := newSessionRouter(newFakeStore(), uuid.New())

	req := httptest.NewRequest(http.MethodGet, "/api/sessions/not-a-uuid", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
