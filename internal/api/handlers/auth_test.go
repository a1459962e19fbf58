package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthRouter(st *fakeStore) *gin.Engine {
	h := NewHandler(st, &fakeInvoker{defaultModel: "gemini-2.5-flash"}, nil, testConfig())
	r := gin.New()
	r.POST("/api/auth/register", h.Register)
	r.POST("/api/auth/login", h.Login)
	return r
}

func postJSON(t *testing.T, r *gin.Engine, path string, body gin.H) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRegisterAndLogin(t *testing.T) {
	st := newFakeStore()
	r := newAuthRouter(st)

	w := postJSON(t, r, "/api/auth/register", gin.H{
		"username": "budi",
		"email":    "budi@example.com",
		"password": "rahasia123",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var registered AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &registered))
	assert.NotEmpty(t, registered.Token)
	assert.Equal(t, "budi", registered.User.Username)

	// The stored hash is not the plaintext password
	assert.NotEqual(t, "rahasia123", st.users["budi"].PasswordHash)

	w = postJSON(t, r, "/api/auth/login", gin.H{
		"username": "budi",
		"password": "rahasia123",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var logged AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &logged))
	assert.NotEmpty(t, logged.Token)
	assert.Equal(t, registered.User.ID, logged.User.ID)
}

func TestRegisterRejectsWeakPasswords(t *testing.T) {
	r := newAuthRouter(newFakeStore())

	tests := []struct {
		name     string
		password string
	}{
		{"too short", "ab1"},
		{"no digit", "passwordpassword"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(t, r, "/api/auth/register", gin.H{
				"username": "budi",
				"email":    "budi@example.com",
				"password": tt.password,
			})
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	st := newFakeStore()
	r := newAuthRouter(st)

	body := gin.H{"username": "budi", "email": "budi@example.com", "password": "rahasia123"}
	w := postJSON(t, r, "/api/auth/register", body)
	require.Equal(t, http.StatusCreated, w.Code)

	w = postJSON(t, r, "/api/auth/register", body)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestLoginWrongPassword(t *testing.T) {
	st := newFakeStore()
	r := newAuthRouter(st)

	w := postJSON(t, r, "/api/auth/register", gin.H{
		"username": "budi",
		"email":    "budi@example.com",
		"password": "rahasia123",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = postJSON(t, r, "/api/auth/login", gin.H{
		"username": "budi",
		"password": "salah123",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLoginUnknownUser(t *testing.T) {
	r := newAuthRouter(newFakeStore())

	w := postJSON(t, r, "/api/auth/login", gin.H{
		"username": "siapa",
		"password": "rahasia123",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
