package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ryudhis/nuxt-chat-bot/internal/store"
)

// ListSessions returns the caller's chat sessions, newest first.
func (h *Handler) ListSessions(c *gin.Context) {
	userID := c.MustGet("userID").(uuid.UUID)

	sessions, err := h.store.ListSessions(c.Request.Context(), userID)
	if err != nil {
		log.Printf("Failed to list sessions: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list sessions"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

// CreateSession starts an empty session titled "New Chat".
func (h *Handler) CreateSession(c *gin.Context) {
	userID := c.MustGet("userID").(uuid.UUID)

	session, err := h.store.CreateSession(c.Request.Context(), userID)
	if err != nil {
		log.Printf("Failed to create session: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session"})
		return
	}

	c.JSON(http.StatusCreated, session)
}

// GetSession returns one session and its messages in chronological order.
func (h *Handler) GetSession(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid session ID"})
		return
	}

	session, err := h.store.FindSession(c.Request.Context(), sessionID)
	if err != nil {
		if errors.Is(err, store.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
			return
		}
		log.Printf("Failed to load session: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load session"})
		return
	}

	messages, err := h.store.ListMessages(c.Request.Context(), sessionID)
	if err != nil {
		log.Printf("Failed to load messages: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load messages"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session":  session,
		"messages": messages,
	})
}
