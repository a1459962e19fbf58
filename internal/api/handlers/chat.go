package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ryudhis/nuxt-chat-bot/internal/chat"
	"github.com/ryudhis/nuxt-chat-bot/internal/models"
	"github.com/ryudhis/nuxt-chat-bot/internal/store"
)

// titleTemperature keeps title generation close to deterministic.
const titleTemperature = 0.1

type ChatMessage struct {
	Role    string `json:"role" binding:"required"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Messages    []ChatMessage     `json:"messages" binding:"required"`
	SessionID   string            `json:"sessionId" binding:"required"`
	Model       string            `json:"aiModel"`
	Attachments []chat.Attachment `json:"attachments"`
}

// streamEvent is one JSON frame on the wire. Exactly one field is set.
type streamEvent struct {
	Content      string `json:"content,omitempty"`
	SessionTitle string `json:"sessionTitle,omitempty"`
	Error        string `json:"error,omitempty"`
}

func writeStreamEvent(w io.Writer, event streamEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("Failed to marshal stream event: %v", err)
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", payload)
}

// StreamChat runs one conversational turn: it persists the user's message,
// invokes the model and relays its deltas as SSE frames, then persists the
// assistant's reply. On a session's first exchange it also generates a
// title and pushes it down the same stream.
func (h *Handler) StreamChat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input", "details": err.Error()})
		return
	}

	if len(req.Messages) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Messages are required"})
		return
	}

	latest := req.Messages[len(req.Messages)-1]
	if latest.Role != "user" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Last message must be from the user"})
		return
	}

	sessionID, err := uuid.Parse(req.SessionID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid session ID"})
		return
	}

	if h.config.GoogleAPIKey == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "AI service is not configured"})
		return
	}

	ctx := c.Request.Context()

	if _, err := h.store.FindSession(ctx, sessionID); err != nil {
		if errors.Is(err, store.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
			return
		}
		log.Printf("Failed to load session: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load session"})
		return
	}

	messageCount, err := h.store.CountMessages(ctx, sessionID)
	if err != nil {
		log.Printf("Failed to count messages: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load session"})
		return
	}
	// The first exchange is decided before this turn's messages are saved
	isFirstExchange := messageCount == 0

	input := chat.NormalizeInput(latest.Content, req.Attachments)

	turns := make([]chat.Turn, 0, len(req.Messages))
	for _, m := range req.Messages {
		turns = append(turns, chat.Turn{Role: m.Role, Content: m.Content})
	}
	contents := chat.BuildContents(turns, input.Parts)

	// The user's message is saved before the model call so a model failure
	// never loses their input
	if _, err := h.store.CreateMessage(ctx, store.MessageFields{
		SessionID: sessionID,
		Role:      "user",
		Content:   latest.Content,
		ImageData: input.Record.ImageData,
		MimeType:  input.Record.MimeType,
		FileName:  input.Record.FileName,
		PDFText:   input.Record.PDFText,
		AudioData: input.Record.AudioData,
	}); err != nil {
		log.Printf("Failed to save user message: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save user message"})
		return
	}

	modelID := h.invoker.ResolveModel(req.Model, input.HasImage)

	stream, err := h.invoker.Stream(ctx, modelID, contents, h.config.GeminiTemperature)
	if err != nil {
		log.Printf("❌ Failed to start model stream: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get AI response"})
		return
	}
	defer stream.Close()

	log.Printf("✅ Streaming response from %s", modelID)

	c.Header("Content-Type", "text/plain; charset=utf-8")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Writer.WriteHeaderNow()

	flusher, _ := c.Writer.(http.Flusher)
	out := flushWriter{w: c.Writer, f: flusher}

	for {
		select {
		case <-ctx.Done():
			// Client gone; the context cancellation also tears down the
			// upstream call, and nothing more may be written
			log.Println("⚠️ Client disconnected, aborting stream")
			return
		default:
		}

		delta, err := stream.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) {
				h.finishStream(c, out, stream.Text(), sessionID, latest.Content, isFirstExchange)
				return
			}
			// No [DONE] marker here: the client must see the stream as
			// interrupted, and the partial reply is discarded
			log.Printf("❌ Stream error: %v", err)
			writeStreamEvent(out, streamEvent{Error: "AI response interrupted"})
			return
		}

		writeStreamEvent(out, streamEvent{Content: delta})
	}
}

// flushWriter pushes each frame to the client as soon as it is written.
type flushWriter struct {
	w io.Writer
	f http.Flusher
}

func (fw flushWriter) Write(p []byte) (int, error) {
	n, err := fw.w.Write(p)
	if fw.f != nil {
		fw.f.Flush()
	}
	return n, err
}

// finishStream persists the assistant's reply and, on the session's first
// exchange, generates and emits a title before the [DONE] marker.
func (h *Handler) finishStream(c *gin.Context, w io.Writer, assistantText string, sessionID uuid.UUID, userText string, isFirstExchange bool) {
	ctx := c.Request.Context()

	if _, err := h.store.CreateMessage(ctx, store.MessageFields{
		SessionID: sessionID,
		Role:      "assistant",
		Content:   assistantText,
	}); err != nil {
		// The client already has the full reply; losing the row is logged,
		// not surfaced
		log.Printf("Failed to save assistant response: %v", err)
	}

	if isFirstExchange {
		if title, ok := h.generateTitle(sessionID, userText, assistantText); ok {
			writeStreamEvent(w, streamEvent{SessionTitle: title})
		}
	}

	fmt.Fprint(w, "data: [DONE]\n\n")
	log.Println("✅ Response completed")
}

// generateTitle asks the model for a short session title and stores it.
// Any model or persistence failure skips the title entirely, leaving the
// session at its placeholder; the fixed fallback title applies only when
// the model answered but the answer sanitized down to nothing usable.
func (h *Handler) generateTitle(sessionID uuid.UUID, userText, assistantText string) (string, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), h.config.TitleTimeout)
	defer cancel()

	contents := []models.GeminiContent{{
		Role:  "user",
		Parts: []models.GeminiPart{{Text: chat.TitlePrompt(userText, assistantText)}},
	}}

	modelID := h.invoker.ResolveModel("", false)
	stream, err := h.invoker.Stream(ctx, modelID, contents, titleTemperature)
	if err != nil {
		log.Printf("⚠️ Title generation failed: %v", err)
		return "", false
	}
	defer stream.Close()

	var raw strings.Builder
	for {
		delta, err := stream.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			log.Printf("⚠️ Title stream error: %v", err)
			return "", false
		}
		raw.WriteString(delta)
	}

	title := chat.SanitizeTitle(raw.String())
	if err := h.store.UpdateSessionTitle(ctx, sessionID, title); err != nil {
		log.Printf("⚠️ Failed to update session title: %v", err)
		return "", false
	}

	return title, true
}
