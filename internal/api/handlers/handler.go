package handlers

import (
	"context"

	"github.com/ryudhis/nuxt-chat-bot/internal/config"
	"github.com/ryudhis/nuxt-chat-bot/internal/gemini"
	"github.com/ryudhis/nuxt-chat-bot/internal/models"
	"github.com/ryudhis/nuxt-chat-bot/internal/store"
)

// ModelInvoker abstracts the Gemini client so handlers can be tested
// against fake streams.
type ModelInvoker interface {
	ResolveModel(requested string, hasImage bool) string
	Stream(ctx context.Context, modelID string, contents []models.GeminiContent, temperature float64) (gemini.Stream, error)
}

// TextExtractor pulls text out of uploaded binary documents. The zero
// implementation is allowed; handlers fall back to placeholder text when
// extraction yields nothing.
type TextExtractor interface {
	ExtractPDF(data []byte) (string, error)
	TranscribeAudio(data []byte, mimeType string) (string, error)
}

type Handler struct {
	store     store.Store
	invoker   ModelInvoker
	extractor TextExtractor
	config    *config.Config
}

func NewHandler(store store.Store, invoker ModelInvoker, extractor TextExtractor, config *config.Config) *Handler {
	return &Handler{
		store:     store,
		invoker:   invoker,
		extractor: extractor,
		config:    config,
	}
}
