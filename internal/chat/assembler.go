package chat

import (
	"github.com/ryudhis/nuxt-chat-bot/internal/models"
)

// BuildContents converts the request history into Gemini contents, in order.
// Every turn except the last keeps its original text; the last turn's content
// is replaced by latestParts (enhanced text, or text plus inline image).
//
// Callers must validate beforehand that the history is non-empty and ends
// with a user turn.
func BuildContents(turns []Turn, latestParts []models.GeminiPart) []models.GeminiContent {
	contents := make([]models.GeminiContent, 0, len(turns))

	for _, turn := range turns[:len(turns)-1] {
		role := turn.Role
		if role == "assistant" {
			role = "model"
		}
		contents = append(contents, models.GeminiContent{
			Role:  role,
			Parts: []models.GeminiPart{{Text: turn.Content}},
		})
	}

	contents = append(contents, models.GeminiContent{
		Role:  "user",
		Parts: latestParts,
	})

	return contents
}
