package chat

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// DefaultTitle is used when the model returns nothing usable.
const DefaultTitle = "Chat Baru"

const maxTitleLength = 50

var (
	titleLabelPattern  = regexp.MustCompile(`(?i)^(judul|title):\s*`)
	titleLeadInPattern = regexp.MustCompile(`(?i)^berikut.*?judul.*?:`)
)

// TitlePrompt builds the distillation prompt for the session title call,
// embedding the user's text and the assistant's full response.
func TitlePrompt(userText, assistantText string) string {
	return fmt.Sprintf(`Berdasarkan percakapan berikut, buatlah HANYA judul singkat (maksimal 5 kata dalam bahasa Indonesia). Jangan berikan penjelasan atau kalimat lain, hanya judul saja:

User: %s
Assistant: %s

Jawab dengan judul singkat saja:`, userText, assistantText)
}

// SanitizeTitle cleans raw model output into a session title: label and
// explanatory lead-in removed, first line only, wrapping quotes stripped,
// truncated to 50 characters, with a fixed fallback for empty or too-short
// results.
func SanitizeTitle(raw string) string {
	title := strings.TrimSpace(raw)
	title = titleLabelPattern.ReplaceAllString(title, "")
	title = titleLeadInPattern.ReplaceAllString(title, "")

	// Take only the first line
	if i := strings.IndexByte(title, '\n'); i >= 0 {
		title = title[:i]
	}

	title = strings.Trim(title, `"'`)
	title = strings.TrimSpace(title)

	if utf8.RuneCountInString(title) > maxTitleLength {
		title = string([]rune(title)[:maxTitleLength-3]) + "..."
	}

	if utf8.RuneCountInString(title) < 3 {
		return DefaultTitle
	}
	return title
}
