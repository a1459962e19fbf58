package chat

import (
	"fmt"
	"strings"

	"github.com/ryudhis/nuxt-chat-bot/internal/models"
)

// Turn is one message in the request body history.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Attachment is the raw descriptor sent by the client alongside a turn.
// Image attachments carry base64 data; pdf and audio attachments carry the
// text already extracted by the upload endpoint.
type Attachment struct {
	Type          string `json:"type"`
	Data          string `json:"data,omitempty"`
	MimeType      string `json:"mimeType,omitempty"`
	FileName      string `json:"fileName,omitempty"`
	ExtractedText string `json:"extractedText,omitempty"`
}

// noExtractedText stands in when a pdf/audio attachment arrives without
// extracted text, so the prompt block is never silently empty.
const noExtractedText = "[tidak ada teks yang diekstrak]"

// AttachmentRecord carries the kind-specific columns for a Message row.
type AttachmentRecord struct {
	ImageData string
	MimeType  string
	FileName  string
	PDFText   string
	AudioData string
}

// NormalizedInput is the three-way output of attachment normalization:
// persistence fields, the text prompt with any extracted content appended,
// and the content parts to submit to the model for the latest turn.
type NormalizedInput struct {
	Record         AttachmentRecord
	EnhancedPrompt string
	Parts          []models.GeminiPart
	HasImage       bool
}

// NormalizeInput shapes the latest turn's text and at most one attachment.
// Unsupported or malformed attachments are ignored rather than rejected, so
// the turn always degrades to plain text.
func NormalizeInput(text string, attachments []Attachment) NormalizedInput {
	input := NormalizedInput{
		EnhancedPrompt: text,
		Parts:          []models.GeminiPart{{Text: text}},
	}

	if len(attachments) == 0 {
		return input
	}

	// Only the first attachment of a turn is processed.
	att := attachments[0]

	switch att.Type {
	case "image":
		if att.Data == "" {
			return input
		}
		input.Record = AttachmentRecord{
			ImageData: att.Data,
			MimeType:  att.MimeType,
			FileName:  att.FileName,
		}
		input.Parts = []models.GeminiPart{
			{Text: text},
			{InlineData: &models.GeminiInlineData{
				MimeType: att.MimeType,
				Data:     stripDataURL(att.Data),
			}},
		}
		input.HasImage = true

	case "pdf":
		extracted := att.ExtractedText
		if extracted == "" {
			extracted = noExtractedText
		}
		input.Record = AttachmentRecord{
			MimeType: att.MimeType,
			FileName: att.FileName,
			PDFText:  extracted,
		}
		input.EnhancedPrompt = fmt.Sprintf("%s\n\nIsi dokumen PDF %q:\n%s", text, att.FileName, extracted)
		input.Parts = []models.GeminiPart{{Text: input.EnhancedPrompt}}

	case "audio":
		extracted := att.ExtractedText
		if extracted == "" {
			extracted = noExtractedText
		}
		input.Record = AttachmentRecord{
			MimeType:  att.MimeType,
			FileName:  att.FileName,
			AudioData: att.Data,
		}
		input.EnhancedPrompt = fmt.Sprintf("%s\n\nTranskrip audio %q:\n%s", text, att.FileName, extracted)
		input.Parts = []models.GeminiPart{{Text: input.EnhancedPrompt}}
	}

	return input
}

// stripDataURL drops a "data:<mime>;base64," prefix if present, leaving the
// bare base64 payload Gemini expects.
func stripDataURL(data string) string {
	if i := strings.Index(data, ","); i >= 0 && strings.HasPrefix(data, "data:") {
		return data[i+1:]
	}
	return data
}
