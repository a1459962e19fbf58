package models

import (
	"time"

	"github.com/google/uuid"
)

// Message represents one persisted chat turn. Rows are append-only.
// The attachment columns are populated only when the turn carried the
// matching attachment kind.
type Message struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	SessionID uuid.UUID `gorm:"type:uuid;index" json:"sessionId"`
	Role      string    `gorm:"type:varchar(10);check:role IN ('user', 'assistant')" json:"role"`
	Content   string    `gorm:"type:text" json:"content"`
	ImageData string    `gorm:"type:text" json:"imageData,omitempty"`
	MimeType  string    `json:"mimeType,omitempty"`
	FileName  string    `json:"fileName,omitempty"`
	PDFText   string    `gorm:"type:text;column:pdf_text" json:"pdfText,omitempty"`
	AudioData string    `gorm:"type:text" json:"audioData,omitempty"`
}
