package models

import (
	"time"

	"github.com/google/uuid"
)

// ChatSession represents a conversation thread owned by a user.
// The title starts as a placeholder and is overwritten once by the
// title generator after the first exchange.
type ChatSession struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Title     string    `gorm:"default:'New Chat'" json:"title"`
	UserID    uuid.UUID `gorm:"type:uuid;index" json:"userId"`
}
