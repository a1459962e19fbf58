package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ryudhis/nuxt-chat-bot/internal/models"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrUserNotFound    = errors.New("user not found")
)

// messageCacheTTL bounds how long a session's message list stays in Redis.
const messageCacheTTL = 24 * time.Hour

// MessageFields carries everything needed to persist one turn.
type MessageFields struct {
	SessionID uuid.UUID
	Role      string
	Content   string
	ImageData string
	MimeType  string
	FileName  string
	PDFText   string
	AudioData string
}

// Store is the persistence surface used by the handlers. The chat pipeline
// only touches FindSession, CountMessages, CreateMessage and
// UpdateSessionTitle; the rest serves the session and auth endpoints.
type Store interface {
	FindSession(ctx context.Context, id uuid.UUID) (*models.ChatSession, error)
	CountMessages(ctx context.Context, sessionID uuid.UUID) (int64, error)
	CreateMessage(ctx context.Context, fields MessageFields) (*models.Message, error)
	UpdateSessionTitle(ctx context.Context, id uuid.UUID, title string) error

	ListSessions(ctx context.Context, userID uuid.UUID) ([]models.ChatSession, error)
	CreateSession(ctx context.Context, userID uuid.UUID) (*models.ChatSession, error)
	ListMessages(ctx context.Context, sessionID uuid.UUID) ([]models.Message, error)

	CreateUser(ctx context.Context, user *models.User) error
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)
	UserExists(ctx context.Context, username, email string) (bool, error)
}

// gormStore implements Store on PostgreSQL with an optional Redis
// read-through cache for message history. A nil Redis client disables
// caching.
type gormStore struct {
	db  *gorm.DB
	rdb *redis.Client
}

// New creates a Store backed by the given connections.
func New(db *gorm.DB, rdb *redis.Client) Store {
	return &gormStore{db: db, rdb: rdb}
}

func (s *gormStore) FindSession(ctx context.Context, id uuid.UUID) (*models.ChatSession, error) {
	var session models.ChatSession
	if err := s.db.WithContext(ctx).First(&session, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("find session: %w", err)
	}
	return &session, nil
}

func (s *gormStore) CountMessages(ctx context.Context, sessionID uuid.UUID) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Message{}).Where("session_id = ?", sessionID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count messages: %w", err)
	}
	return count, nil
}

func (s *gormStore) CreateMessage(ctx context.Context, fields MessageFields) (*models.Message, error) {
	message := models.Message{
		SessionID: fields.SessionID,
		Role:      fields.Role,
		Content:   fields.Content,
		ImageData: fields.ImageData,
		MimeType:  fields.MimeType,
		FileName:  fields.FileName,
		PDFText:   fields.PDFText,
		AudioData: fields.AudioData,
	}

	if err := s.db.WithContext(ctx).Create(&message).Error; err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}

	// Cache failures never fail the write
	if err := s.cacheMessage(ctx, &message); err != nil {
		log.Printf("Failed to cache message: %v", err)
	}

	return &message, nil
}

func (s *gormStore) UpdateSessionTitle(ctx context.Context, id uuid.UUID, title string) error {
	if err := s.db.WithContext(ctx).Model(&models.ChatSession{}).Where("id = ?", id).Update("title", title).Error; err != nil {
		return fmt.Errorf("update session title: %w", err)
	}
	return nil
}

func (s *gormStore) ListSessions(ctx context.Context, userID uuid.UUID) ([]models.ChatSession, error) {
	var sessions []models.ChatSession
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&sessions).Error; err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

func (s *gormStore) CreateSession(ctx context.Context, userID uuid.UUID) (*models.ChatSession, error) {
	session := models.ChatSession{
		Title:  "New Chat",
		UserID: userID,
	}
	if err := s.db.WithContext(ctx).Create(&session).Error; err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return &session, nil
}

func (s *gormStore) ListMessages(ctx context.Context, sessionID uuid.UUID) ([]models.Message, error) {
	// Try the cache first
	if messages, err := s.getCachedMessages(ctx, sessionID); err == nil && len(messages) > 0 {
		return messages, nil
	}

	var messages []models.Message
	if err := s.db.WithContext(ctx).Where("session_id = ?", sessionID).Order("created_at ASC").Find(&messages).Error; err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}

	if err := s.cacheMessages(ctx, sessionID, messages); err != nil {
		log.Printf("Failed to cache messages: %v", err)
	}

	return messages, nil
}

func (s *gormStore) CreateUser(ctx context.Context, user *models.User) error {
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *gormStore) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &user, nil
}

func (s *gormStore) UserExists(ctx context.Context, username, email string) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("username = ? OR email = ?", username, email).Count(&count).Error; err != nil {
		return false, fmt.Errorf("check user: %w", err)
	}
	return count > 0, nil
}

func messageCacheKey(sessionID uuid.UUID) string {
	return fmt.Sprintf("session:%s:messages", sessionID.String())
}

// cacheMessage appends a persisted message to the session's Redis list.
func (s *gormStore) cacheMessage(ctx context.Context, message *models.Message) error {
	if s.rdb == nil {
		return nil
	}

	msgJSON, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	pipe := s.rdb.Pipeline()
	pipe.RPush(ctx, messageCacheKey(message.SessionID), msgJSON)
	pipe.Expire(ctx, messageCacheKey(message.SessionID), messageCacheTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache message: %w", err)
	}
	return nil
}

func (s *gormStore) getCachedMessages(ctx context.Context, sessionID uuid.UUID) ([]models.Message, error) {
	if s.rdb == nil {
		return nil, nil
	}

	cached, err := s.rdb.LRange(ctx, messageCacheKey(sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read message cache: %w", err)
	}

	messages := make([]models.Message, 0, len(cached))
	for _, msgStr := range cached {
		var message models.Message
		if err := json.Unmarshal([]byte(msgStr), &message); err != nil {
			return nil, fmt.Errorf("unmarshal cached message: %w", err)
		}
		messages = append(messages, message)
	}
	return messages, nil
}

// cacheMessages replaces the session's cached list with the database rows.
func (s *gormStore) cacheMessages(ctx context.Context, sessionID uuid.UUID, messages []models.Message) error {
	if s.rdb == nil {
		return nil
	}

	pipe := s.rdb.Pipeline()
	pipe.Del(ctx, messageCacheKey(sessionID))

	for i := range messages {
		msgJSON, err := json.Marshal(&messages[i])
		if err != nil {
			log.Printf("Failed to marshal message: %v", err)
			continue
		}
		pipe.RPush(ctx, messageCacheKey(sessionID), msgJSON)
	}

	pipe.Expire(ctx, messageCacheKey(sessionID), messageCacheTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache messages: %w", err)
	}
	return nil
}
