package handlers

import (
	"context"
	"errors"
	"io"

	"github.com/google/uuid"

	"github.com/ryudhis/nuxt-chat-bot/internal/gemini"
	"github.com/ryudhis/nuxt-chat-bot/internal/models"
	"github.com/ryudhis/nuxt-chat-bot/internal/store"
)

// fakeStore is an in-memory Store that records writes for assertions.
type fakeStore struct {
	sessions map[uuid.UUID]*models.ChatSession
	messages map[uuid.UUID][]models.Message
	users    map[string]*models.User
	titles   map[uuid.UUID]string

	createMessageErr error
	created          []store.MessageFields
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		sessions: make(map[uuid.UUID]*models.ChatSession),
		messages: make(map[uuid.UUID][]models.Message),
		users:    make(map[string]*models.User),
		titles:   make(map[uuid.UUID]string),
	}
}

func (f *fakeStore) addSession(id uuid.UUID, existingMessages int) {
	f.sessions[id] = &models.ChatSession{ID: id, Title: "New Chat"}
	for i := 0; i < existingMessages; i++ {
		f.messages[id] = append(f.messages[id], models.Message{SessionID: id, Role: "user", Content: "older"})
	}
}

func (f *fakeStore) FindSession(ctx context.Context, id uuid.UUID) (*models.ChatSession, error) {
	session, ok := f.sessions[id]
	if !ok {
		return nil, store.ErrSessionNotFound
	}
	return session, nil
}

func (f *fakeStore) CountMessages(ctx context.Context, sessionID uuid.UUID) (int64, error) {
	return int64(len(f.messages[sessionID])), nil
}

func (f *fakeStore) CreateMessage(ctx context.Context, fields store.MessageFields) (*models.Message, error) {
	if f.createMessageErr != nil {
		return nil, f.createMessageErr
	}
	f.created = append(f.created, fields)
	message := models.Message{
		ID:        uuid.New(),
		SessionID: fields.SessionID,
		Role:      fields.Role,
		Content:   fields.Content,
		ImageData: fields.ImageData,
		MimeType:  fields.MimeType,
		FileName:  fields.FileName,
		PDFText:   fields.PDFText,
		AudioData: fields.AudioData,
	}
	f.messages[fields.SessionID] = append(f.messages[fields.SessionID], message)
	return &message, nil
}

func (f *fakeStore) UpdateSessionTitle(ctx context.Context, id uuid.UUID, title string) error {
	if _, ok := f.sessions[id]; !ok {
		return store.ErrSessionNotFound
	}
	f.titles[id] = title
	return nil
}

func (f *fakeStore) ListSessions(ctx context.Context, userID uuid.UUID) ([]models.ChatSession, error) {
	var out []models.ChatSession
	for _, s := range f.sessions {
		if s.UserID == userID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeStore) CreateSession(ctx context.Context, userID uuid.UUID) (*models.ChatSession, error) {
	session := &models.ChatSession{ID: uuid.New(), Title: "New Chat", UserID: userID}
	f.sessions[session.ID] = session
	return session, nil
}

func (f *fakeStore) ListMessages(ctx context.Context, sessionID uuid.UUID) ([]models.Message, error) {
	return f.messages[sessionID], nil
}

func (f *fakeStore) CreateUser(ctx context.Context, user *models.User) error {
	user.ID = uuid.New()
	f.users[user.Username] = user
	return nil
}

func (f *fakeStore) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	user, ok := f.users[username]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	return user, nil
}

func (f *fakeStore) UserExists(ctx context.Context, username, email string) (bool, error) {
	_, ok := f.users[username]
	return ok, nil
}

// fakeStream replays scripted deltas, then a terminal error (io.EOF for a
// normal finish).
type fakeStream struct {
	deltas   []string
	terminal error
	pos      int
	text     string
	closed   bool
}

func (s *fakeStream) Recv() (string, error) {
	if s.pos >= len(s.deltas) {
		if s.terminal != nil {
			return "", s.terminal
		}
		return "", io.EOF
	}
	delta := s.deltas[s.pos]
	s.pos++
	s.text += delta
	return delta, nil
}

func (s *fakeStream) Text() string { return s.text }
func (s *fakeStream) Close()       { s.closed = true }

// invocation records one Stream call on the fake invoker.
type invocation struct {
	modelID     string
	contents    []models.GeminiContent
	temperature float64
}

// fakeInvoker hands out scripted streams in call order.
type fakeInvoker struct {
	defaultModel string
	visionModel  string
	streams      []*fakeStream
	streamErr    error
	calls        []invocation
}

func (f *fakeInvoker) ResolveModel(requested string, hasImage bool) string {
	model := f.defaultModel
	if requested != "" {
		model = requested
	}
	if hasImage {
		model = f.visionModel
	}
	return model
}

func (f *fakeInvoker) Stream(ctx context.Context, modelID string, contents []models.GeminiContent, temperature float64) (gemini.Stream, error) {
	f.calls = append(f.calls, invocation{modelID: modelID, contents: contents, temperature: temperature})
	if f.streamErr != nil {
		return nil, f.streamErr
	}
	if len(f.streams) == 0 {
		return nil, errors.New("no scripted stream")
	}
	stream := f.streams[0]
	f.streams = f.streams[1:]
	return stream, nil
}

// fakeExtractor returns canned extraction results.
type fakeExtractor struct {
	pdfText    string
	pdfErr     error
	transcript string
	audioErr   error
}

func (f *fakeExtractor) ExtractPDF(data []byte) (string, error) {
	return f.pdfText, f.pdfErr
}

func (f *fakeExtractor) TranscribeAudio(data []byte, mimeType string) (string, error) {
	return f.transcript, f.audioErr
}
