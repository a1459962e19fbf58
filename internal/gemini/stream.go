package gemini

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"

	"github.com/ryudhis/nuxt-chat-bot/internal/models"
)

// Stream is a single-consumer, single-pass sequence of text deltas from one
// model call. It cannot be restarted.
type Stream interface {
	// Recv blocks for the next delta. io.EOF signals normal exhaustion;
	// any other error terminates the sequence.
	Recv() (string, error)
	// Text returns the deltas received so far, concatenated.
	Text() string
	// Close releases the producer goroutine. Idempotent; callers must Close
	// when abandoning a stream before exhaustion.
	Close()
}

// apiStream drains the HTTP response body in a producer goroutine and feeds
// deltas through an unbuffered channel, so the upstream read rate is coupled
// to the consumer.
type apiStream struct {
	deltas    chan string
	errc      chan error
	quit      chan struct{}
	closeOnce sync.Once
	full      strings.Builder
}

func newAPIStream() *apiStream {
	return &apiStream{
		deltas: make(chan string),
		errc:   make(chan error, 1),
		quit:   make(chan struct{}),
	}
}

// consume scans the SSE body line by line, extracting text parts from each
// chunk. It owns closing the body and the deltas channel.
func (s *apiStream) consume(body io.ReadCloser) {
	defer close(s.deltas)
	defer body.Close()

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		payload := strings.TrimPrefix(line, "data: ")
		if payload == "[DONE]" {
			return
		}

		var chunk models.GeminiStreamChunk
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			log.Printf("❌ Error parsing Gemini chunk: %v", err)
			continue
		}

		if chunk.Error != nil {
			s.errc <- fmt.Errorf("gemini: %s: %s", chunk.Error.Status, chunk.Error.Message)
			return
		}

		for _, candidate := range chunk.Candidates {
			for _, part := range candidate.Content.Parts {
				if part.Text == "" {
					continue
				}
				select {
				case s.deltas <- part.Text:
				case <-s.quit:
					return
				}
			}
		}
	}

	if err := scanner.Err(); err != nil {
		s.errc <- fmt.Errorf("gemini: read stream: %w", err)
	}
}

func (s *apiStream) Recv() (string, error) {
	delta, ok := <-s.deltas
	if !ok {
		select {
		case err := <-s.errc:
			return "", err
		default:
			return "", io.EOF
		}
	}
	s.full.WriteString(delta)
	return delta, nil
}

func (s *apiStream) Text() string {
	return s.full.String()
}

func (s *apiStream) Close() {
	s.closeOnce.Do(func() { close(s.quit) })
}
