// Package chatservice keeps the append-only assistant conversation and
// produces replies through a pluggable Responder.
package chatservice

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/aoyagi/manabi/internal/models"
	"github.com/aoyagi/manabi/internal/store"
)

// FallbackReply is appended as an assistant turn whenever reply generation
// fails. The failure itself is still returned to the caller.
const FallbackReply = "申し訳ありません。一時的に応答できません。しばらく待ってから再度お試しください。"

// Service manages the chat history and assistant replies.
type Service struct {
	mu        sync.Mutex
	store     store.Provider
	responder Responder
	messages  []models.ChatMessage
	onMessage func(models.ChatMessage)
}

// NewService creates a chat service. onMessage may be nil.
func NewService(st store.Provider, responder Responder, onMessage func(models.ChatMessage)) *Service {
	return &Service{store: st, responder: responder, onMessage: onMessage}
}

// LoadHistory reads the persisted history into memory. An absent file
// yields an empty history, not an error.
func (s *Service) LoadHistory(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	msgs, err := s.store.LoadChatHistory()
	if err != nil {
		return fmt.Errorf("chatservice: load history: %w", err)
	}
	s.messages = msgs
	return nil
}

// SendMessage appends the user message, persists it, and asks the
// responder for a reply. Whitespace-only input is a no-op. When reply
// generation fails, a fixed fallback turn is appended and the failure is
// still returned; neither suppresses the other.
func (s *Service) SendMessage(ctx context.Context, text string) (models.ChatMessage, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return models.ChatMessage{}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	user := models.NewChatMessage(trimmed, true)
	s.appendLocked(user)

	reply, err := s.responder.GenerateReply(ctx, trimmed, s.snapshotLocked())
	if err != nil {
		fallback := models.NewChatMessage(FallbackReply, false)
		s.appendLocked(fallback)
		return fallback, fmt.Errorf("chatservice: generate reply: %w", err)
	}

	assistant := models.NewChatMessage(reply, false)
	s.appendLocked(assistant)
	return assistant, nil
}

// ClearHistory deletes the persisted file and empties the in-memory
// history unconditionally. A failed file delete is swallowed.
func (s *Service) ClearHistory(_ context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.DeleteChatHistory(); err != nil {
		slog.Warn("chat history delete failed", slog.String("error", err.Error()))
	}
	s.messages = []models.ChatMessage{}
}

// Messages returns a copy of the in-memory history in order.
func (s *Service) Messages() []models.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// appendLocked adds msg to memory and persists it by read-all, push,
// write-all of the history file. A persist failure keeps the message in
// memory so the conversation stays coherent on screen.
func (s *Service) appendLocked(msg models.ChatMessage) {
	s.messages = append(s.messages, msg)

	persisted, err := s.store.LoadChatHistory()
	if err != nil {
		slog.Warn("chat history read failed", slog.String("error", err.Error()))
		return
	}
	persisted = append(persisted, msg)
	if err := s.store.SaveChatHistory(persisted); err != nil {
		slog.Warn("chat history save failed", slog.String("error", err.Error()))
	}

	if s.onMessage != nil {
		s.onMessage(msg)
	}
}

func (s *Service) snapshotLocked() []models.ChatMessage {
	out := make([]models.ChatMessage, len(s.messages))
	copy(out, s.messages)
	return out
}
