// Package chat manages per-user chat history with owner-or-admin access rules.
package chat

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docqa/internal/domain"
	domchat "github.com/kailas-cloud/docqa/internal/domain/chat"
	"github.com/kailas-cloud/docqa/internal/domain/principal"
)

// AddInput is a new message as submitted by a client.
type AddInput struct {
	UserID     string
	ModuleName string
	ChatID     int
	Message    string
	SentBy     string
}

// Conversation identifies one chat thread of a user within a module.
type Conversation struct {
	UserID     string
	ModuleName string
	ChatID     int
}

// Service handles chat history operations.
type Service struct {
	repo   Repository
	logger *zap.Logger
}

// New creates a chat service.
func New(repo Repository, logger *zap.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// All returns every stored message. Admin only.
func (s *Service) All(ctx context.Context, p principal.Principal) ([]domchat.Message, error) {
	if !p.IsAdmin() {
		return nil, domain.ErrForbidden
	}
	msgs, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	return msgs, nil
}

// Find returns one message visible to p.
func (s *Service) Find(ctx context.Context, p principal.Principal, id string) (domchat.Message, error) {
	if _, err := uuid.Parse(id); err != nil {
		return domchat.Message{}, fmt.Errorf("%w: invalid chat id", domain.ErrValidation)
	}
	m, err := s.repo.Get(ctx, id)
	if err != nil {
		return domchat.Message{}, fmt.Errorf("get chat: %w", err)
	}
	if !p.CanAccess(m.UserID()) {
		return domchat.Message{}, domain.ErrForbidden
	}
	return m, nil
}

// ByUser returns a user's messages, oldest first.
func (s *Service) ByUser(ctx context.Context, p principal.Principal, userID string) ([]domchat.Message, error) {
	if err := authorize(p, userID); err != nil {
		return nil, err
	}
	msgs, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list chats of %s: %w", userID, err)
	}
	return msgs, nil
}

// Last returns a user's most recent message.
func (s *Service) Last(ctx context.Context, p principal.Principal, userID string) (domchat.Message, error) {
	msgs, err := s.ByUser(ctx, p, userID)
	if err != nil {
		return domchat.Message{}, err
	}
	if len(msgs) == 0 {
		return domchat.Message{}, fmt.Errorf("%w: no messages for %s", domain.ErrChatNotFound, userID)
	}
	return msgs[len(msgs)-1], nil
}

// Add stores a new message on behalf of in.UserID.
func (s *Service) Add(ctx context.Context, p principal.Principal, in AddInput) (domchat.Message, error) {
	if err := authorize(p, in.UserID); err != nil {
		return domchat.Message{}, err
	}
	m, err := domchat.New(in.UserID, in.ModuleName, in.ChatID, in.Message, in.SentBy)
	if err != nil {
		return domchat.Message{}, err
	}
	if err := s.repo.Save(ctx, m); err != nil {
		return domchat.Message{}, fmt.Errorf("save chat: %w", err)
	}
	s.logger.Debug("Chat message added",
		zap.String("user_id", m.UserID()),
		zap.String("module", m.ModuleName()),
		zap.Int("chat_id", m.ChatID()),
	)
	return m, nil
}

// Delete removes every message of one conversation and returns how many were removed.
func (s *Service) Delete(ctx context.Context, p principal.Principal, c Conversation) (int, error) {
	if err := authorize(p, c.UserID); err != nil {
		return 0, err
	}
	msgs, err := s.repo.ListByUser(ctx, c.UserID)
	if err != nil {
		return 0, fmt.Errorf("list chats of %s: %w", c.UserID, err)
	}

	var ids []string
	for i := range msgs {
		if msgs[i].ModuleName() == c.ModuleName && msgs[i].ChatID() == c.ChatID {
			ids = append(ids, msgs[i].ID())
		}
	}
	if len(ids) == 0 {
		return 0, nil
	}
	if err := s.repo.Delete(ctx, c.UserID, ids); err != nil {
		return 0, fmt.Errorf("delete chat %d: %w", c.ChatID, err)
	}
	s.logger.Info("Chat deleted",
		zap.String("user_id", c.UserID),
		zap.String("module", c.ModuleName),
		zap.Int("chat_id", c.ChatID),
		zap.Int("messages", len(ids)),
	)
	return len(ids), nil
}

// authorize validates userID and checks that p may act on it.
func authorize(p principal.Principal, userID string) error {
	if err := domchat.ValidateUserID(userID); err != nil {
		return err
	}
	if !p.CanAccess(userID) {
		return domain.ErrForbidden
	}
	return nil
}
