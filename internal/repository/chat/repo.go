// Package chat stores chat history messages as hashes in Redis or Valkey.
package chat

import (
	"context"
	"fmt"
	"sort"

	"github.com/kailas-cloud/docqa/internal/domain"
	domchat "github.com/kailas-cloud/docqa/internal/domain/chat"
)

// store is the consumer interface for chat messages (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	ScanHashes(ctx context.Context, pattern string) (map[string]map[string]string, error)
	Del(ctx context.Context, keys ...string) error
}

// Repo implements usecase/chat.Repository.
type Repo struct {
	store  store
	prefix string
}

// New creates a chat repository. Keys are <prefix>chat:<userId>:<messageId>.
func New(s store, keyPrefix string) *Repo {
	return &Repo{store: s, prefix: keyPrefix}
}

// Save stores a message.
func (r *Repo) Save(ctx context.Context, m domchat.Message) error {
	key := r.key(m.UserID(), m.ID())
	if err := r.store.HSet(ctx, key, messageToHash(&m)); err != nil {
		return fmt.Errorf("hset chat %s: %w", key, err)
	}
	return nil
}

// Get returns a message by id.
func (r *Repo) Get(ctx context.Context, id string) (domchat.Message, error) {
	msgs, err := r.load(ctx, r.key("*", id))
	if err != nil {
		return domchat.Message{}, err
	}
	if len(msgs) == 0 {
		return domchat.Message{}, fmt.Errorf("%w: %s", domain.ErrChatNotFound, id)
	}
	return msgs[0], nil
}

// List returns every message ordered by sentAt.
func (r *Repo) List(ctx context.Context) ([]domchat.Message, error) {
	return r.load(ctx, r.key("*", "*"))
}

// ListByUser returns a user's messages ordered by sentAt.
func (r *Repo) ListByUser(ctx context.Context, userID string) ([]domchat.Message, error) {
	return r.load(ctx, r.key(userID, "*"))
}

// Delete removes messages of one user by id.
func (r *Repo) Delete(ctx context.Context, userID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.key(userID, id)
	}
	if err := r.store.Del(ctx, keys...); err != nil {
		return fmt.Errorf("del chats of %s: %w", userID, err)
	}
	return nil
}

func (r *Repo) load(ctx context.Context, pattern string) ([]domchat.Message, error) {
	hashes, err := r.store.ScanHashes(ctx, pattern)
	if err != nil {
		return nil, fmt.Errorf("scan chats: %w", err)
	}

	msgs := make([]domchat.Message, 0, len(hashes))
	for key, h := range hashes {
		m, err := messageFromHash(h)
		if err != nil {
			return nil, fmt.Errorf("parse chat %s: %w", key, err)
		}
		msgs = append(msgs, m)
	}

	sort.Slice(msgs, func(i, j int) bool {
		if msgs[i].SentAt() != msgs[j].SentAt() {
			return msgs[i].SentAt() < msgs[j].SentAt()
		}
		return msgs[i].ID() < msgs[j].ID()
	})
	return msgs, nil
}

// Valkey key pattern: <prefix>chat:{userId}:{messageId}

func (r *Repo) key(userID, id string) string {
	return fmt.Sprintf("%schat:%s:%s", r.prefix, userID, id)
}
