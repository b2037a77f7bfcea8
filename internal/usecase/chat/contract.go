package chat

import (
	"context"

	domchat "github.com/kailas-cloud/docqa/internal/domain/chat"
)

// Repository defines the storage contract for chat messages.
type Repository interface {
	Save(ctx context.Context, m domchat.Message) error
	Get(ctx context.Context, id string) (domchat.Message, error)
	List(ctx context.Context) ([]domchat.Message, error)
	ListByUser(ctx context.Context, userID string) ([]domchat.Message, error)
	Delete(ctx context.Context, userID string, ids []string) error
}
