package chat

import (
	"fmt"
	"strconv"

	domchat "github.com/kailas-cloud/docqa/internal/domain/chat"
)

// messageToHash converts a message to a map for HSET.
func messageToHash(m *domchat.Message) map[string]string {
	return map[string]string{
		"id":          m.ID(),
		"user_id":     m.UserID(),
		"module_name": m.ModuleName(),
		"chat_id":     strconv.Itoa(m.ChatID()),
		"message":     m.Text(),
		"sent_by":     m.SentBy(),
		"sent_at":     strconv.FormatInt(m.SentAt(), 10),
	}
}

// messageFromHash hydrates a message from an HGETALL result map.
func messageFromHash(h map[string]string) (domchat.Message, error) {
	chatID, err := strconv.Atoi(h["chat_id"])
	if err != nil {
		return domchat.Message{}, fmt.Errorf("invalid chat_id: %w", err)
	}
	sentAt, err := strconv.ParseInt(h["sent_at"], 10, 64)
	if err != nil {
		return domchat.Message{}, fmt.Errorf("invalid sent_at: %w", err)
	}
	return domchat.Reconstruct(
		h["id"], h["user_id"], h["module_name"], chatID, h["message"], h["sent_by"], sentAt,
	), nil
}
