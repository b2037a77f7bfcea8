// Package chat holds the chat history record kept per user and module.
package chat

import (
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/kailas-cloud/docqa/internal/domain"
	"github.com/kailas-cloud/docqa/internal/domain/module"
)

// MaxMessageLength is the maximum message size in bytes.
const MaxMessageLength = 64 * 1024

var userIDRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,64}$`)

// Message is one chat history entry (immutable value object).
type Message struct {
	id         string
	userID     string
	moduleName string
	chatID     int
	text       string
	sentBy     string
	sentAt     int64
}

// New validates the fields and creates a message with a fresh id, stamped now.
func New(userID, moduleName string, chatID int, text, sentBy string) (Message, error) {
	if err := ValidateUserID(userID); err != nil {
		return Message{}, err
	}
	if _, err := module.New(moduleName); err != nil {
		return Message{}, err
	}
	if chatID <= 0 {
		return Message{}, fmt.Errorf("%w: chatId must be positive", domain.ErrValidation)
	}
	if text == "" {
		return Message{}, fmt.Errorf("%w: message is required", domain.ErrValidation)
	}
	if len(text) > MaxMessageLength {
		return Message{}, fmt.Errorf("%w: message too long (max %d)", domain.ErrValidation, MaxMessageLength)
	}
	if sentBy == "" {
		return Message{}, fmt.Errorf("%w: sentBy is required", domain.ErrValidation)
	}

	return Message{
		id:         uuid.NewString(),
		userID:     userID,
		moduleName: moduleName,
		chatID:     chatID,
		text:       text,
		sentBy:     sentBy,
		sentAt:     time.Now().UnixMilli(),
	}, nil
}

// Reconstruct creates a Message without validation (storage hydration).
func Reconstruct(id, userID, moduleName string, chatID int, text, sentBy string, sentAt int64) Message {
	return Message{
		id:         id,
		userID:     userID,
		moduleName: moduleName,
		chatID:     chatID,
		text:       text,
		sentBy:     sentBy,
		sentAt:     sentAt,
	}
}

// ValidateUserID checks that id is usable inside a storage key.
func ValidateUserID(id string) error {
	if !userIDRegex.MatchString(id) {
		return fmt.Errorf("%w: userId must be 1-64 alphanumeric, underscore or hyphen characters", domain.ErrValidation)
	}
	return nil
}

// ID returns the message id.
func (m *Message) ID() string { return m.id }

// UserID returns the owning user id.
func (m *Message) UserID() string { return m.userID }

// ModuleName returns the module the conversation is about.
func (m *Message) ModuleName() string { return m.moduleName }

// ChatID returns the conversation number within the user's module history.
func (m *Message) ChatID() int { return m.chatID }

// Text returns the message body.
func (m *Message) Text() string { return m.text }

// SentBy returns the author label (user or assistant).
func (m *Message) SentBy() string { return m.sentBy }

// SentAt returns the creation time in unix milliseconds.
func (m *Message) SentAt() int64 { return m.sentAt }
