package chat

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docqa/internal/domain"
	domchat "github.com/kailas-cloud/docqa/internal/domain/chat"
	"github.com/kailas-cloud/docqa/internal/domain/principal"
)

// --- Mocks ---

type mockRepo struct {
	msgs    []domchat.Message
	saveErr error
	listErr error
	deleted []string
}

func (m *mockRepo) Save(_ context.Context, msg domchat.Message) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.msgs = append(m.msgs, msg)
	return nil
}

func (m *mockRepo) Get(_ context.Context, id string) (domchat.Message, error) {
	for _, msg := range m.msgs {
		if msg.ID() == id {
			return msg, nil
		}
	}
	return domchat.Message{}, fmt.Errorf("%w: %s", domain.ErrChatNotFound, id)
}

func (m *mockRepo) List(_ context.Context) ([]domchat.Message, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.msgs, nil
}

func (m *mockRepo) ListByUser(_ context.Context, userID string) ([]domchat.Message, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []domchat.Message
	for _, msg := range m.msgs {
		if msg.UserID() == userID {
			out = append(out, msg)
		}
	}
	return out, nil
}

func (m *mockRepo) Delete(_ context.Context, _ string, ids []string) error {
	m.deleted = append(m.deleted, ids...)
	return nil
}

var (
	admin = principal.Principal{UserID: "root", Role: principal.Admin}
	alice = principal.Principal{UserID: "alice", Role: principal.User}
	bob   = principal.Principal{UserID: "bob", Role: principal.User}
)

func seeded() (*mockRepo, []string) {
	ids := []string{uuid.NewString(), uuid.NewString(), uuid.NewString(), uuid.NewString()}
	return &mockRepo{msgs: []domchat.Message{
		domchat.Reconstruct(ids[0], "alice", "physics", 1, "q1", "user", 10),
		domchat.Reconstruct(ids[1], "alice", "physics", 1, "a1", "bot", 20),
		domchat.Reconstruct(ids[2], "alice", "physics", 2, "q2", "user", 30),
		domchat.Reconstruct(ids[3], "bob", "physics", 1, "hey", "user", 40),
	}}, ids
}

// --- Tests ---

func TestAll_AdminOnly(t *testing.T) {
	repo, _ := seeded()
	svc := New(repo, zap.NewNop())

	msgs, err := svc.All(context.Background(), admin)
	if err != nil || len(msgs) != 4 {
		t.Fatalf("All(admin) = %d, %v", len(msgs), err)
	}
	if _, err := svc.All(context.Background(), alice); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestFind(t *testing.T) {
	repo, ids := seeded()
	svc := New(repo, zap.NewNop())
	ctx := context.Background()

	m, err := svc.Find(ctx, alice, ids[0])
	if err != nil || m.Text() != "q1" {
		t.Fatalf("Find(owner) = %v, %v", m.Text(), err)
	}
	if _, err := svc.Find(ctx, admin, ids[3]); err != nil {
		t.Fatalf("Find(admin): %v", err)
	}
	if _, err := svc.Find(ctx, bob, ids[0]); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, err := svc.Find(ctx, admin, uuid.NewString()); !errors.Is(err, domain.ErrChatNotFound) {
		t.Fatalf("expected ErrChatNotFound, got %v", err)
	}
	if _, err := svc.Find(ctx, admin, "*"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestByUserAndLast(t *testing.T) {
	repo, _ := seeded()
	svc := New(repo, zap.NewNop())
	ctx := context.Background()

	msgs, err := svc.ByUser(ctx, alice, "alice")
	if err != nil || len(msgs) != 3 {
		t.Fatalf("ByUser = %d, %v", len(msgs), err)
	}
	if _, err := svc.ByUser(ctx, bob, "alice"); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, err := svc.ByUser(ctx, admin, "a:b"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}

	last, err := svc.Last(ctx, admin, "alice")
	if err != nil || last.Text() != "q2" {
		t.Fatalf("Last = %q, %v", last.Text(), err)
	}
	if _, err := svc.Last(ctx, admin, "carol"); !errors.Is(err, domain.ErrChatNotFound) {
		t.Fatalf("expected ErrChatNotFound, got %v", err)
	}
}

func TestAdd(t *testing.T) {
	repo := &mockRepo{}
	svc := New(repo, zap.NewNop())
	ctx := context.Background()

	in := AddInput{UserID: "alice", ModuleName: "physics", ChatID: 1, Message: "hello", SentBy: "user"}
	m, err := svc.Add(ctx, alice, in)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if m.ID() == "" || m.SentAt() == 0 || len(repo.msgs) != 1 {
		t.Fatalf("message not stored: %+v", m)
	}

	if _, err := svc.Add(ctx, bob, in); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	bad := in
	bad.Message = ""
	if _, err := svc.Add(ctx, alice, bad); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}

	repo.saveErr = errors.New("down")
	if _, err := svc.Add(ctx, admin, in); err == nil {
		t.Fatal("expected save error")
	}
}

func TestDelete_MatchesConversation(t *testing.T) {
	repo, ids := seeded()
	svc := New(repo, zap.NewNop())
	ctx := context.Background()

	n, err := svc.Delete(ctx, alice, Conversation{UserID: "alice", ModuleName: "physics", ChatID: 1})
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if n != 2 || len(repo.deleted) != 2 || repo.deleted[0] != ids[0] || repo.deleted[1] != ids[1] {
		t.Fatalf("deleted %d: %v", n, repo.deleted)
	}

	n, err = svc.Delete(ctx, alice, Conversation{UserID: "alice", ModuleName: "chemistry", ChatID: 1})
	if err != nil || n != 0 {
		t.Fatalf("Delete(no match) = %d, %v", n, err)
	}

	if _, err := svc.Delete(ctx, bob, Conversation{UserID: "alice", ModuleName: "physics", ChatID: 2}); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}
