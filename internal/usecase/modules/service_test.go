package modules

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/docqa/internal/domain"
)

type mockStore struct {
	names   []string
	listErr error
	deleted []string
}

func (m *mockStore) List(_ context.Context) ([]string, error) {
	return m.names, m.listErr
}

func (m *mockStore) Delete(_ context.Context, name string) error {
	for _, n := range m.names {
		if n == name {
			m.deleted = append(m.deleted, name)
			return nil
		}
	}
	return domain.ErrModuleNotFound
}

func TestList(t *testing.T) {
	svc := New(&mockStore{names: []string{"a", "b"}})
	names, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(names) != 2 {
		t.Fatalf("expected 2 names, got %v", names)
	}
}

func TestList_EmptyIsNonNil(t *testing.T) {
	names, err := New(&mockStore{}).List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if names == nil {
		t.Fatal("expected empty slice, got nil")
	}
}

func TestList_Error(t *testing.T) {
	boom := errors.New("io")
	if _, err := New(&mockStore{listErr: boom}).List(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	store := &mockStore{names: []string{"physics"}}
	svc := New(store)

	if err := svc.Delete(context.Background(), "physics"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if len(store.deleted) != 1 {
		t.Fatal("expected store delete")
	}
	if err := svc.Delete(context.Background(), "chemistry"); !errors.Is(err, domain.ErrModuleNotFound) {
		t.Fatalf("expected ErrModuleNotFound, got %v", err)
	}
	if err := svc.Delete(context.Background(), "../x"); !errors.Is(err, domain.ErrInvalidModuleName) {
		t.Fatalf("expected ErrInvalidModuleName, got %v", err)
	}
}
