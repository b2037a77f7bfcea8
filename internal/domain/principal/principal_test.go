package principal

import (
	"context"
	"testing"
)

func TestCanAccess(t *testing.T) {
	tests := []struct {
		name   string
		p      Principal
		target string
		want   bool
	}{
		{"admin any user", Principal{UserID: "root", Role: Admin}, "alice", true},
		{"owner", Principal{UserID: "alice", Role: User}, "alice", true},
		{"other user", Principal{UserID: "bob", Role: User}, "alice", false},
		{"anonymous", Principal{Role: User}, "", false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.p.CanAccess(tc.target); got != tc.want {
				t.Errorf("CanAccess(%q) = %v, want %v", tc.target, got, tc.want)
			}
		})
	}
}

func TestContext(t *testing.T) {
	if _, ok := FromContext(context.Background()); ok {
		t.Fatal("expected no principal")
	}
	ctx := NewContext(context.Background(), Principal{UserID: "alice", Role: User})
	p, ok := FromContext(ctx)
	if !ok || p.UserID != "alice" {
		t.Fatalf("FromContext = %+v, %v", p, ok)
	}
}

func TestRole_IsValid(t *testing.T) {
	if !Admin.IsValid() || !User.IsValid() || Role("root").IsValid() {
		t.Fatal("unexpected role validity")
	}
}
