package chi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kailas-cloud/docqa/internal/domain/principal"
)

// principalHandler echoes the resolved principal's user id.
func principalHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal.FromContext(r.Context())
		if !ok {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(p.UserID))
	})
}

var authTestTokens = map[string]principal.Principal{
	"alice-token": {UserID: "alice", Role: principal.User},
	"admin-token": {UserID: "root", Role: principal.Admin},
}

func TestAuthMiddleware_NoTokens_LocalPrincipal(t *testing.T) {
	for _, tokens := range []map[string]principal.Principal{nil, {"": {UserID: "x"}}} {
		handler := BearerAuthMiddleware(tokens)(principalHandler())

		req := httptest.NewRequest("GET", "/chats/all", http.NoBody)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusOK || rr.Body.String() != LocalPrincipal.UserID {
			t.Errorf("disabled auth: got %d %q", rr.Code, rr.Body.String())
		}
	}
}

func TestAuthMiddleware_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"basic scheme", "Basic dXNlcjpwYXNz"},
		{"unknown token", "Bearer nope"},
		{"lowercase bearer", "bearer alice-token"},
	}
	handler := BearerAuthMiddleware(authTestTokens)(principalHandler())

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/chats/all", http.NoBody)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != http.StatusUnauthorized {
				t.Fatalf("got %d, want %d", rr.Code, http.StatusUnauthorized)
			}
			var errResp ErrorResponse
			if err := json.NewDecoder(rr.Body).Decode(&errResp); err != nil {
				t.Fatalf("decode error response: %v", err)
			}
			if errResp.Code != ErrorCodeUnauthorized || errResp.Error == "" {
				t.Errorf("unexpected error body: %+v", errResp)
			}
		})
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	handler := BearerAuthMiddleware(authTestTokens)(principalHandler())

	req := httptest.NewRequest("GET", "/chats/users/alice", http.NoBody)
	req.Header.Set("Authorization", "Bearer alice-token")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK || rr.Body.String() != "alice" {
		t.Errorf("valid token: got %d %q", rr.Code, rr.Body.String())
	}
}

func TestAuthMiddleware_ExemptPaths(t *testing.T) {
	handler := BearerAuthMiddleware(authTestTokens)(principalHandler())

	for _, path := range []string{"/health", "/metrics"} {
		req := httptest.NewRequest("GET", path, http.NoBody)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusNoContent {
			t.Errorf("%s: got %d, want %d", path, rr.Code, http.StatusNoContent)
		}
	}
}
