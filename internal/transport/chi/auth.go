package chi

import (
	"net/http"
	"strings"

	"github.com/kailas-cloud/docqa/internal/domain/principal"
)

// exemptPaths are routes that bypass authentication (health, metrics).
var exemptPaths = map[string]struct{}{
	"/health":  {},
	"/metrics": {},
}

// LocalPrincipal is attached to every request when no tokens are configured.
var LocalPrincipal = principal.Principal{UserID: "local", Role: principal.Admin}

// BearerAuthMiddleware resolves Bearer tokens to principals and stores the
// principal in the request context.
// If tokens is empty, authentication is disabled and requests act as LocalPrincipal.
func BearerAuthMiddleware(tokens map[string]principal.Principal) func(http.Handler) http.Handler {
	valid := make(map[string]principal.Principal, len(tokens))
	for k, p := range tokens {
		if k != "" {
			valid[k] = p
		}
	}

	return func(next http.Handler) http.Handler {
		// Auth disabled
		if len(valid) == 0 {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				next.ServeHTTP(w, r.WithContext(principal.NewContext(r.Context(), LocalPrincipal)))
			})
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := exemptPaths[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			auth := r.Header.Get("Authorization")
			if auth == "" {
				writeError(w, http.StatusUnauthorized, ErrorCodeUnauthorized, "missing authorization header")
				return
			}

			const bearerPrefix = "Bearer "
			if !strings.HasPrefix(auth, bearerPrefix) {
				writeError(w, http.StatusUnauthorized, ErrorCodeUnauthorized,
					"authorization header must use Bearer scheme")
				return
			}

			p, ok := valid[auth[len(bearerPrefix):]]
			if !ok {
				writeError(w, http.StatusUnauthorized, ErrorCodeUnauthorized, "invalid token")
				return
			}

			next.ServeHTTP(w, r.WithContext(principal.NewContext(r.Context(), p)))
		})
	}
}
