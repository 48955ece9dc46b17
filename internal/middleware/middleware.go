package middleware

import (
	"net/http"
	"os"
	"strings"
	"sync"

	"github.com/wallowawildlife/ww-backend/internal/utils"
)

// IdentityResolver is implemented by the session manager. It ensures the
// request has a session (issuing the cookie if needed) and reports its id
// plus the identity bound to it. Anonymous requests return ok=false with no
// error.
type IdentityResolver interface {
	ResolveIdentity(w http.ResponseWriter, r *http.Request) (sessionID string, identityID uint, ok bool, err error)
}

// SessionMiddleware resolves the session on every request, injecting its id
// and, when one is bound, the identity into the request context. Anonymous
// requests pass through untouched; route groups that need a login use
// RequireAuth.
func SessionMiddleware(resolver IdentityResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID, identityID, ok, err := resolver.ResolveIdentity(w, r)
			if err != nil {
				http.Error(w, "Session error", http.StatusInternalServerError)
				return
			}
			ctx := r.Context()
			if sessionID != "" {
				ctx = utils.WithSessionID(ctx, sessionID)
			}
			if ok {
				ctx = utils.WithIdentity(ctx, identityID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth redirects anonymous requests to the login page.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := utils.GetIdentityFromContext(r.Context()); !ok {
			http.Redirect(w, r, "/auth/login", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// allowed is resolved on first request, after main has loaded .env.local.
var allowed = sync.OnceValue(func() map[string]struct{} {
	origins := map[string]struct{}{
		"http://localhost:5173": {},
		"http://localhost:5174": {},
	}
	for _, origin := range strings.Split(os.Getenv("CORS_ORIGINS"), ",") {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			origins[origin] = struct{}{}
		}
	}
	return origins
})

func CORSMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		// Echo the origin back only if it's on our allow-list
		if _, ok := allowed()[origin]; ok {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Vary", "Origin") // important for caches
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods",
				"GET, POST, PUT, PATCH, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers",
				"Content-Type, Authorization")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
