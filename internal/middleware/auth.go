package middleware

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"
)

type actorCtxKey struct{}

// Actor values stored in the request context by AdminAuth.
const (
	ActorToken = "admin-token"
	ActorDev   = "dev-bypass"
)

// AdminAuth returns middleware protecting the back-office routes with a
// bearer token read from token on every request, so a rotated token applies
// without a restart. In development (env == "development") requests pass
// without a token; the bypass never applies in any other environment. An
// empty token outside development rejects every request.
func AdminAuth(token func() string, env string) func(http.Handler) http.Handler {
	dev := env == "development"
	if dev {
		slog.Warn("admin authentication bypassed (APP_ENV=development)")
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if dev {
				next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), actorCtxKey{}, ActorDev)))
				return
			}

			header := r.Header.Get("Authorization")
			if header == "" {
				unauthorized(w, "authentification requise")
				return
			}
			if _, ok := strings.CutPrefix(header, "Bearer "); !ok {
				unauthorized(w, "en-tête Authorization invalide")
				return
			}
			if !bearerMatches(header, token()) {
				unauthorized(w, "jeton invalide")
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), actorCtxKey{}, ActorToken)))
		})
	}
}

// IdentifyAdmin records ActorToken in the request context when the request
// carries the back-office bearer token. Other requests pass unchanged; there
// is no development bypass.
func IdentifyAdmin(token func() string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if bearerMatches(r.Header.Get("Authorization"), token()) {
				r = r.WithContext(context.WithValue(r.Context(), actorCtxKey{}, ActorToken))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// bearerMatches reports whether header is "Bearer <want>". An empty want
// never matches.
func bearerMatches(header, want string) bool {
	given, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || want == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(given), []byte(want)) == 1
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="nimda"`)
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"` + msg + `"}`))
}

// StaticToken returns a token source that always yields token.
func StaticToken(token string) func() string {
	return func() string { return token }
}

// ActorFromContext returns how the request was authenticated, or "".
func ActorFromContext(ctx context.Context) string {
	a, _ := ctx.Value(actorCtxKey{}).(string)
	return a
}
