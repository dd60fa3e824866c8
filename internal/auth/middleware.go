package auth

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/TrasheeZZ/dir-browse-serve/internal/logging"
	"github.com/TrasheeZZ/dir-browse-serve/pkg/models"
)

type contextKey string

const (
	identityContextKey contextKey = "identity"
	tokenContextKey    contextKey = "token"
)

// Middleware attaches the identity carried by the request's token to the
// context. Requests without a usable token continue anonymously; a bad
// cookie is cleared so the browser stops sending it.
func (t *Tokens) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenStr, fromCookie := extractToken(r)
		if tokenStr == "" {
			next.ServeHTTP(w, r)
			return
		}

		id, err := t.Parse(tokenStr)
		if err != nil {
			logging.WithContext(r.Context()).Debug("discarding session token", zap.Error(err))
			if fromCookie {
				ClearCookie(w, false)
			}
			next.ServeHTTP(w, r)
			return
		}

		ctx := WithIdentity(r.Context(), id)
		ctx = context.WithValue(ctx, tokenContextKey, tokenStr)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// WithIdentity injects an identity into a context.
func WithIdentity(ctx context.Context, id *models.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, id)
}

// IdentityFrom returns the request identity, or nil when anonymous.
func IdentityFrom(ctx context.Context) *models.Identity {
	id, _ := ctx.Value(identityContextKey).(*models.Identity)
	return id
}

// TokenFrom returns the validated token of the request, if any.
func TokenFrom(ctx context.Context) string {
	tok, _ := ctx.Value(tokenContextKey).(string)
	return tok
}

// SetCookie stores the session token in the browser.
func SetCookie(w http.ResponseWriter, token string, maxAge int, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     models.SessionKey,
		Value:    token,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie removes the session cookie.
func ClearCookie(w http.ResponseWriter, secure bool) {
	SetCookie(w, "", -1, secure)
}

func extractToken(r *http.Request) (string, bool) {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer "), false
	}
	if c, err := r.Cookie(models.SessionKey); err == nil && c.Value != "" {
		return c.Value, true
	}
	// Query parameter fallback for EventSource and WebSocket clients
	return r.URL.Query().Get("token"), false
}
