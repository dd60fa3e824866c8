package api

import (
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/TrasheeZZ/dir-browse-serve/internal/auth"
	"github.com/TrasheeZZ/dir-browse-serve/internal/logging"
	"github.com/TrasheeZZ/dir-browse-serve/internal/metrics"
	"github.com/TrasheeZZ/dir-browse-serve/internal/session"
	"github.com/TrasheeZZ/dir-browse-serve/pkg/protocol"
)

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	client := clientIP(r)
	if !s.logins.Allow(client) {
		metrics.RecordRateLimitHit()
		logging.WithContext(r.Context()).Warn("login rate limited", zap.String("client", client))
		w.Header().Set("Retry-After", strconv.Itoa(s.logins.RetryAfter(client)))
		s.sendError(w, http.StatusTooManyRequests, "too many login attempts")
		return
	}

	var req protocol.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		s.sendError(w, http.StatusBadRequest, session.ErrMissingCredentials.Error())
		return
	}

	id, err := s.provider.Verify(r.Context(), req.Username, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		metrics.RecordAuthAttempt(false)
		logging.WithContext(r.Context()).Info("login failed", zap.String("username", req.Username))
		s.sendError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err != nil {
		logging.WithContext(r.Context()).Error("verify credentials", zap.Error(err))
		s.sendError(w, http.StatusInternalServerError, "login failed")
		return
	}

	token, expires, err := s.tokens.Issue(id)
	if err != nil {
		logging.WithContext(r.Context()).Error("issue token", zap.Error(err))
		s.sendError(w, http.StatusInternalServerError, "login failed")
		return
	}

	metrics.RecordAuthAttempt(true)
	logging.WithContext(r.Context()).Info("login",
		zap.String("username", id.Username),
		zap.String("role", string(id.Role)))

	auth.SetCookie(w, token, int(s.config.TokenTTL.Seconds()), s.config.CookieSecure)
	writeJSON(w, http.StatusOK, protocol.LoginResponse{
		Token:     token,
		ExpiresAt: expires.Unix(),
		User:      *id,
	})
}

// handleLogout revokes the caller's token. Anonymous callers get the same
// answer so the operation is idempotent.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if tok := auth.TokenFrom(r.Context()); tok != "" {
		s.tokens.Revoke(tok)
		if id := auth.IdentityFrom(r.Context()); id != nil {
			logging.WithContext(r.Context()).Info("logout", zap.String("username", id.Username))
		}
	}
	auth.ClearCookie(w, s.config.CookieSecure)
	writeJSON(w, http.StatusOK, protocol.StatusResponse{Status: "ok"})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	id := auth.IdentityFrom(r.Context())
	writeJSON(w, http.StatusOK, protocol.MeResponse{
		Authenticated: id != nil,
		User:          id,
	})
}

// clientIP is the rate limiting key for r.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// PruneLoginLimiter drops idle rate limiter buckets every interval until done is
// closed.
func (s *Server) PruneLoginLimiter(done <-chan struct{}, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			s.logins.Cleanup(interval)
		}
	}
}
