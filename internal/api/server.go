// Package api provides the HTTP server and handlers.
package api

import (
	"encoding/json"
	"io/fs"
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/TrasheeZZ/dir-browse-serve/internal/auth"
	"github.com/TrasheeZZ/dir-browse-serve/internal/config"
	"github.com/TrasheeZZ/dir-browse-serve/internal/directory"
	"github.com/TrasheeZZ/dir-browse-serve/internal/events"
	"github.com/TrasheeZZ/dir-browse-serve/internal/logging"
	"github.com/TrasheeZZ/dir-browse-serve/internal/metrics"
	"github.com/TrasheeZZ/dir-browse-serve/internal/ratelimit"
	"github.com/TrasheeZZ/dir-browse-serve/internal/repository"
	"github.com/TrasheeZZ/dir-browse-serve/pkg/models"
	"github.com/TrasheeZZ/dir-browse-serve/pkg/protocol"
	"github.com/TrasheeZZ/dir-browse-serve/webapp"
)

// maxBodySize bounds JSON request bodies.
const maxBodySize = 1 << 20

// Server is the HTTP server.
type Server struct {
	repo        *repository.Repository
	directory   *directory.Directory
	provider    auth.Provider
	tokens      *auth.Tokens
	broadcaster *events.Broadcaster
	config      *config.Config
	logins      *ratelimit.Limiter
	upgrader    websocket.Upgrader
}

// NewServer creates a new server.
func NewServer(
	repo *repository.Repository,
	dir *directory.Directory,
	provider auth.Provider,
	tokens *auth.Tokens,
	broadcaster *events.Broadcaster,
	cfg *config.Config,
) *Server {
	return &Server{
		repo:        repo,
		directory:   dir,
		provider:    provider,
		tokens:      tokens,
		broadcaster: broadcaster,
		config:      cfg,
		logins:      ratelimit.New(cfg.LoginRateLimit),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// Handler returns the HTTP handler with auth, logging and metrics middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)

	// Web app (the app handles login via the API)
	var appHandler http.Handler
	if dir := s.config.WebappDir; dir != "" {
		logging.Info("serving web app from disk", zap.String("dir", dir))
		appHandler = http.StripPrefix("/app/", http.FileServer(http.Dir(dir)))
	} else {
		appFS, _ := fs.Sub(webapp.Assets, ".")
		appHandler = http.StripPrefix("/app/", http.FileServer(http.FS(appFS)))
	}
	mux.Handle("/app/", appHandler)
	mux.HandleFunc("GET /app", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/app/", http.StatusMovedPermanently)
	})
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/app/", http.StatusMovedPermanently)
	})

	// API endpoints. Every route sees the caller identity when a valid
	// token is present; role gates are applied per handler.
	api := http.NewServeMux()

	// Items
	api.HandleFunc("GET /api/v1/items", s.handleList)
	api.HandleFunc("GET /api/v1/items/{id}", s.handleGet)
	api.HandleFunc("GET /api/v1/download/{id}", s.handleDownload)
	api.HandleFunc("POST /api/v1/items", s.handleUpload)
	api.HandleFunc("POST /api/v1/folders", s.handleCreateFolder)
	api.HandleFunc("DELETE /api/v1/items/{id}", s.handleDelete)
	api.HandleFunc("POST /api/v1/refresh", s.handleRefresh)

	// Session
	api.HandleFunc("POST /api/v1/auth/login", s.handleLogin)
	api.HandleFunc("POST /api/v1/auth/logout", s.handleLogout)
	api.HandleFunc("GET /api/v1/auth/me", s.handleMe)

	// Admin user directory
	api.HandleFunc("GET /api/v1/admin/users", s.handleListUsers)
	api.HandleFunc("POST /api/v1/admin/users", s.handleCreateUser)
	api.HandleFunc("GET /api/v1/admin/users/{id}", s.handleGetUser)
	api.HandleFunc("PUT /api/v1/admin/users/{id}", s.handleUpdateUser)
	api.HandleFunc("DELETE /api/v1/admin/users/{id}", s.handleDeleteUser)

	// Live change feeds
	api.HandleFunc("GET /api/v1/events", s.handleEvents)
	api.HandleFunc("GET /api/v1/ws", s.handleWebSocket)

	mux.Handle("/api/v1/", s.tokens.Middleware(api))

	return metrics.Middleware(logging.Middleware(mux))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"items":  s.repo.Len(),
	})
}

// requireRole returns the caller identity when allowed accepts it. Otherwise
// it writes 401 for anonymous callers or 403 for the wrong role.
func (s *Server) requireRole(w http.ResponseWriter, r *http.Request, action string, allowed func(*models.Identity) bool) (*models.Identity, bool) {
	id := auth.IdentityFrom(r.Context())
	if id == nil {
		metrics.RecordAccessDenied(action)
		s.sendError(w, http.StatusUnauthorized, "authentication required")
		return nil, false
	}
	if !allowed(id) {
		metrics.RecordAccessDenied(action)
		logging.WithContext(r.Context()).Info("access denied",
			zap.String("action", action),
			zap.String("user", id.Username),
			zap.String("role", string(id.Role)))
		s.sendError(w, http.StatusForbidden, "insufficient permissions")
		return nil, false
	}
	return id, true
}

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(v)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) sendError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, protocol.ErrorResponse{
		Error: message,
		Code:  code,
	})
}
