package api

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/TrasheeZZ/dir-browse-serve/internal/directory"
	"github.com/TrasheeZZ/dir-browse-serve/internal/logging"
	"github.com/TrasheeZZ/dir-browse-serve/pkg/models"
	"github.com/TrasheeZZ/dir-browse-serve/pkg/protocol"
)

// requireAdmin is the role gate for the user directory.
func (s *Server) requireAdmin(w http.ResponseWriter, r *http.Request) (*models.Identity, bool) {
	return s.requireRole(w, r, "admin", (*models.Identity).IsAdmin)
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireAdmin(w, r); !ok {
		return
	}
	writeJSON(w, http.StatusOK, protocol.UserListResponse{Users: s.directory.List()})
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.requireAdmin(w, r); !ok {
		return
	}
	account, err := s.directory.Get(r.PathValue("id"))
	if err != nil {
		s.sendDirectoryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, account)
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	admin, ok := s.requireAdmin(w, r)
	if !ok {
		return
	}

	var req protocol.CreateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	role, err := parseOptionalRole(req.Role)
	if err != nil {
		s.sendError(w, http.StatusBadRequest, err.Error())
		return
	}

	account, err := s.directory.Add(req.Username, req.Password, role)
	if err != nil {
		s.sendDirectoryError(w, err)
		return
	}

	logging.WithContext(r.Context()).Info("user created",
		zap.String("username", account.Username),
		zap.String("id", account.ID),
		zap.String("by", admin.Username))
	writeJSON(w, http.StatusCreated, account)
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	admin, ok := s.requireAdmin(w, r)
	if !ok {
		return
	}

	var req protocol.UpdateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	role, err := parseOptionalRole(req.Role)
	if err != nil {
		s.sendError(w, http.StatusBadRequest, err.Error())
		return
	}

	account, err := s.directory.Update(r.PathValue("id"), req.Username, role)
	if err != nil {
		s.sendDirectoryError(w, err)
		return
	}

	logging.WithContext(r.Context()).Info("user updated",
		zap.String("id", account.ID),
		zap.String("by", admin.Username))
	writeJSON(w, http.StatusOK, account)
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	admin, ok := s.requireAdmin(w, r)
	if !ok {
		return
	}

	account, err := s.directory.Remove(r.PathValue("id"))
	if err != nil {
		s.sendDirectoryError(w, err)
		return
	}

	logging.WithContext(r.Context()).Info("user deleted",
		zap.String("username", account.Username),
		zap.String("by", admin.Username))
	writeJSON(w, http.StatusOK, account)
}

func (s *Server) sendDirectoryError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, directory.ErrNotFound):
		s.sendError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, directory.ErrMissingFields), errors.Is(err, directory.ErrInvalidRole):
		s.sendError(w, http.StatusBadRequest, err.Error())
	default:
		logging.Error("directory operation failed", zap.Error(err))
		s.sendError(w, http.StatusInternalServerError, "internal error")
	}
}

// parseOptionalRole accepts any case; empty stays empty.
func parseOptionalRole(r models.Role) (models.Role, error) {
	if r == "" {
		return "", nil
	}
	return models.ParseRole(string(r))
}
