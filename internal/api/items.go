package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/TrasheeZZ/dir-browse-serve/internal/events"
	"github.com/TrasheeZZ/dir-browse-serve/internal/logging"
	"github.com/TrasheeZZ/dir-browse-serve/internal/metrics"
	"github.com/TrasheeZZ/dir-browse-serve/internal/repository"
	"github.com/TrasheeZZ/dir-browse-serve/pkg/models"
	"github.com/TrasheeZZ/dir-browse-serve/pkg/protocol"
	"github.com/TrasheeZZ/dir-browse-serve/pkg/tree"
)

// ─── Listing ────────────────────────────────────────────────────────────────

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	path := tree.Clean(r.URL.Query().Get("path"))
	writeJSON(w, http.StatusOK, protocol.ListResponse{
		Path:     path,
		Items:    s.repo.List(path),
		Segments: tree.Segments(path),
	})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	item, err := s.repo.Get(r.PathValue("id"))
	if errors.Is(err, repository.ErrNotFound) {
		s.sendError(w, http.StatusNotFound, "item not found")
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// handleDownload serves a placeholder body. Items carry no content.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	item, err := s.repo.Get(r.PathValue("id"))
	if errors.Is(err, repository.ErrNotFound) {
		s.sendError(w, http.StatusNotFound, "item not found")
		return
	}
	if item.IsDir() {
		s.sendError(w, http.StatusBadRequest, "cannot download a folder")
		return
	}

	metrics.RecordItemOperation("download")
	logging.WithContext(r.Context()).Info("download",
		zap.String("path", item.Path),
		zap.Int64("size", item.Size))

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", item.Name))
	fmt.Fprintf(w, "simulated download of %s (%s)\n", item.Path, tree.FormatSize(item.Size))
}

// ─── Mutations ──────────────────────────────────────────────────────────────

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	id, ok := s.requireRole(w, r, "upload", (*models.Identity).CanUpload)
	if !ok {
		return
	}

	var req protocol.UploadRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Files) == 0 {
		s.sendError(w, http.StatusBadRequest, "no files to upload")
		return
	}
	for _, f := range req.Files {
		if err := validateName(f.Name); err != nil {
			s.sendError(w, http.StatusBadRequest, err.Error())
			return
		}
		if f.Size < 0 {
			s.sendError(w, http.StatusBadRequest, "size must not be negative")
			return
		}
	}

	parent := tree.Clean(req.Path)
	now := time.Now().UTC()
	items := make([]models.Item, 0, len(req.Files))
	for _, f := range req.Files {
		items = append(items, repository.NewFile(parent, f.Name, f.Size, now))
	}
	if err := s.repo.Add(parent, items...); err != nil {
		s.sendError(w, http.StatusNotFound, "folder not found: "+parent)
		return
	}

	for _, item := range items {
		metrics.RecordUpload(item.Size)
		s.publishEvent(events.EventCreate, item)
	}
	logging.WithContext(r.Context()).Info("files uploaded",
		zap.String("path", parent),
		zap.Int("count", len(items)),
		zap.String("user", id.Username))

	writeJSON(w, http.StatusCreated, protocol.UploadResponse{Items: items})
}

func (s *Server) handleCreateFolder(w http.ResponseWriter, r *http.Request) {
	id, ok := s.requireRole(w, r, "create_folder", (*models.Identity).IsAdmin)
	if !ok {
		return
	}

	var req protocol.FolderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validateName(req.Name); err != nil {
		s.sendError(w, http.StatusBadRequest, err.Error())
		return
	}

	parent := tree.Clean(req.Path)
	item := repository.NewFolder(parent, req.Name, time.Now().UTC())
	if err := s.repo.Add(parent, item); err != nil {
		s.sendError(w, http.StatusNotFound, "folder not found: "+parent)
		return
	}

	metrics.RecordItemOperation("create_folder")
	s.publishEvent(events.EventCreate, item)
	logging.WithContext(r.Context()).Info("folder created",
		zap.String("path", item.Path),
		zap.String("user", id.Username))

	writeJSON(w, http.StatusCreated, item)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := s.requireRole(w, r, "delete", (*models.Identity).CanDelete)
	if !ok {
		return
	}

	item, err := s.repo.Remove(r.PathValue("id"))
	if errors.Is(err, repository.ErrNotFound) {
		s.sendError(w, http.StatusNotFound, "item not found")
		return
	}

	metrics.RecordItemOperation("delete")
	s.publishEvent(events.EventDelete, item)
	logging.WithContext(r.Context()).Info("item deleted",
		zap.String("path", item.Path),
		zap.String("user", id.Username))

	writeJSON(w, http.StatusOK, map[string]any{
		"id":      item.ID,
		"path":    item.Path,
		"deleted": true,
	})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s.repo.Reset()
	metrics.RecordItemOperation("refresh")
	s.publishEvent(events.EventReset, models.Item{Path: "/"})

	writeJSON(w, http.StatusOK, protocol.RefreshResponse{Count: s.repo.Len()})
}

// publishEvent publishes an item change to the broadcaster if available.
func (s *Server) publishEvent(eventType string, item models.Item) {
	if s.broadcaster == nil {
		return
	}
	s.broadcaster.Publish(events.Event{
		Type: eventType,
		ID:   item.ID,
		Path: item.Path,
	})
}

// validateName rejects names that would not form a single path component.
func validateName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return errors.New("name is required")
	case strings.Contains(name, "/"):
		return fmt.Errorf("name %q must not contain '/'", name)
	case name == "." || name == "..":
		return fmt.Errorf("invalid name %q", name)
	}
	return nil
}
