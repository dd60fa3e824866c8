// Package protocol defines the API request/response types.
package protocol

import (
	"github.com/TrasheeZZ/dir-browse-serve/pkg/models"
)

// ErrorResponse is returned on API errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    int    `json:"code"`
	Details string `json:"details,omitempty"`
}

// ListResponse is returned by GET /api/v1/items?path=
type ListResponse struct {
	Path     string           `json:"path"`
	Items    []models.Item    `json:"items"`
	Segments []models.Segment `json:"segments"`
}

// UploadFile is one file of an upload batch. Only metadata travels; the
// index never stores content.
type UploadFile struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// UploadRequest is the body for POST /api/v1/items
type UploadRequest struct {
	Path  string       `json:"path"`
	Files []UploadFile `json:"files"`
}

// UploadResponse lists the items created by an upload.
type UploadResponse struct {
	Items []models.Item `json:"items"`
}

// FolderRequest is the body for POST /api/v1/folders
type FolderRequest struct {
	Path string `json:"path"`
	Name string `json:"name"`
}

// RefreshResponse is returned by POST /api/v1/refresh
type RefreshResponse struct {
	Count int `json:"count"`
}

// LoginRequest is the body for POST /api/v1/auth/login
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse carries the session token and identity.
type LoginResponse struct {
	Token     string          `json:"token"`
	ExpiresAt int64           `json:"expires_at"`
	User      models.Identity `json:"user"`
}

// MeResponse is returned by GET /api/v1/auth/me
type MeResponse struct {
	Authenticated bool             `json:"authenticated"`
	User          *models.Identity `json:"user,omitempty"`
}

// CreateUserRequest is the body for POST /api/v1/admin/users
type CreateUserRequest struct {
	Username string      `json:"username"`
	Password string      `json:"password"`
	Role     models.Role `json:"role,omitempty"`
}

// UpdateUserRequest is the body for PUT /api/v1/admin/users/{id}
type UpdateUserRequest struct {
	Username string      `json:"username"`
	Role     models.Role `json:"role,omitempty"`
}

// UserListResponse is returned by GET /api/v1/admin/users
type UserListResponse struct {
	Users []models.Account `json:"users"`
}

// StatusResponse is a generic acknowledgement.
type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}
