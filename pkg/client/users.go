package client

import (
	"context"
	"net/http"

	"github.com/TrasheeZZ/dir-browse-serve/pkg/models"
	"github.com/TrasheeZZ/dir-browse-serve/pkg/protocol"
)

// ListUsers returns the admin user directory.
func (c *Client) ListUsers(ctx context.Context) ([]models.Account, error) {
	var result protocol.UserListResponse
	if _, err := do(c.request(ctx).SetResult(&result), http.MethodGet, "/api/v1/admin/users"); err != nil {
		return nil, err
	}
	return result.Users, nil
}

// GetUser returns one directory account.
func (c *Client) GetUser(ctx context.Context, id string) (*models.Account, error) {
	var account models.Account
	req := c.request(ctx).SetPathParam("id", id).SetResult(&account)
	if _, err := do(req, http.MethodGet, "/api/v1/admin/users/{id}"); err != nil {
		return nil, err
	}
	return &account, nil
}

// CreateUser adds an account. An empty role means USER.
func (c *Client) CreateUser(ctx context.Context, username, password string, role models.Role) (*models.Account, error) {
	var account models.Account
	req := c.mutation(ctx).
		SetBody(protocol.CreateUserRequest{Username: username, Password: password, Role: role}).
		SetResult(&account)
	if _, err := do(req, http.MethodPost, "/api/v1/admin/users"); err != nil {
		return nil, err
	}
	return &account, nil
}

// UpdateUser renames an account and, when role is set, changes its role.
func (c *Client) UpdateUser(ctx context.Context, id, username string, role models.Role) (*models.Account, error) {
	var account models.Account
	req := c.mutation(ctx).
		SetPathParam("id", id).
		SetBody(protocol.UpdateUserRequest{Username: username, Role: role}).
		SetResult(&account)
	if _, err := do(req, http.MethodPut, "/api/v1/admin/users/{id}"); err != nil {
		return nil, err
	}
	return &account, nil
}

// DeleteUser removes an account and returns it.
func (c *Client) DeleteUser(ctx context.Context, id string) (*models.Account, error) {
	var account models.Account
	req := c.mutation(ctx).SetPathParam("id", id).SetResult(&account)
	if _, err := do(req, http.MethodDelete, "/api/v1/admin/users/{id}"); err != nil {
		return nil, err
	}
	return &account, nil
}
