package client

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/TrasheeZZ/dir-browse-serve/pkg/protocol"
)

// Login authenticates with username/password and keeps the returned token
// for later requests.
func (c *Client) Login(ctx context.Context, username, password string) (*protocol.LoginResponse, error) {
	var result protocol.LoginResponse
	req := c.mutation(ctx).
		SetBody(protocol.LoginRequest{Username: username, Password: password}).
		SetResult(&result)
	if _, err := do(req, http.MethodPost, "/api/v1/auth/login"); err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.authToken = result.Token
	c.expiresAt = time.Unix(result.ExpiresAt, 0)
	c.mu.Unlock()
	return &result, nil
}

// Logout revokes the current token on the server and forgets it.
func (c *Client) Logout(ctx context.Context) error {
	_, err := do(c.mutation(ctx), http.MethodPost, "/api/v1/auth/logout")
	c.SetAuthToken("")
	return err
}

// Me returns the identity the server associates with the current token.
func (c *Client) Me(ctx context.Context) (*protocol.MeResponse, error) {
	var result protocol.MeResponse
	if _, err := do(c.request(ctx).SetResult(&result), http.MethodGet, "/api/v1/auth/me"); err != nil {
		return nil, err
	}
	return &result, nil
}

// DefaultStateDir returns the per-user directory holding the CLI session.
func DefaultStateDir() string {
	if runtime.GOOS == "windows" {
		appData := os.Getenv("APPDATA")
		if appData == "" {
			home, _ := os.UserHomeDir()
			appData = filepath.Join(home, "AppData", "Roaming")
		}
		return filepath.Join(appData, "FileIndex")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "fileindex")
}
