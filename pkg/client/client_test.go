package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/TrasheeZZ/dir-browse-serve/pkg/models"
	"github.com/TrasheeZZ/dir-browse-serve/pkg/protocol"
)

func testClient(handler http.Handler) (*Client, *httptest.Server) {
	ts := httptest.NewServer(handler)
	c := New(Config{
		BaseURL:    ts.URL,
		RetryCount: 2,
		RetryWait:  time.Millisecond,
	})
	return c, ts
}

func TestList_Success(t *testing.T) {
	var gotPath, gotAuth string
	c, ts := testClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Query().Get("path")
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(protocol.ListResponse{
			Path:     "/Documents",
			Items:    []models.Item{{ID: "a", Name: "notes.txt", Kind: models.KindFile, Path: "/Documents/notes.txt"}},
			Segments: []models.Segment{{Name: "Documents", Path: "/Documents"}},
		})
	}))
	defer ts.Close()
	c.SetAuthToken("tok")

	resp, err := c.List(context.Background(), "/Documents")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotPath != "/Documents" {
		t.Errorf("expected path query /Documents, got %q", gotPath)
	}
	if gotAuth != "Bearer tok" {
		t.Errorf("expected bearer header, got %q", gotAuth)
	}
	if len(resp.Items) != 1 || resp.Items[0].Name != "notes.txt" {
		t.Errorf("unexpected items %+v", resp.Items)
	}
}

func TestAPIError(t *testing.T) {
	c, ts := testClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(protocol.ErrorResponse{Error: "insufficient permissions", Code: http.StatusForbidden})
	}))
	defer ts.Close()

	err := c.Delete(context.Background(), "x")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if StatusCode(err) != http.StatusForbidden {
		t.Errorf("expected 403, got %d", StatusCode(err))
	}
	apiErr, ok := err.(*APIError)
	if !ok || apiErr.Message != "insufficient permissions" {
		t.Errorf("unexpected error %#v", err)
	}
}

func TestErrorStatusNotRetried(t *testing.T) {
	var calls atomic.Int32
	c, ts := testClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	if _, err := c.Get(context.Background(), "missing"); StatusCode(err) != http.StatusNotFound {
		t.Fatalf("expected 404, got %v", err)
	}
	if n := calls.Load(); n != 1 {
		t.Errorf("expected 1 call, got %d", n)
	}
}

func TestTransportErrorRetried(t *testing.T) {
	var calls atomic.Int32
	c, ts := testClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			conn, _, err := http.NewResponseController(w).Hijack()
			if err == nil {
				conn.Close()
			}
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(protocol.ListResponse{Path: "/", Items: []models.Item{}, Segments: []models.Segment{}})
	}))
	defer ts.Close()

	if _, err := c.List(context.Background(), "/"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := calls.Load(); n != 2 {
		t.Errorf("expected 2 calls, got %d", n)
	}
}

func TestMutationNotRetried(t *testing.T) {
	var calls atomic.Int32
	c, ts := testClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		// The upload is applied, then the response is lost.
		conn, _, err := http.NewResponseController(w).Hijack()
		if err == nil {
			conn.Close()
		}
	}))
	defer ts.Close()
	ctx := context.Background()

	tests := []struct {
		name string
		call func() error
	}{
		{"upload", func() error {
			_, err := c.Upload(ctx, "/", protocol.UploadFile{Name: "once.txt"})
			return err
		}},
		{"create folder", func() error {
			_, err := c.CreateFolder(ctx, "/", "once")
			return err
		}},
		{"delete", func() error { return c.Delete(ctx, "x") }},
		{"refresh", func() error {
			_, err := c.Refresh(ctx)
			return err
		}},
		{"create user", func() error {
			_, err := c.CreateUser(ctx, "bob", "pw", models.RoleUser)
			return err
		}},
	}
	for _, tt := range tests {
		calls.Store(0)
		if err := tt.call(); err == nil {
			t.Errorf("%s: expected transport error", tt.name)
		}
		if n := calls.Load(); n != 1 {
			t.Errorf("%s: expected 1 attempt, got %d", tt.name, n)
		}
	}
}

func TestLoginKeepsToken(t *testing.T) {
	expires := time.Now().Add(time.Hour).Unix()
	var meAuth string
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req protocol.LoginRequest
		json.NewDecoder(r.Body).Decode(&req)
		w.Header().Set("Content-Type", "application/json")
		if req.Password != "admin123" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(protocol.ErrorResponse{Error: "invalid credentials", Code: 401})
			return
		}
		json.NewEncoder(w).Encode(protocol.LoginResponse{
			Token:     "jwt",
			ExpiresAt: expires,
			User:      models.Identity{ID: "1", Username: req.Username, Role: models.RoleAdmin},
		})
	})
	mux.HandleFunc("GET /api/v1/auth/me", func(w http.ResponseWriter, r *http.Request) {
		meAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(protocol.MeResponse{Authenticated: true})
	})
	mux.HandleFunc("POST /api/v1/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(protocol.StatusResponse{Status: "ok"})
	})
	c, ts := testClient(mux)
	defer ts.Close()
	ctx := context.Background()

	if _, err := c.Login(ctx, "admin", "wrong"); StatusCode(err) != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}

	resp, err := c.Login(ctx, "admin", "admin123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.User.Username != "admin" {
		t.Errorf("unexpected user %+v", resp.User)
	}
	tok, exp := c.AuthToken()
	if tok != "jwt" || exp.Unix() != expires {
		t.Errorf("token = %q, %v", tok, exp)
	}

	if _, err := c.Me(ctx); err != nil {
		t.Fatal(err)
	}
	if meAuth != "Bearer jwt" {
		t.Errorf("me sent %q", meAuth)
	}

	if err := c.Logout(ctx); err != nil {
		t.Fatal(err)
	}
	if tok, _ := c.AuthToken(); tok != "" {
		t.Errorf("token kept after logout: %q", tok)
	}
}
