package main

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/TrasheeZZ/dir-browse-serve/internal/api"
	"github.com/TrasheeZZ/dir-browse-serve/internal/auth"
	"github.com/TrasheeZZ/dir-browse-serve/internal/config"
	"github.com/TrasheeZZ/dir-browse-serve/internal/directory"
	"github.com/TrasheeZZ/dir-browse-serve/internal/events"
	"github.com/TrasheeZZ/dir-browse-serve/internal/repository"
)

var secrets atomic.Int32

type cli struct {
	url   string
	state string
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	seed, err := repository.DefaultSeed()
	if err != nil {
		t.Fatalf("DefaultSeed: %v", err)
	}
	srv := api.NewServer(
		repository.New(seed),
		directory.New(bcrypt.MinCost),
		auth.NewStaticProvider(auth.DefaultCredentials()),
		auth.NewTokens(fmt.Sprintf("cli-secret-%d", secrets.Add(1)), time.Hour),
		events.NewBroadcaster(),
		&config.Config{TokenTTL: time.Hour},
	)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return &cli{url: ts.URL, state: t.TempDir()}
}

// run executes one invocation with a fresh root command, like a new process.
func (c *cli) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--server", c.url, "--state-dir", c.state}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func (c *cli) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := c.run(t, args...)
	if err != nil {
		t.Fatalf("fileindex %s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return out
}

func TestListAndTree(t *testing.T) {
	c := newCLI(t)

	out := c.mustRun(t, "ls")
	for _, name := range []string{"Documents", "Images", "Projects", "README.md", "2 KB"} {
		if !strings.Contains(out, name) {
			t.Errorf("ls output missing %q:\n%s", name, out)
		}
	}

	out = c.mustRun(t, "ls", "/Projects/mobile-app")
	if !strings.Contains(out, "This folder is empty") {
		t.Errorf("ls of empty folder = %q", out)
	}

	out = c.mustRun(t, "tree", "/Projects")
	if !strings.Contains(out, "  webapp/\n") || !strings.Contains(out, "    index.html (4 KB)\n") {
		t.Errorf("tree output:\n%s", out)
	}
}

func TestSegments(t *testing.T) {
	c := newCLI(t)
	out := c.mustRun(t, "segments", "/Projects/webapp")
	want := "Projects\t/Projects\nwebapp\t/Projects/webapp\n"
	if out != want {
		t.Errorf("segments = %q, want %q", out, want)
	}
}

func TestSessionPersistsAcrossInvocations(t *testing.T) {
	c := newCLI(t)

	if _, err := c.run(t, "upload", "/", "early.txt"); err == nil {
		t.Fatal("upload without login should fail")
	}

	out := c.mustRun(t, "login", "user", "user123")
	if !strings.Contains(out, "logged in as user (USER)") {
		t.Errorf("login output = %q", out)
	}
	info, err := os.Stat(filepath.Join(c.state, "file-index-user.json"))
	if err != nil {
		t.Fatalf("session record not written: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("session record mode = %v", info.Mode().Perm())
	}

	if out := c.mustRun(t, "whoami", "--verify"); out != "user (USER)\n" {
		t.Errorf("whoami = %q", out)
	}

	out = c.mustRun(t, "upload", "/Documents", "draft.txt", "100")
	m := regexp.MustCompile(`uploaded /Documents/draft\.txt \((\S+)\)`).FindStringSubmatch(out)
	if m == nil {
		t.Fatalf("upload output = %q", out)
	}

	if _, err := c.run(t, "rm", m[1]); err == nil || !strings.Contains(err.Error(), "403") {
		t.Errorf("rm as USER error = %v, want 403", err)
	}

	c.mustRun(t, "logout")
	if out := c.mustRun(t, "whoami"); out != "not logged in\n" {
		t.Errorf("whoami after logout = %q", out)
	}
	if _, err := os.Stat(filepath.Join(c.state, "file-index-user.json")); !os.IsNotExist(err) {
		t.Errorf("session record still present: %v", err)
	}
}

func TestLoginRejected(t *testing.T) {
	c := newCLI(t)
	_, err := c.run(t, "login", "user", "wrong")
	if err == nil || err.Error() != "invalid credentials" {
		t.Errorf("err = %v, want invalid credentials", err)
	}
	if out := c.mustRun(t, "whoami"); out != "not logged in\n" {
		t.Errorf("whoami = %q", out)
	}
}

func TestAdminWorkflow(t *testing.T) {
	c := newCLI(t)
	c.mustRun(t, "login", "admin", "admin123")

	out := c.mustRun(t, "mkdir", "/", "Archive")
	if !strings.Contains(out, "created /Archive") {
		t.Errorf("mkdir output = %q", out)
	}

	out = c.mustRun(t, "users", "add", "bob", "secret", "admin")
	m := regexp.MustCompile(`added bob \(([0-9a-z]{9})\) as ADMIN`).FindStringSubmatch(out)
	if m == nil {
		t.Fatalf("users add output = %q", out)
	}

	if out := c.mustRun(t, "users", "show", "3"); !strings.Contains(out, "3 john_doe USER 2024-01-03") {
		t.Errorf("users show = %q", out)
	}
	if _, err := c.run(t, "users", "show", "nope"); err == nil || !strings.Contains(err.Error(), "404") {
		t.Errorf("users show unknown id err = %v, want 404", err)
	}

	c.mustRun(t, "users", "edit", m[1], "robert")
	out = c.mustRun(t, "users", "list")
	if !strings.Contains(out, "robert") || !strings.Contains(out, "john_doe") {
		t.Errorf("users list:\n%s", out)
	}

	out = c.mustRun(t, "users", "rm", m[1])
	if !strings.Contains(out, "removed robert") {
		t.Errorf("users rm output = %q", out)
	}

	if out := c.mustRun(t, "refresh"); out != "16 items\n" {
		t.Errorf("refresh = %q", out)
	}
}

func TestUsersRequiresLogin(t *testing.T) {
	c := newCLI(t)
	if _, err := c.run(t, "users", "list"); err == nil {
		t.Error("users list without login should fail")
	}
}

func TestWhoamiVerifyDropsStaleSession(t *testing.T) {
	c := newCLI(t)
	c.mustRun(t, "login", "admin", "admin123")

	// A server with a different signing secret rejects the saved token.
	other := newCLI(t)
	other.state = c.state
	out := other.mustRun(t, "whoami", "--verify")
	if out != "session expired; not logged in\n" {
		t.Errorf("whoami --verify = %q", out)
	}
	if _, err := os.Stat(filepath.Join(c.state, "file-index-user.json")); !os.IsNotExist(err) {
		t.Errorf("stale session record kept: %v", err)
	}
}

func TestWhoamiVerifyUnreachable(t *testing.T) {
	c := newCLI(t)
	c.mustRun(t, "login", "user", "user123")

	ts := httptest.NewServer(http.NotFoundHandler())
	ts.Close()
	c.url = ts.URL
	_, err := c.run(t, "--timeout", "2s", "whoami", "--verify")
	if err == nil || !strings.Contains(err.Error(), "server unreachable") {
		t.Errorf("err = %v, want server unreachable", err)
	}
}
