// fileindex is a command-line client for the file index server.
//
// The signed-in identity and its token are kept in
// <state-dir>/file-index-user.json so later invocations stay signed in.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/TrasheeZZ/dir-browse-serve/internal/auth"
	"github.com/TrasheeZZ/dir-browse-serve/internal/logging"
	"github.com/TrasheeZZ/dir-browse-serve/internal/session"
	"github.com/TrasheeZZ/dir-browse-serve/pkg/client"
	"github.com/TrasheeZZ/dir-browse-serve/pkg/models"
)

// app is the state shared by all subcommands of one invocation.
type app struct {
	v       *viper.Viper
	client  *client.Client
	session *session.Session
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:   "fileindex",
		Short: "Browse and manage a file index server",
		Long: `fileindex lists, uploads and deletes items on a file index server and
manages its admin user directory. Sign in with "fileindex login" first for
operations that need a role.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}

	flags := root.PersistentFlags()
	flags.String("server", "http://localhost:8080", "server base URL")
	flags.String("state-dir", client.DefaultStateDir(), "directory holding the session record")
	flags.Duration("timeout", 15*time.Second, "request timeout")
	flags.BoolP("verbose", "v", false, "log debug output to stderr")

	a.v.BindPFlag("server", flags.Lookup("server"))
	a.v.BindPFlag("state_dir", flags.Lookup("state-dir"))
	a.v.BindPFlag("timeout", flags.Lookup("timeout"))
	a.v.BindPFlag("verbose", flags.Lookup("verbose"))
	a.v.BindEnv("server", "FILEINDEX_SERVER")
	a.v.BindEnv("state_dir", "FILEINDEX_STATE_DIR")

	root.AddCommand(
		a.lsCmd(),
		a.treeCmd(),
		a.segmentsCmd(),
		a.downloadCmd(),
		a.uploadCmd(),
		a.mkdirCmd(),
		a.rmCmd(),
		a.refreshCmd(),
		a.loginCmd(),
		a.logoutCmd(),
		a.whoamiCmd(),
		a.usersCmd(),
	)
	return root
}

// init builds the client and restores the persisted session.
func (a *app) init() error {
	level := "warn"
	if a.v.GetBool("verbose") {
		level = "debug"
	}
	if err := logging.Init(logging.Config{Level: level, Format: "console", OutputPath: "stderr"}); err != nil {
		return fmt.Errorf("logging init error: %w", err)
	}

	a.client = client.New(client.Config{
		BaseURL:    a.v.GetString("server"),
		Timeout:    a.v.GetDuration("timeout"),
		RetryCount: 2,
	})

	store := session.NewFileStore(a.v.GetString("state_dir"))
	a.session = session.New(remoteProvider{a.client}, store, session.WithIssuer(a.issue))
	if a.session.Restore() {
		a.client.SetAuthToken(a.session.Token())
	}
	return nil
}

// issue hands the token obtained by the last login to the session.
func (a *app) issue(*models.Identity) (string, time.Time, error) {
	tok, exp := a.client.AuthToken()
	if tok == "" {
		return "", time.Time{}, errors.New("server returned no token")
	}
	return tok, exp, nil
}

// remoteProvider verifies credentials against the server.
type remoteProvider struct {
	c *client.Client
}

func (p remoteProvider) Verify(ctx context.Context, username, secret string) (*models.Identity, error) {
	resp, err := p.c.Login(ctx, username, secret)
	if client.StatusCode(err) == http.StatusUnauthorized {
		return nil, auth.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	return &resp.User, nil
}
