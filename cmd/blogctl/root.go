package main

import (
	"encoding/json"
	"errors"
	"io"

	"blog_api/pkg/blogclient"

	"github.com/spf13/cobra"
)

type app struct {
	server      string
	sessionFile string
	client      *blogclient.Client
}

func NewRootCmd() *cobra.Command {
	a := &app{}
	cmd := &cobra.Command{
		Use:          "blogctl",
		Short:        "Command-line client for the blog API",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init()
		},
	}
	cmd.PersistentFlags().StringVar(&a.server, "server", "http://localhost:8080", "API base URL")
	cmd.PersistentFlags().StringVar(&a.sessionFile, "session-file", "", "session cache path (default: user config dir)")

	cmd.AddCommand(a.registerCmd(), a.loginCmd(), a.logoutCmd(), a.whoamiCmd())
	cmd.AddCommand(a.postsCmd(), a.commentsCmd(), a.usersCmd())
	return cmd
}

func (a *app) init() error {
	var store blogclient.SessionStore
	if a.sessionFile != "" {
		store = &blogclient.FileStore{Path: a.sessionFile}
	} else {
		fs, err := blogclient.DefaultFileStore()
		if err != nil {
			return err
		}
		store = fs
	}
	a.client = blogclient.New(a.server, store)
	return nil
}

func (a *app) requireLogin() error {
	if !a.client.IsAuthenticated() {
		return errors.New("not logged in; run `blogctl login` first")
	}
	return nil
}

func (a *app) requireAdmin() error {
	if err := a.requireLogin(); err != nil {
		return err
	}
	if !a.client.IsAdmin() {
		return errors.New("this command needs an admin account")
	}
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
