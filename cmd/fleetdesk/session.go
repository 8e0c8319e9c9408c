package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/erazemk/fleetdesk/internal/config"
)

// readToken returns FLEET_TOKEN, or else the token saved by login.
func readToken(cfg *config.Config) (string, error) {
	if cfg.API.Token != "" {
		return cfg.API.Token, nil
	}
	data, err := os.ReadFile(cfg.Local.TokenFile)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading token: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func writeToken(path, token string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating token directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(token+"\n"), 0o600); err != nil {
		return fmt.Errorf("saving token: %w", err)
	}
	return nil
}

func (a *app) cmdLogin(ctx context.Context, args []string) error {
	flags := a.newFlagSet("login", `Usage: fleetdesk login [flags]

Flags:
  -u, -user <name>       username
  -p, -password <pass>   password (default: FLEET_PASSWORD, else read from stdin)
`)
	var user, password string
	flags.StringVar(&user, "user", "", "")
	flags.StringVar(&user, "u", "", "")
	flags.StringVar(&password, "password", os.Getenv("FLEET_PASSWORD"), "")
	flags.StringVar(&password, "p", os.Getenv("FLEET_PASSWORD"), "")
	if err := parse(flags, args, 0); err != nil {
		return err
	}
	if user == "" {
		flags.Usage()
		return errors.New("login: -user is required")
	}
	if password == "" {
		fmt.Fprint(os.Stderr, "Password: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("reading password: %w", err)
		}
		password = strings.TrimRight(line, "\r\n")
	}

	if err := a.api.Login(ctx, user, password); err != nil {
		return err
	}
	if a.cfg.API.Token == "" {
		if err := writeToken(a.cfg.Local.TokenFile, a.api.Session().Token()); err != nil {
			return err
		}
	}
	fmt.Fprintf(a.out, "Signed in as %s until %s.\n", user, a.api.Session().Expires().Local().Format(time.DateTime))
	return nil
}

func (a *app) cmdLogout(args []string) error {
	flags := a.newFlagSet("logout", "Usage: fleetdesk logout\n")
	if err := parse(flags, args, 0); err != nil {
		return err
	}
	a.api.Session().Clear()
	if err := os.Remove(a.cfg.Local.TokenFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing token: %w", err)
	}
	fmt.Fprintln(a.out, "Signed out.")
	return nil
}
