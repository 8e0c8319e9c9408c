package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/erazemk/fleetdesk/internal/config"
	"github.com/erazemk/fleetdesk/internal/db"
	"github.com/erazemk/fleetdesk/internal/fleetapi"
	"github.com/erazemk/fleetdesk/internal/logging"
	"github.com/erazemk/fleetdesk/internal/store"
)

const usage = `Usage: fleetdesk <command> [flags]

Composes and submits fleet service orders against the fleet API.

Commands:
  login      sign in and keep the token for later commands
  logout     forget the stored token
  clients    list clients
  trucks     list the trucks of a client
  catalog    list work categories, rates and work items
  orders     list orders
  show       show one order
  quote      price an order file against the live catalog
  new        create an order from an order file
  edit       change an existing order from an order file
  drafts     list orders saved after a failed submission
  resume     submit a saved draft again
  drop       delete a saved draft
  seed       create clients, trucks and work categories from a file

Environment:
  FLEET_API_URL, FLEET_TOKEN, FLEET_TOKEN_FILE, FLEET_API_TIMEOUT,
  FLEET_DRAFTS_DB, FLEET_LOG, FLEET_DEBUG (also read from .env)

Run "fleetdesk <command> -h" for command flags.
`

// app holds what the commands share.
type app struct {
	cfg     *config.Config
	api     *fleetapi.Client
	out     io.Writer
	draftDB *sql.DB
}

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	// Logs go to stderr so command output stays clean.
	closeLog, err := logging.Setup(logging.Options{Path: cfg.Log, Debug: cfg.Debug, Stdout: os.Stderr})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	a, err := newApp(cfg, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer a.close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.run(ctx, os.Args[1], os.Args[2:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		a.close()
		closeLog()
		os.Exit(1)
	}
}

func newApp(cfg *config.Config, out io.Writer) (*app, error) {
	token, err := readToken(cfg)
	if err != nil {
		return nil, err
	}
	session, err := fleetapi.NewSession(token)
	if err != nil {
		return nil, fmt.Errorf("stored token is unusable, run fleetdesk login: %w", err)
	}
	client, err := fleetapi.New(cfg.API.URL, session)
	if err != nil {
		return nil, err
	}
	client.SetTimeout(cfg.API.Timeout)
	return &app{cfg: cfg, api: client, out: out}, nil
}

func (a *app) run(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "login":
		return a.cmdLogin(ctx, args)
	case "logout":
		return a.cmdLogout(args)
	case "clients":
		return a.cmdClients(ctx, args)
	case "trucks":
		return a.cmdTrucks(ctx, args)
	case "catalog":
		return a.cmdCatalog(ctx, args)
	case "orders":
		return a.cmdOrders(ctx, args)
	case "show":
		return a.cmdShow(ctx, args)
	case "quote":
		return a.cmdQuote(ctx, args)
	case "new":
		return a.cmdNew(ctx, args)
	case "edit":
		return a.cmdEdit(ctx, args)
	case "drafts":
		return a.cmdDrafts(ctx, args)
	case "resume":
		return a.cmdResume(ctx, args)
	case "drop":
		return a.cmdDrop(ctx, args)
	case "seed":
		return a.cmdSeed(ctx, args)
	case "help", "-h", "-help", "--help":
		fmt.Fprint(a.out, usage)
		return nil
	}
	return fmt.Errorf("unknown command %q, run fleetdesk help", cmd)
}

// drafts opens the local draft database on first use.
func (a *app) drafts() (*sql.DB, error) {
	if a.draftDB != nil {
		return a.draftDB, nil
	}
	path := a.cfg.Local.DraftsDB
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("creating drafts directory: %w", err)
	}
	database, err := db.Open(path)
	if err != nil {
		return nil, err
	}
	if err := db.EnsureDraftSchema(database); err != nil {
		database.Close()
		return nil, err
	}
	a.draftDB = database
	return database, nil
}

func (a *app) draftStore() (store.Drafts, error) {
	database, err := a.drafts()
	if err != nil {
		return store.Drafts{}, err
	}
	return store.Drafts{DB: database}, nil
}

func (a *app) close() {
	if a.draftDB != nil {
		a.draftDB.Close()
		a.draftDB = nil
	}
}

// newFlagSet returns a flag set whose Usage prints help to the app output.
func (a *app) newFlagSet(name, help string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Usage = func() {
		fmt.Fprint(a.out, help)
	}
	return fs
}

// parse runs fs over args and checks the positional argument count.
func parse(fs *flag.FlagSet, args []string, positional int) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		fs.Usage()
		return err
	}
	if fs.NArg() != positional {
		fs.Usage()
		return fmt.Errorf("%s: expected %d argument(s), got %d", fs.Name(), positional, fs.NArg())
	}
	return nil
}
