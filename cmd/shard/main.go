package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/hpungsan/shard/internal/config"
	"github.com/hpungsan/shard/internal/db"
	"github.com/hpungsan/shard/internal/mcp"
	"github.com/hpungsan/shard/internal/remote"
	"github.com/hpungsan/shard/internal/store"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// cliCommands contains known CLI subcommands.
var cliCommands = map[string]bool{
	"new": true, "list": true, "show": true, "edit": true,
	"set": true, "rename": true, "delete": true, "split": true,
	"export": true, "sync": true, "login": true, "logout": true,
	"serve": true, "help": true,
}

// isCLIMode determines if we should run CLI vs MCP server.
func isCLIMode() bool {
	if len(os.Args) < 2 {
		return false // No args → MCP server
	}
	arg := os.Args[1]
	if cliCommands[arg] {
		return true
	}
	if arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" {
		return true
	}
	return false
}

// isHelpOrVersion returns true if the user is requesting help or version info.
func isHelpOrVersion() bool {
	if len(os.Args) < 2 {
		return false
	}
	arg := os.Args[1]
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" || arg == "help"
}

// isTerminal returns true if stdin is a terminal (not piped).
func isTerminal() bool {
	stat, _ := os.Stdin.Stat()
	return (stat.Mode() & os.ModeCharDevice) != 0
}

// printBanner displays a friendly banner when run interactively without args.
func printBanner() {
	fmt.Println(`
   ___ _                 _
  / __| |_  __ _ _ _ __| |
  \__ \ ' \/ _' | '_/ _' |
  |___/_||_\__,_|_| \__,_|

  Local text chunking workbench

  Usage: shard <command> [options]
         shard --help

  MCP server mode requires piped input.`)
}

func main() {
	// No args + interactive terminal → show banner and exit
	if len(os.Args) < 2 && isTerminal() {
		printBanner()
		return
	}

	// Handle --help/--version before DB init (no DB needed)
	if isHelpOrVersion() {
		app := newCLIApp(nil)
		if err := app.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: could not determine home directory: %v\n", err)
		os.Exit(1)
	}

	baseDir := filepath.Join(homeDir, ".shard")

	database, err := db.Init(baseDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to initialize database: %v\n", err)
		os.Exit(1)
	}
	defer database.Close()

	cfg, err := config.Load(baseDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Stdout carries command output and the MCP wire; logs go to stderr.
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	// CLI mode: known subcommand
	if isCLIMode() {
		app := newCLIApp(&appEnv{
			database: database,
			cfg:      cfg,
			baseDir:  baseDir,
			logger:   logger,
		})
		if err := app.Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Unknown argument + terminal → show error (don't start MCP server)
	if len(os.Args) >= 2 && isTerminal() {
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "Run 'shard --help' for usage.\n")
		os.Exit(1)
	}

	// MCP server mode (default)
	if unknown := mcp.ValidateDisabledTools(cfg.DisabledTools); len(unknown) > 0 {
		logger.Warn("ignoring unknown disabled tools", slog.Any("tools", unknown))
	}

	session := remote.LoadSession(baseDir)

	var client remote.Client
	var outbox *remote.Outbox
	if session.SignedIn() && cfg.RemoteURL != "" {
		httpClient := remote.NewHTTPClient(cfg.RemoteURL, session.Token)
		client = httpClient
		outbox = remote.NewOutbox(httpClient, logger)
		defer outbox.Close()
	}

	st := store.New(database, cfg, logger, outbox, nil)
	st.Open(store.NamespaceFor(session.Identity))
	defer st.Close()

	if err := mcp.Run(st, cfg, client, Version); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
