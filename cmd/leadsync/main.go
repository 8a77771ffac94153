package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/hpungsan/leadsync/internal/board"
	"github.com/hpungsan/leadsync/internal/config"
	"github.com/hpungsan/leadsync/internal/db"
	"github.com/hpungsan/leadsync/internal/logging"
	"github.com/hpungsan/leadsync/internal/mcp"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// cliCommands contains known CLI subcommands.
var cliCommands = map[string]bool{
	"process": true, "leads": true, "runs": true, "export": true,
	"discover": true, "map": true, "upload": true, "run": true,
	"help": true,
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
	// Global flags ahead of the subcommand, e.g. "leadsync --verbose upload".
	if strings.HasPrefix(arg, "-") {
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
   _                _
  | | ___  __ _  __| |___ _   _ _ __   ___
  | |/ _ \/ _' |/ _' / __| | | | '_ \ / __|
  | |  __/ (_| | (_| \__ \ |_| | | | | (__
  |_|\___|\__,_|\__,_|___/\__, |_| |_|\___|
                          |___/

  CSV lead lists into ClickUp

  Usage: leadsync <command> [options]
         leadsync --help

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
	baseDir := filepath.Join(homeDir, ".leadsync")

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: could not determine working directory: %v\n", err)
		os.Exit(1)
	}

	cfg, err := loadConfig(baseDir, cwd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to load config: %v\n", err)
		os.Exit(1)
	}

	database, err := db.Init(baseDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to initialize database: %v\n", err)
		os.Exit(1)
	}
	defer database.Close()
	db.ConfigurePool(database, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// CLI mode: known subcommand
	if isCLIMode() {
		app := newCLIApp(&cliEnv{db: database, cfg: cfg, baseDir: baseDir, newBoard: newBoard})
		if err := app.RunContext(ctx, os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Unknown argument + terminal → show error (don't start MCP server)
	if len(os.Args) >= 2 && isTerminal() {
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "Run 'leadsync --help' for usage.\n")
		os.Exit(1)
	}

	logger, err := logging.New(false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if unknown := mcp.ValidateDisabledTools(cfg.DisabledTools); len(unknown) > 0 {
		logger.Warn("unknown tools in disabled_tools", zap.Strings("tools", unknown))
	}

	// Board tools answer INVALID_REQUEST until a token is configured.
	var b board.Board
	if cfg.APIToken != "" {
		if b, err = newBoard(cfg); err != nil {
			logger.Warn("board client unavailable", zap.Error(err))
		}
	}

	// MCP server mode (default)
	if err := mcp.Run(database, b, cfg, logger, Version); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig layers the global and repo config files, then the environment.
func loadConfig(baseDir, cwd string) (*config.Config, error) {
	cfg, err := config.LoadWithRepo(baseDir, cwd)
	if err != nil {
		return nil, err
	}
	env, err := config.LoadEnv(cwd)
	if err != nil {
		return nil, err
	}
	return config.ApplyEnv(cfg, env), nil
}
