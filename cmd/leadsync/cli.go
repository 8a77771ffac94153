package main

import (
	"database/sql"
	stderrors "errors"
	"fmt"
	"io"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/hpungsan/leadsync/internal/board"
	"github.com/hpungsan/leadsync/internal/clickup"
	"github.com/hpungsan/leadsync/internal/config"
	"github.com/hpungsan/leadsync/internal/errors"
	"github.com/hpungsan/leadsync/internal/logging"
	"github.com/hpungsan/leadsync/internal/ops"
)

// cliEnv carries what the commands share. A nil logger is built from
// --verbose before any command runs.
type cliEnv struct {
	db       *sql.DB
	cfg      *config.Config
	baseDir  string
	logger   *zap.Logger
	newBoard func(cfg *config.Config) (board.Board, error)
}

// newCLIApp creates the CLI application with all commands.
func newCLIApp(env *cliEnv) *cli.App {
	if env == nil {
		env = &cliEnv{}
	}
	if env.cfg == nil {
		env.cfg = config.DefaultConfig()
	}
	if env.newBoard == nil {
		env.newBoard = newBoard
	}

	app := &cli.App{
		Name:    "leadsync",
		Usage:   "Normalize CSV lead lists and upload them to a ClickUp list",
		Version: Version,
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "verbose", Usage: "Log at debug level"},
			&cli.StringFlag{Name: "token", Usage: "ClickUp API token (overrides CLICKUP_TOKEN and config)"},
			&cli.StringFlag{Name: "api-url", Usage: "ClickUp API base URL"},
			&cli.IntFlag{Name: "sample-size", Usage: "Records sampled for field discovery (1-100)"},
		},
		Before: func(c *cli.Context) error {
			if env.logger != nil {
				return nil
			}
			logger, err := logging.New(c.Bool("verbose"))
			if err != nil {
				return err
			}
			env.logger = logger
			return nil
		},
		After: func(_ *cli.Context) error {
			if env.logger != nil {
				_ = env.logger.Sync()
			}
			return nil
		},
		Commands: []*cli.Command{
			processCmd(env),
			leadsCmd(env),
			runsCmd(env),
			exportCmd(env),
			discoverCmd(env),
			mapCmd(env),
			uploadCmd(env),
			runCmd(env),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// effectiveConfig returns the loaded config with command-line overrides applied.
func (e *cliEnv) effectiveConfig(c *cli.Context) *config.Config {
	return config.Merge(e.cfg, &config.Config{
		APIToken:     c.String("token"),
		APIBaseURL:   c.String("api-url"),
		ListID:       c.String("list"),
		SampleSize:   c.Int("sample-size"),
		BatchSize:    c.Int("batch-size"),
		BatchPauseMS: c.Int("batch-pause-ms"),
	})
}

// boardClient returns a board client, failing without a token.
func (e *cliEnv) boardClient(cfg *config.Config) (board.Board, error) {
	if cfg.APIToken == "" {
		return nil, errors.NewInvalidRequest("api token is required (--token, " + config.EnvToken + " or api_token in config)")
	}
	return e.newBoard(cfg)
}

// newBoard builds the ClickUp client.
func newBoard(cfg *config.Config) (board.Board, error) {
	c, err := clickup.NewClient(cfg.APIBaseURL, cfg.APIToken, cfg.RequestTimeout())
	if err != nil {
		return nil, err
	}
	return c, nil
}

func listFlag() cli.Flag {
	return &cli.StringFlag{Name: "list", Aliases: []string{"l"}, Usage: "ClickUp list id (overrides CLICKUP_LIST_ID and config)"}
}

func formatFlag() cli.Flag {
	return &cli.StringFlag{Name: "format", Aliases: []string{"f"}, Usage: "Source format: arizona|cto|hubspot|generic (default: detect from file name)"}
}

func uploadFlags() []cli.Flag {
	return []cli.Flag{
		listFlag(),
		&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Usage: "Test mode: upload only the first N leads"},
		&cli.IntFlag{Name: "batch-size", Usage: "Leads per batch"},
		&cli.IntFlag{Name: "batch-pause-ms", Usage: "Pause between batches in milliseconds"},
	}
}

// processCmd creates the process command.
func processCmd(env *cliEnv) *cli.Command {
	return &cli.Command{
		Name:      "process",
		Usage:     "Normalize, deduplicate and validate CSV files into a new run",
		ArgsUsage: "<file.csv>...",
		Flags:     []cli.Flag{formatFlag()},
		Action: func(c *cli.Context) error {
			output, err := ops.Process(c.Context, env.db, env.effectiveConfig(c), env.logger, ops.ProcessInput{
				Paths:  c.Args().Slice(),
				Format: c.String("format"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, output)
		},
	}
}

// leadsCmd creates the leads command.
func leadsCmd(env *cliEnv) *cli.Command {
	return &cli.Command{
		Name:  "leads",
		Usage: "List the leads stored by a run",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "run", Aliases: []string{"r"}, Usage: "Run id (default: latest run)"},
			&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Value: ops.DefaultListLimit, Usage: "Maximum items to return"},
			&cli.IntFlag{Name: "offset", Aliases: []string{"o"}, Value: 0, Usage: "Items to skip"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Leads(c.Context, env.db, ops.LeadsInput{
				RunID:  c.String("run"),
				Limit:  c.Int("limit"),
				Offset: c.Int("offset"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, output)
		},
	}
}

// runsCmd creates the runs command.
func runsCmd(env *cliEnv) *cli.Command {
	return &cli.Command{
		Name:  "runs",
		Usage: "List stored runs, newest first",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Aliases: []string{"n"}, Value: ops.DefaultListLimit, Usage: "Maximum items to return"},
			&cli.IntFlag{Name: "offset", Aliases: []string{"o"}, Value: 0, Usage: "Items to skip"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Runs(env.db, ops.RunsInput{
				Limit:  c.Int("limit"),
				Offset: c.Int("offset"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, output)
		},
	}
}

// exportCmd creates the export command.
func exportCmd(env *cliEnv) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Write a run's lead table to a CSV file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "run", Aliases: []string{"r"}, Usage: "Run id (default: latest run)"},
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Usage: "Export file path (default: ~/.leadsync/exports/leads-<run>.csv)"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Export(c.Context, env.db, env.baseDir, ops.ExportInput{
				RunID: c.String("run"),
				Path:  c.String("path"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, output)
		},
	}
}

// discoverCmd creates the discover command.
func discoverCmd(env *cliEnv) *cli.Command {
	return &cli.Command{
		Name:  "discover",
		Usage: "Sample a list and print the custom fields found",
		Flags: []cli.Flag{listFlag()},
		Action: func(c *cli.Context) error {
			cfg := env.effectiveConfig(c)
			b, err := env.boardClient(cfg)
			if err != nil {
				return outputError(err)
			}
			output, err := ops.Discover(c.Context, b, cfg, env.logger, ops.DiscoverInput{ListID: cfg.ListID})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, output)
		},
	}
}

// mapCmd creates the map command.
func mapCmd(env *cliEnv) *cli.Command {
	return &cli.Command{
		Name:      "map",
		Usage:     "Map CSV headers onto a list's custom fields",
		ArgsUsage: "[file.csv]",
		Flags: []cli.Flag{
			listFlag(),
			&cli.StringFlag{Name: "headers", Usage: "Comma-separated headers (instead of a CSV file)"},
		},
		Action: func(c *cli.Context) error {
			cfg := env.effectiveConfig(c)
			b, err := env.boardClient(cfg)
			if err != nil {
				return outputError(err)
			}
			output, err := ops.MapColumns(c.Context, b, cfg, env.logger, ops.MapInput{
				ListID:  cfg.ListID,
				Headers: parseList(c.String("headers")),
				Path:    c.Args().First(),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(c.App.Writer, output)
		},
	}
}

// uploadCmd creates the upload command.
func uploadCmd(env *cliEnv) *cli.Command {
	flags := append(uploadFlags(),
		&cli.StringFlag{Name: "run", Aliases: []string{"r"}, Usage: "Run id (default: latest run)"},
	)
	return &cli.Command{
		Name:  "upload",
		Usage: "Create a task per lead of a stored run",
		Flags: flags,
		Action: func(c *cli.Context) error {
			cfg := env.effectiveConfig(c)
			b, err := env.boardClient(cfg)
			if err != nil {
				return outputError(err)
			}
			output, err := ops.Upload(c.Context, env.db, b, cfg, env.logger, ops.UploadInput{
				RunID:  c.String("run"),
				ListID: cfg.ListID,
				Limit:  c.Int("limit"),
			})
			if output == nil {
				return outputError(err)
			}
			return outputPartial(c.App.Writer, output, err)
		},
	}
}

// runCmd creates the run command.
func runCmd(env *cliEnv) *cli.Command {
	return &cli.Command{
		Name:      "run",
		Usage:     "Process CSV files and upload the resulting run",
		ArgsUsage: "<file.csv>...",
		Flags:     append(uploadFlags(), formatFlag()),
		Action: func(c *cli.Context) error {
			cfg := env.effectiveConfig(c)
			b, err := env.boardClient(cfg)
			if err != nil {
				return outputError(err)
			}
			output, err := ops.Run(c.Context, env.db, b, cfg, env.logger, ops.RunInput{
				Paths:  c.Args().Slice(),
				Format: c.String("format"),
				ListID: cfg.ListID,
				Limit:  c.Int("limit"),
			})
			if output == nil {
				return outputError(err)
			}
			return outputPartial(c.App.Writer, output, err)
		},
	}
}

// outputJSON writes v as indented JSON.
func outputJSON(w io.Writer, v any) error {
	data, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
	if err != nil {
		return outputError(errors.NewInternal(err))
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// outputPartial prints whatever output exists before reporting err, so an
// interrupted upload still shows the leads already sent.
func outputPartial(w io.Writer, v any, err error) error {
	if outErr := outputJSON(w, v); outErr != nil {
		return outErr
	}
	if err != nil {
		return outputError(err)
	}
	return nil
}

// outputError formats error for CLI.
func outputError(err error) error {
	var leadErr *errors.LeadError
	if stderrors.As(err, &leadErr) {
		return cli.Exit(fmt.Sprintf("[%s] %s", leadErr.Code, leadErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// parseList splits a comma-separated string, dropping empty entries.
func parseList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	items := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			items = append(items, t)
		}
	}
	return items
}
