package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytmusicd/internal/repositories"
	"github.com/desertthunder/ytmusicd/internal/services"
	"github.com/desertthunder/ytmusicd/internal/shared"
	"github.com/desertthunder/ytmusicd/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	logger     *log.Logger
	output     io.Writer
	pageURL    string
	origin     string
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Logger     *log.Logger
	Output     io.Writer
	PageURL    string // Page scraped for the player URL, defaults to the music home page
	Origin     string // Host relative player URLs resolve against
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.PageURL == "" {
		opts.PageURL = tasks.MusicHomeURL
	}
	if opts.Origin == "" {
		opts.Origin = services.MusicOrigin
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		logger:     opts.Logger,
		output:     opts.Output,
		pageURL:    opts.PageURL,
		origin:     opts.Origin,
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to configuration file",
			Value:   "config.toml",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "Enable debug logging",
		},
	}
}

// Before loads the configuration file named by --config. A missing file keeps the defaults.
func (r *Runner) Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}
	return ctx, r.loadConfig(cmd.String("config"))
}

func (r *Runner) loadConfig(path string) error {
	r.configPath = path
	if path == "" {
		return r.config.Validate()
	}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		r.logger.Debug("config file not found, using defaults", "path", path)
		return r.config.Validate()
	}

	config, err := shared.LoadConfig(path)
	if err != nil {
		return err
	}
	if err := config.Validate(); err != nil {
		return err
	}
	r.config = config
	return nil
}

// SetLogger replaces the logger, e.g. with a file logger while the TUI owns the terminal.
func (r *Runner) SetLogger(logger *log.Logger) {
	level := r.logger.GetLevel()
	r.logger = logger
	r.logger.SetLevel(level)
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		serveCommand, refreshCommand, scrobbleCommand, catalogCommand, historyCommand, setupCommand, authCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// components is everything one command invocation needs, built from the loaded config.
type components struct {
	client    *services.Client
	cipher    *services.PlayerCipher
	player    *tasks.PlayerRefresher
	catalog   *tasks.CatalogRefresher
	scrobbler *tasks.ScrobbleReporter
	db        *sql.DB
	history   *repositories.HistoryAdapter
}

// build wires the client, cipher and refreshers. History is recorded when a database path is configured;
// a database that cannot be opened is logged and skipped.
func (r *Runner) build(ctx context.Context, events chan<- tasks.RefreshEvent) (*components, error) {
	client, err := services.NewClientFromConfig(ctx, r.config.Credentials.YouTube, r.logger)
	if err != nil {
		return nil, err
	}
	if !client.Authenticated() {
		r.logger.Warn("no YouTube Music credentials configured, requests are anonymous")
	}

	c := &components{client: client}
	hooks := tasks.Hooks{Events: events}

	if r.config.Database.Path != "" {
		db, err := shared.OpenDatabase(r.config.Database)
		if err != nil {
			r.logger.Warn("history disabled", "error", err)
		} else {
			c.db = db
			c.history = repositories.NewHistoryAdapter(db)
			hooks.Recorder = c.history
		}
	}

	c.cipher = services.NewPlayerCipher(client.HTTPClient(), r.logger)
	c.cipher.SetOrigin(r.origin)

	c.player = tasks.NewPlayerRefresher(client, c.cipher, r.logger, hooks)
	c.player.SetPageURL(r.pageURL)
	c.catalog = tasks.NewCatalogRefresher(client, r.config.Refresh.HomeLimit, r.logger, hooks)
	c.scrobbler = tasks.NewScrobbleReporter(client, c.cipher, r.logger, hooks)
	return c, nil
}

func (c *components) Close() {
	if c.db != nil {
		c.db.Close()
	}
}

// openHistory opens the configured database for the history commands.
func (r *Runner) openHistory() (*repositories.HistoryAdapter, func(), error) {
	if r.config.Database.Path == "" {
		return nil, nil, fmt.Errorf("%w: database.path is not set", shared.ErrMissingConfig)
	}
	db, err := shared.OpenDatabase(r.config.Database)
	if err != nil {
		return nil, nil, err
	}
	return repositories.NewHistoryAdapter(db), func() { db.Close() }, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
