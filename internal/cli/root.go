package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/userstore/internal/config"
	"github.com/dmitrijs2005/userstore/internal/logging"
	"github.com/dmitrijs2005/userstore/internal/services"
	"github.com/dmitrijs2005/userstore/internal/userstore"
)

// App carries the dependencies shared by subcommands.
type App struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	configPath string
	dbPath     string
	logLevel   string
	logFormat  string
	bcryptCost int

	logger   logging.Logger
	store    *userstore.Store
	closer   io.Closer
	accounts *services.AccountService
}

// NewApp returns an App reading from in and writing to out and errOut.
func NewApp(in io.Reader, out, errOut io.Writer) *App {
	return &App{in: in, out: out, errOut: errOut}
}

// Execute runs the command tree with args. A failure to close the store is
// reported when the command itself succeeded.
func (a *App) Execute(ctx context.Context, args []string) (err error) {
	root := a.rootCmd()
	root.SetArgs(args)
	defer func() {
		if cerr := a.teardown(); err == nil {
			err = cerr
		}
	}()
	return root.ExecuteContext(ctx)
}

func (a *App) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "userstore",
		Short:         "Manage login users and their stored documents",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}
	root.SetIn(a.in)
	root.SetOut(a.out)
	root.SetErr(a.errOut)

	pf := root.PersistentFlags()
	pf.StringVarP(&a.configPath, "config", "c", "", "path to JSON config file")
	pf.StringVarP(&a.dbPath, "db", "d", "", "SQLite database file (default userdata.db)")
	pf.StringVarP(&a.logLevel, "log-level", "l", "", "log level: debug, info, warn, error")
	pf.StringVarP(&a.logFormat, "log-format", "f", "", "log format: auto, text, json")
	pf.IntVar(&a.bcryptCost, "bcrypt-cost", 0, "bcrypt cost for new passwords (0 = library default)")

	root.AddCommand(a.userCmd(), a.dataCmd())
	return root
}

func (a *App) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("db") {
		cfg.DatabasePath = a.dbPath
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = a.logLevel
	}
	if flags.Changed("log-format") {
		cfg.LogFormat = a.logFormat
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	h, err := logging.NewHandler(a.errOut, level, cfg.LogFormat)
	if err != nil {
		return err
	}
	a.logger = logging.NewSlogLogger(slog.New(h))

	a.store = userstore.New(cfg.DatabasePath, a.logger)
	a.closer = a.store
	if err := a.store.Initialize(cmd.Context()); err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	a.accounts, err = services.NewAccountService(a.store, a.bcryptCost)
	return err
}

func (a *App) teardown() error {
	if a.closer == nil {
		return nil
	}
	err := a.closer.Close()
	a.closer, a.store = nil, nil
	if err != nil {
		return fmt.Errorf("close store: %w", err)
	}
	return nil
}
