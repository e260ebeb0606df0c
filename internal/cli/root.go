package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"posclean/internal/config"
	"posclean/internal/logging"
	"posclean/internal/storage"
)

// App holds what every command needs once flags are parsed.
type App struct {
	Config config.Config
	Logger *slog.Logger

	loadConfig func() (config.Config, error)
}

func (a *App) OpenDB() (*storage.DB, error) {
	return storage.Open(a.Config.DBPath)
}

// NewRootCommand creates the root command for the posclean CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&App{loadConfig: config.Load})
}

func newRootCommand(app *App) *cobra.Command {
	var logLevel string

	cmd := &cobra.Command{
		Use:           "posclean",
		Short:         "Normalize retail point-of-sale CSV exports",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadConfig()
			if err != nil {
				return err
			}
			if logLevel != "" {
				cfg.LogLevel = logLevel
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			app.Config = cfg
			app.Logger = logging.New(cfg)
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override LOG_LEVEL (debug|info|warn|error)")

	cmd.AddCommand(newFetchCommand(app))
	cmd.AddCommand(newProcessCommand(app))
	cmd.AddCommand(newNormalizeCommand(app))
	cmd.AddCommand(newExportCommand(app))
	cmd.AddCommand(newListenCommand(app))
	cmd.AddCommand(newRunCommand(app))

	return cmd
}
