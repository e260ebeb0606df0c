package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"posclean/internal/listener"
	"posclean/internal/source"
)

func newFetchCommand(app *App) *cobra.Command {
	var noExtract bool

	cmd := &cobra.Command{
		Use:   "source:fetch",
		Short: "Download the source archive and extract it into RAW_DIR",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Config.Require("SOURCE_URL", app.Config.SourceURL); err != nil {
				return err
			}
			db, err := app.OpenDB()
			if err != nil {
				return err
			}
			defer db.Close()

			svc := source.NewFetchService(db, app.Config, app.Logger)
			var res source.FetchResult
			if noExtract {
				res, err = svc.Fetch(cmd.Context())
			} else {
				res, err = svc.FetchAndExtract(cmd.Context())
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "fetch done hash=%s new=%t files=%d\n", res.Archive.Hash, res.New, len(res.Files))
			return nil
		},
	}

	cmd.Flags().BoolVar(&noExtract, "no-extract", false, "only download and store the archive")
	return cmd
}

func newListenCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "source:listen",
		Short: "Poll the source and process every new archive",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Config.Require("SOURCE_URL", app.Config.SourceURL); err != nil {
				return err
			}
			db, err := app.OpenDB()
			if err != nil {
				return err
			}
			defer db.Close()

			return listener.NewService(db, app.Config, app.Logger).Run(cmd.Context())
		},
	}
}
