package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"posclean/internal"
	"posclean/internal/pipeline"
	"posclean/internal/source"
)

func newProcessCommand(app *App) *cobra.Command {
	var dir string
	var files []string

	cmd := &cobra.Command{
		Use:   "tables:process",
		Short: "Clean the configured tables into CLEAN_DIR",
		RunE: func(cmd *cobra.Command, args []string) error {
			if dir == "" {
				dir = app.Config.RawDir
			}
			if len(files) == 0 {
				files = app.Config.Files
			}
			db, err := app.OpenDB()
			if err != nil {
				return err
			}
			defer db.Close()

			result := pipeline.NewProcessingService(db, app.Config, app.Logger).ProcessFiles(cmd.Context(), dir, files, nil)
			printResult(cmd.OutOrStdout(), result)
			return result.Err()
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "directory holding the raw tables (default RAW_DIR)")
	cmd.Flags().StringSliceVar(&files, "files", nil, "file names to process (default FILES)")
	return cmd
}

func newRunCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Fetch, extract and clean in one go",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Config.Require("SOURCE_URL", app.Config.SourceURL); err != nil {
				return err
			}
			db, err := app.OpenDB()
			if err != nil {
				return err
			}
			defer db.Close()

			fetched, err := source.NewFetchService(db, app.Config, app.Logger).FetchAndExtract(cmd.Context())
			if err != nil {
				return err
			}
			archiveID := fetched.Archive.ID
			result := pipeline.NewProcessingService(db, app.Config, app.Logger).ProcessFiles(cmd.Context(), app.Config.RawDir, app.Config.Files, &archiveID)
			printResult(cmd.OutOrStdout(), result)
			if err := result.Err(); err != nil {
				_ = db.UpdateArchiveStatus(archiveID, internal.ArchiveFailed)
				return err
			}
			return db.UpdateArchiveStatus(archiveID, internal.ArchiveProcessed)
		},
	}
}

func newNormalizeCommand(app *App) *cobra.Command {
	var input, output, xlsx string

	cmd := &cobra.Command{
		Use:   "items:normalize",
		Short: "Normalize a single item table file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(input) == "" || strings.TrimSpace(output) == "" {
				return fmt.Errorf("--input and --output are required")
			}
			svc := pipeline.NewProcessingService(nil, app.Config, app.Logger)
			res, err := svc.NormalizeFile(cmd.Context(), input, output)
			if err != nil {
				return err
			}
			if xlsx != "" {
				if err := pipeline.ExportItemsToXLSX(res.Items, xlsx); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "normalize done rows=%d sized=%d noted=%d unparseable=%d output=%s\n",
				res.Stats.Rows, res.Stats.Sized, res.Stats.Noted, res.Stats.Unparseable, output)
			return nil
		},
	}

	cmd.Flags().StringVar(&input, "input", "", "raw item table (.csv or .xlsx)")
	cmd.Flags().StringVar(&output, "output", "", "cleaned CSV path")
	cmd.Flags().StringVar(&xlsx, "xlsx", "", "optional xlsx copy of the cleaned items")
	return cmd
}

func newExportCommand(app *App) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export:xlsx",
		Short: "Export stored items to an xlsx workbook",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(out) == "" {
				return fmt.Errorf("--out is required")
			}
			db, err := app.OpenDB()
			if err != nil {
				return err
			}
			defer db.Close()

			items, err := db.ListItems()
			if err != nil {
				return err
			}
			if len(items) == 0 {
				return fmt.Errorf("no stored items to export")
			}
			if err := pipeline.ExportItemsToXLSX(items, out); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d items to %s\n", len(items), out)
			return nil
		},
	}

	cmd.Flags().StringVar(&out, "out", "", "output xlsx path")
	return cmd
}

func printResult(w io.Writer, result pipeline.ProcessResult) {
	for _, f := range result.Files {
		status := "ok"
		if f.Err != nil {
			status = "error: " + f.Err.Error()
		}
		fmt.Fprintf(w, "%s rows=%d unparseable=%d stored=%d %s\n", f.File, f.Rows, f.Unparseable, f.Stored, status)
	}
	fmt.Fprintf(w, "process done trace=%s files=%d failed=%d\n", result.TraceID, len(result.Files), result.Failed())
}
